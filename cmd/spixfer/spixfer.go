// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// spixfer performs SPI bursts through the interrupt-driven controller
// driver. The register window and interrupt line locations are platform
// specific and provided by flags.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pipilavvy/spi"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "spixfer",
	Short: "spixfer is a utility to transfer data over a memory mapped SPI controller",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version: version,
}

var rootOpts = struct {
	MemBase string
	UIO     string
	Timeout time.Duration
}{}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.MemBase, "mem-base", "b", "0x01c68000", "physical base address of the controller registers")
	rootCmd.PersistentFlags().StringVarP(&rootOpts.UIO, "uio", "u", "/dev/uio0", "UIO device carrying the controller interrupt")
	rootCmd.PersistentFlags().DurationVarP(&rootOpts.Timeout, "timeout", "t", time.Second, "time allowed per burst")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "spixfer %s: %s\n", cmd.Name(), err)
}

// openController maps the registers, arms the interrupt dispatch and
// returns the controller with a teardown function.
func openController() (*spi.Controller, func(), error) {
	base, err := strconv.ParseInt(rootOpts.MemBase, 0, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("can't parse mem-base '%s'", rootOpts.MemBase)
	}
	mem, err := spi.OpenMem(base)
	if err != nil {
		return nil, nil, err
	}
	uio, err := spi.OpenUIO(rootOpts.UIO)
	if err != nil {
		mem.Close()
		return nil, nil, err
	}
	watcher, err := spi.NewWatcher()
	if err != nil {
		uio.Close()
		mem.Close()
		return nil, nil, err
	}
	c := spi.New(mem)
	if err := watcher.Register(uio, c.ServiceInterrupt); err != nil {
		watcher.Close()
		uio.Close()
		mem.Close()
		return nil, nil, err
	}
	teardown := func() {
		watcher.Unregister(uio)
		watcher.Close()
		uio.Close()
		mem.Close()
	}
	return c, teardown, nil
}
