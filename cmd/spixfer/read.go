// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pipilavvy/spi"
)

func init() {
	readCmd.Flags().BoolVarP(&readOpts.Raw, "raw", "r", false, "write the received bytes to stdout instead of hex dumping")
	rootCmd.AddCommand(readCmd)
}

var (
	readCmd = &cobra.Command{
		Use:     "read <numbytes>",
		Short:   "Clock in bytes while transmitting zero filler",
		Args:    cobra.ExactArgs(1),
		RunE:    read,
		Example: "  spixfer read 256",
	}
	readOpts = struct {
		Raw bool
	}{}
)

func read(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil || n == 0 || n > spi.MaxTransferLen {
		return fmt.Errorf("can't read '%s' bytes", args[0])
	}
	c, teardown, err := openController()
	if err != nil {
		return err
	}
	defer teardown()
	rx := make([]byte, n)
	if err := c.Submit(&spi.Transfer{Rx: rx}, rootOpts.Timeout); err != nil {
		logErr(cmd, err)
		return err
	}
	if readOpts.Raw {
		os.Stdout.Write(rx)
		return nil
	}
	fmt.Printf("%x\n", rx)
	return nil
}
