// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"github.com/spf13/cobra"

	"github.com/pipilavvy/spi"
)

func init() {
	rootCmd.AddCommand(writeCmd)
}

var writeCmd = &cobra.Command{
	Use:     "write <hexdata>...",
	Short:   "Clock out bytes, discarding whatever is received",
	Args:    cobra.MinimumNArgs(1),
	RunE:    write,
	Example: "  spixfer write deadbeef",
}

func write(cmd *cobra.Command, args []string) error {
	tx, err := parseData(args)
	if err != nil {
		return err
	}
	c, teardown, err := openController()
	if err != nil {
		return err
	}
	defer teardown()
	if err := c.Submit(&spi.Transfer{Tx: tx}, rootOpts.Timeout); err != nil {
		logErr(cmd, err)
		return err
	}
	return nil
}
