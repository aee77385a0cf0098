// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipilavvy/spi"
)

func init() {
	xferCmd.SetHelpTemplate(xferCmd.HelpTemplate() + extendedXferHelp)
	rootCmd.AddCommand(xferCmd)
}

var xferCmd = &cobra.Command{
	Use:     "xfer <hexdata>...",
	Short:   "Perform a full-duplex transfer and print the received bytes",
	Args:    cobra.MinimumNArgs(1),
	RunE:    xfer,
	Example: "  spixfer xfer 9f000000",
}

var extendedXferHelp = `
Data:
  Data is given as hex byte strings, e.g. deadbeef. Multiple arguments are
  concatenated into a single burst.
`

func xfer(cmd *cobra.Command, args []string) error {
	tx, err := parseData(args)
	if err != nil {
		return err
	}
	c, teardown, err := openController()
	if err != nil {
		return err
	}
	defer teardown()
	rx := make([]byte, len(tx))
	if err := c.Submit(&spi.Transfer{Tx: tx, Rx: rx}, rootOpts.Timeout); err != nil {
		logErr(cmd, err)
		return err
	}
	fmt.Printf("%x\n", rx)
	return nil
}

func parseData(args []string) ([]byte, error) {
	data, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil {
		return nil, fmt.Errorf("can't parse data: %s", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no data to transfer")
	}
	return data, nil
}
