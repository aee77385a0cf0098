// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/pipilavvy/spi"
	"github.com/pipilavvy/spi/flash"
)

// This example identifies a NOR flash on the SPI bus and dumps the first
// 64 bytes of its contents. Chip select is assumed to be handled by the
// platform (hardware controlled or asserted by firmware).
func main() {
	mem, err := spi.OpenMem(0x01c68000)
	if err != nil {
		panic(err)
	}
	defer mem.Close()
	uio, err := spi.OpenUIO("/dev/uio0")
	if err != nil {
		panic(err)
	}
	defer uio.Close()
	watcher, err := spi.NewWatcher()
	if err != nil {
		panic(err)
	}
	defer watcher.Close()

	c := spi.New(mem)
	if err = watcher.Register(uio, c.ServiceInterrupt); err != nil {
		panic(err)
	}
	defer watcher.Unregister(uio)

	f := flash.New(c)
	id, err := f.ReadID()
	if err != nil {
		panic(err)
	}
	fmt.Printf("manufacturer %#02x memory %#02x capacity %#02x\n",
		id.Manufacturer, id.Memory, id.Capacity)

	buf := make([]byte, 64)
	if _, err = f.ReadAt(buf, 0); err != nil {
		panic(err)
	}
	fmt.Printf("%x\n", buf)
}
