// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package spi

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mem is a register window memory mapped from /dev/mem.
//
// Individual register reads and writes skip locking on the assumption that
// aligned 32-bit accesses to the mapping are atomic.
type Mem struct {
	// 8 and 32 bit views of the same mapping.
	mem8 []byte
	mem  []uint32
}

// memLength is the size of the mapped register window.
const memLength = 0x1000

// OpenMem maps the controller register window at the given physical base
// address from /dev/mem. The base must be page aligned.
func OpenMem(base int64) (*Mem, error) {
	file, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mem8, err := unix.Mmap(
		int(file.Fd()),
		base,
		memLength,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	// Reinterpret the mapped bytes as uint32 registers.
	mem := unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), memLength/4)

	return &Mem{mem8: mem8, mem: mem}, nil
}

// Read returns the register at byte offset off.
func (m *Mem) Read(off uint32) uint32 {
	return m.mem[off/4]
}

// Write sets the register at byte offset off.
func (m *Mem) Write(off uint32, v uint32) {
	m.mem[off/4] = v
}

// Close unmaps the register window.
func (m *Mem) Close() error {
	m.mem = nil
	return unix.Munmap(m.mem8)
}
