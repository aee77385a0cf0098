// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package spi

import (
	"encoding/binary"
	"os"
)

// UIO is a userspace I/O interrupt device (/dev/uioN) carrying the
// controller's interrupt line. Reading the device yields the event count,
// writing 1 re-enables the line after it has been serviced.
type UIO struct {
	f *os.File
}

// OpenUIO opens the UIO device at path, e.g. "/dev/uio0".
func OpenUIO(path string) (*UIO, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &UIO{f: f}, nil
}

// Ack consumes the pending event count.
func (u *UIO) Ack() (uint32, error) {
	var buf [4]byte
	if _, err := u.f.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Enable re-enables the interrupt line.
func (u *UIO) Enable() error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], 1)
	_, err := u.f.Write(buf[:])
	return err
}

// Fd returns the underlying file descriptor for polling.
func (u *UIO) Fd() int {
	return int(u.f.Fd())
}

// Close closes the device.
func (u *UIO) Close() error {
	return u.f.Close()
}
