// SPDX-License-Identifier: MIT

// Package flash provides a read-only client for JEDEC SPI NOR flash
// devices layered on the SPI controller driver.
package flash

import (
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/pipilavvy/spi"
)

// Bus performs SPI bursts, normally a *spi.Controller.
type Bus interface {
	Submit(x *spi.Transfer, timeout time.Duration) error
}

// JEDEC command set subset.
const (
	cmdReadStatus = 0x05
	cmdReadID     = 0x9f
	cmdRead       = 0x03
)

// headerSize is command plus 24-bit address.
const headerSize = 4

// ID identifies a flash device per JEDEC216.
type ID struct {
	Manufacturer byte
	Memory       byte
	Capacity     byte
}

// Flash reads a NOR flash behind an SPI bus.
type Flash struct {
	bus Bus
	// Timeout bounds each burst, Read splits large transfers into
	// multiple bursts.
	Timeout time.Duration
}

// New creates a Flash on the given bus.
func New(bus Bus) *Flash {
	return &Flash{bus: bus, Timeout: time.Second}
}

// ReadID reads the JEDEC device identification.
func (f *Flash) ReadID() (ID, error) {
	rx := make([]byte, 4)
	err := f.bus.Submit(&spi.Transfer{Tx: []byte{cmdReadID}, Rx: rx}, f.Timeout)
	if err != nil {
		return ID{}, err
	}
	return ID{Manufacturer: rx[1], Memory: rx[2], Capacity: rx[3]}, nil
}

// Status reads the status register.
func (f *Flash) Status() (byte, error) {
	rx := make([]byte, 2)
	err := f.bus.Submit(&spi.Transfer{Tx: []byte{cmdReadStatus}, Rx: rx}, f.Timeout)
	if err != nil {
		return 0, err
	}
	return rx[1], nil
}

var errOffset = errors.New("offset out of range")

// addrSpace is the reach of 24-bit addressing.
const addrSpace = 1 << 24

// ReadAt implements io.ReaderAt over the flash contents. Reads larger than
// one burst are split. Reads are truncated at the 24-bit addressing limit
// rather than wrapping around.
func (f *Flash) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errOffset
	}
	left := addrSpace - off
	if left <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) >= left {
		p = p[:left]
		err = io.EOF
	}
	for len(p) > 0 {
		nn := len(p)
		if nn > spi.MaxTransferLen-headerSize {
			nn = spi.MaxTransferLen - headerSize
		}
		var hdr [headerSize]byte
		binary.BigEndian.PutUint32(hdr[:], uint32(off))
		hdr[0] = cmdRead

		rx := make([]byte, headerSize+nn)
		if serr := f.bus.Submit(&spi.Transfer{Tx: hdr[:], Rx: rx}, f.Timeout); serr != nil {
			return n, serr
		}
		copy(p, rx[headerSize:])
		p = p[nn:]
		off += int64(nn)
		n += nn
	}
	return
}
