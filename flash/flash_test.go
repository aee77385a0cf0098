// SPDX-License-Identifier: MIT

package flash

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/pipilavvy/spi"
)

// fakeFlash models a NOR flash at the byte-exchange level.
type fakeFlash struct {
	id     ID
	status byte
	data   []byte
}

func (f *fakeFlash) Submit(x *spi.Transfer, timeout time.Duration) error {
	n := len(x.Tx)
	if len(x.Rx) > n {
		n = len(x.Rx)
	}
	rx := make([]byte, n)
	if len(x.Tx) == 0 {
		return nil
	}
	switch x.Tx[0] {
	case cmdReadID:
		copy(rx[1:], []byte{f.id.Manufacturer, f.id.Memory, f.id.Capacity})
	case cmdReadStatus:
		for i := 1; i < n; i++ {
			rx[i] = f.status
		}
	case cmdRead:
		addr := int(x.Tx[1])<<16 | int(x.Tx[2])<<8 | int(x.Tx[3])
		if addr < len(f.data) {
			copy(rx[headerSize:], f.data[addr:])
		}
	}
	copy(x.Rx, rx)
	return nil
}

func TestReadID(t *testing.T) {
	f := New(&fakeFlash{id: ID{Manufacturer: 0xef, Memory: 0x40, Capacity: 0x18}})
	id, err := f.ReadID()
	if err != nil {
		t.Fatal(err)
	}
	if id.Manufacturer != 0xef || id.Memory != 0x40 || id.Capacity != 0x18 {
		t.Errorf("unexpected id %+v", id)
	}
}

func TestStatus(t *testing.T) {
	f := New(&fakeFlash{status: 0x02})
	s, err := f.Status()
	if err != nil {
		t.Fatal(err)
	}
	if s != 0x02 {
		t.Errorf("status %#x", s)
	}
}

func TestReadAt(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 13)
	}
	f := New(&fakeFlash{data: data})

	p := make([]byte, 256)
	n, err := f.ReadAt(p, 128)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(p) {
		t.Errorf("read %d bytes", n)
	}
	if !bytes.Equal(p, data[128:128+256]) {
		t.Error("read mismatch")
	}

	if _, err := f.ReadAt(p, -1); err == nil {
		t.Error("negative offset accepted")
	}
}

// TestReadAtEnd reads across the 24-bit addressing limit. The read must be
// truncated, not wrap around to the start of the device.
func TestReadAtEnd(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = 0xa5
	}
	f := New(&fakeFlash{data: data})

	p := make([]byte, 16)
	n, err := f.ReadAt(p, addrSpace-8)
	if err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
	if n != 8 {
		t.Errorf("read %d bytes past the addressing limit", n)
	}
	for i, b := range p[:n] {
		if b == 0xa5 {
			t.Fatalf("p[%d] wrapped around to the start of the device", i)
		}
	}

	if n, err = f.ReadAt(p, addrSpace); n != 0 || err != io.EOF {
		t.Errorf("read %d, %v at the addressing limit", n, err)
	}
}
