// SPDX-License-Identifier: MIT

// A simulated register file for tests.
//
// simRegs models the controller: FIFOs, burst counter, pause on full,
// level-triggered threshold status and a byte-level slave function. The
// default slave loops transmitted bytes back, so a full-duplex transfer
// should receive exactly what it sent.

package spi

import (
	"sync"
	"testing"
)

type simOp struct {
	write bool
	off   uint32
	val   uint32
	rxOcc int // rx FIFO occupancy when the access landed
}

type simRegs struct {
	mu sync.Mutex

	ctrl   uint32
	intCtl uint32
	intSta uint32
	burst  int
	active bool

	txf []byte
	rxf []byte

	// slave models the attached device, one byte exchanged per call.
	slave func(b byte) byte

	// stall freezes the burst engine, for timeout tests.
	stall bool

	// Instrumentation.
	traceOn  bool
	trace    []simOp
	txTotal  int  // bytes written to the tx data register
	txeArmed bool // the tx threshold source was ever enabled

	irq chan struct{}
}

func newSimRegs() *simRegs {
	return &simRegs{
		slave: func(b byte) byte { return b },
		irq:   make(chan struct{}, 1),
	}
}

func (s *simRegs) Read(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v uint32
	switch off {
	case regControl:
		v = s.ctrl
	case regIntCtl:
		v = s.intCtl
	case regIntSta:
		v = s.intSta
	case regFifoSta:
		v = uint32(len(s.rxf)) | uint32(len(s.txf))<<16
	case regRxData:
		if len(s.rxf) > 0 {
			v = uint32(s.rxf[0])
			s.rxf = s.rxf[1:]
		} else {
			// Undefined data on underflow. Distinctive so tests
			// catch overdraining.
			v = 0xee
		}
	}
	if s.traceOn {
		s.trace = append(s.trace, simOp{false, off, v, len(s.rxf)})
	}
	s.step()
	s.notify()
	return v
}

func (s *simRegs) Write(off uint32, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.traceOn {
		s.trace = append(s.trace, simOp{true, off, v, len(s.rxf)})
	}
	switch off {
	case regControl:
		s.ctrl = v &^ ctrlStart
		if v&ctrlStart != 0 {
			s.active = true
		}
	case regIntCtl:
		s.intCtl = v
		if v&irqTxThreeQuarter != 0 {
			s.txeArmed = true
		}
	case regIntSta:
		s.intSta &^= v // write 1 to clear
	case regFifoCtl:
		if v&fifoCtlTxReset != 0 {
			s.txf = s.txf[:0]
		}
		if v&fifoCtlRxReset != 0 {
			s.rxf = s.rxf[:0]
		}
	case regBurstCnt:
		s.burst = int(v & MaxTransferLen)
	case regXmitCnt:
		// Mirrors the burst count in this model.
	case regTxData:
		if len(s.txf) < FifoDepth {
			s.txf = append(s.txf, byte(v))
		}
		s.txTotal++
	}
	s.step()
	s.notify()
}

// step advances the burst engine as far as FIFO contents allow, then
// latches status bits for any condition that holds.
func (s *simRegs) step() {
	if s.stall {
		return
	}
	for s.active && s.burst > 0 && len(s.txf) > 0 {
		if len(s.rxf) >= FifoDepth {
			if s.ctrl&ctrlPauseOnFull != 0 {
				break
			}
			// No pause configured: the incoming byte is lost.
			s.rxf = s.rxf[1:]
		}
		b := s.txf[0]
		s.txf = s.txf[1:]
		s.rxf = append(s.rxf, s.slave(b))
		s.burst--
	}
	if s.active && s.burst == 0 {
		s.intSta |= irqComplete
		s.active = false
	}
	if len(s.rxf) >= 3*FifoDepth/4 {
		s.intSta |= irqRxThreeQuarter
	}
	if s.active && len(s.txf) <= FifoDepth/4 {
		s.intSta |= irqTxThreeQuarter
	}
}

// notify signals the interrupt line when an enabled source is pending.
func (s *simRegs) notify() {
	if s.intSta&s.intCtl != 0 {
		select {
		case s.irq <- struct{}{}:
		default:
		}
	}
}

func (s *simRegs) setStall(v bool) {
	s.mu.Lock()
	s.stall = v
	s.mu.Unlock()
}

func (s *simRegs) setTrace(v bool) {
	s.mu.Lock()
	s.traceOn = v
	s.trace = nil
	s.mu.Unlock()
}

func (s *simRegs) snapshot() (intCtl uint32, txTotal int, txeArmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intCtl, s.txTotal, s.txeArmed
}

func (s *simRegs) ops() []simOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]simOp(nil), s.trace...)
}

// newTestController wires a Controller to a simulated register file and a
// goroutine standing in for the platform's interrupt dispatch.
func newTestController(t *testing.T) (*Controller, *simRegs) {
	t.Helper()
	s := newSimRegs()
	c := New(s)
	s.mu.Lock()
	s.txTotal, s.txeArmed = 0, false
	s.mu.Unlock()

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-s.irq:
				c.ServiceInterrupt()
			case <-stop:
				return
			}
		}
	}()
	t.Cleanup(func() { close(stop) })
	return c, s
}
