// SPDX-License-Identifier: MIT

// Package spi provides a driver for a register-mapped SPI controller with
// interrupt-driven FIFO servicing.
//
// The controller exposes 64 byte transmit and receive FIFOs and a 24-bit
// burst counter, so a single burst may move far more data than the FIFOs
// hold. The driver keeps both FIFOs serviced from the controller's
// threshold interrupts rather than busy-waiting.
//
// Supports:
//   - full-duplex, transmit-only and receive-only bursts up to 16MiB
//   - blocking submission with a timeout
//   - shared interrupt lines (unrecognised events are reported, not dropped)
//
// The package intentionally does not support:
//   - DMA transfers
//   - pipelining multiple in-flight transfers
//   - clock or mode reconfiguration, which belongs to platform setup
//
// Example of use:
//
//	mem, _ := spi.OpenMem(0x01c68000)
//	defer mem.Close()
//	c := spi.New(mem)
//
//	tx := []byte{0x9f, 0, 0, 0}
//	rx := make([]byte, len(tx))
//	err := c.Submit(&spi.Transfer{Tx: tx, Rx: rx}, time.Second)
//
// Interrupt delivery is the platform's business. On Linux a Watcher can
// service a UIO device and invoke ServiceInterrupt, but any dispatcher that
// calls ServiceInterrupt on controller events will do.
package spi

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrTransferTooLarge indicates the transfer exceeds the 24-bit burst
	// counter. The caller may split the transfer and retry.
	ErrTransferTooLarge = errors.New("transfer exceeds burst counter")
	// ErrTransferTimeout indicates completion was not signalled in time.
	// The interrupt mask is cleared before returning, so the controller is
	// quiescent and a subsequent transfer may be attempted.
	ErrTransferTimeout = errors.New("transfer timed out")
)

// Transfer describes one SPI burst.
//
// Either buffer may be nil: with a nil Tx zero filler bytes are clocked
// out, with a nil Rx the received bytes are discarded. The burst length is
// the length of the longer buffer. The buffers are borrowed by the driver
// until Submit returns and must not be touched while it is blocked.
type Transfer struct {
	Tx []byte
	Rx []byte

	// Progress counters, in bytes moved across the hardware boundary.
	txn int
	rxn int
}

func (x *Transfer) size() int {
	if len(x.Tx) > len(x.Rx) {
		return len(x.Tx)
	}
	return len(x.Rx)
}

// txPending returns the number of bytes not yet pushed to the tx FIFO.
func (x *Transfer) txPending() int {
	return x.size() - x.txn
}

// Controller drives a single SPI controller instance.
//
// Submit is serialized internally, but the descriptor handoff to the
// interrupt context assumes exactly one interrupt dispatcher calls
// ServiceInterrupt.
type Controller struct {
	regs Regs

	// mu serializes Submit callers.
	mu sync.Mutex

	// imu guards the fields below, shared with the interrupt context.
	imu  sync.Mutex
	xfer *Transfer
	done chan struct{}
}

// New creates a Controller on the given register window and quiesces it:
// all interrupt sources masked, stale status acknowledged, FIFOs reset and
// the receive-pause behaviour enabled so a full rx FIFO stalls the clock
// instead of overflowing.
func New(regs Regs) *Controller {
	c := &Controller{regs: regs}
	regs.Write(regIntCtl, 0)
	regs.Write(regIntSta, irqAll)
	regs.Write(regFifoCtl, fifoCtlRxReset|fifoCtlTxReset)
	regs.Write(regControl, ctrlEnable|ctrlPauseOnFull)
	return c
}

// Submit performs one burst and blocks until the controller signals
// completion or the timeout expires.
//
// The interrupt mask is always cleared before returning, whatever the
// outcome, so no source is left armed for the next transfer.
func (c *Controller) Submit(x *Transfer, timeout time.Duration) error {
	n := x.size()
	if n > MaxTransferLen {
		return ErrTransferTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	x.txn, x.rxn = 0, 0
	done := make(chan struct{})

	// Discard anything an aborted transfer left behind: bytes in the
	// FIFOs, and latched status from a burst that finished after its
	// timeout retired the mask. A stale completion bit would fire the
	// handler the moment the source is re-armed.
	c.regs.Write(regFifoCtl, fifoCtlRxReset|fifoCtlTxReset)
	c.regs.Write(regIntSta, irqAll)
	c.regs.Write(regBurstCnt, uint32(n)&MaxTransferLen)
	c.regs.Write(regXmitCnt, uint32(n)&MaxTransferLen)

	c.imu.Lock()
	c.xfer = x
	c.done = done
	c.fill(FifoDepth) // prime; covers bursts within one FIFO depth
	irqs := irqComplete | irqRxThreeQuarter
	if n > FifoDepth {
		// Only bursts longer than the FIFO ever drain it mid-burst.
		irqs |= irqTxThreeQuarter
	}
	c.armIrq(irqs)
	c.imu.Unlock()

	c.regs.Write(regControl, c.regs.Read(regControl)|ctrlStart)

	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = ErrTransferTimeout
	}

	// Retire the descriptor and disarm everything. A late interrupt may
	// still fire before the mask write lands; holding imu keeps it off
	// the retired descriptor.
	c.imu.Lock()
	c.xfer = nil
	c.resetIrq()
	c.imu.Unlock()

	return err
}
