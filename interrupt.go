// SPDX-License-Identifier: MIT

// Interrupt mask lifecycle and event servicing for the Controller.

package spi

// armIrq enables the given interrupt sources, leaving the others as they
// are.
func (c *Controller) armIrq(mask uint32) {
	c.regs.Write(regIntCtl, c.regs.Read(regIntCtl)|mask)
}

// disarmIrq disables the given interrupt sources.
func (c *Controller) disarmIrq(mask uint32) {
	c.regs.Write(regIntCtl, c.regs.Read(regIntCtl)&^mask)
}

// resetIrq disables all interrupt sources.
func (c *Controller) resetIrq() {
	c.regs.Write(regIntCtl, 0)
}

// event identifies the highest priority pending interrupt cause.
type event int

const (
	eventNone event = iota
	eventComplete
	eventRxFull
	eventTxEmpty
)

// decode maps the status register to a single event. Completion outranks
// the threshold events so residual FIFO bytes are drained exactly once.
func decode(status uint32) event {
	switch {
	case status&irqComplete != 0:
		return eventComplete
	case status&irqRxThreeQuarter != 0:
		return eventRxFull
	case status&irqTxThreeQuarter != 0:
		return eventTxEmpty
	}
	return eventNone
}

// ServiceInterrupt handles one controller event and returns whether the
// event belonged to this controller. A false return means the status
// register matched none of the known sources, so a dispatcher sharing the
// interrupt line should try its other devices.
//
// ServiceInterrupt is invoked by the platform's interrupt dispatch (see
// Watcher) and runs concurrently with a blocked Submit caller.
func (c *Controller) ServiceInterrupt() bool {
	c.imu.Lock()
	defer c.imu.Unlock()

	status := c.regs.Read(regIntSta) & irqAll
	if status == 0 {
		return false
	}

	if c.xfer == nil {
		// The transfer was retired, typically by a timeout racing a
		// late event. Acknowledge so the line drops, touch nothing.
		c.regs.Write(regIntSta, status)
		return true
	}

	switch decode(status) {
	case eventComplete:
		// Residual bytes below the rx threshold are still in the FIFO.
		c.drain(FifoDepth)
		c.regs.Write(regIntSta, irqComplete)
		c.xfer = nil
		close(c.done)
	case eventRxFull:
		// Drain before acknowledging. Bytes arriving between a clear
		// and a later drain would assert status for data already on
		// its way out of the FIFO.
		c.drain(FifoDepth)
		c.regs.Write(regIntSta, irqRxThreeQuarter)
	case eventTxEmpty:
		c.fill(FifoDepth)
		if c.xfer.txPending() == 0 {
			// The source re-fires for as long as the FIFO sits
			// below its threshold. Nothing left to feed it, so
			// disarm before acknowledging.
			c.disarmIrq(irqTxThreeQuarter)
		}
		c.regs.Write(regIntSta, irqTxThreeQuarter)
	}
	return true
}
