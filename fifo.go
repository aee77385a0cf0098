// SPDX-License-Identifier: MIT

// FIFO fill and drain for the active transfer.
//
// Both operations are bounded by the occupancy counts reported by the FIFO
// status register and never block. Callers hold imu.

package spi

// drain pops at most max bytes from the receive FIFO into the receive
// buffer, discarding them if the transfer has none, and returns the number
// popped. Reading beyond the reported occupancy returns undefined data, so
// the count is read first and respected.
func (c *Controller) drain(max int) int {
	x := c.xfer
	n := rxOccupancy(c.regs.Read(regFifoSta))
	if n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		b := byte(c.regs.Read(regRxData))
		if x.rxn < len(x.Rx) {
			x.Rx[x.rxn] = b
		}
		x.rxn++
	}
	return n
}

// fill pushes at most max bytes into the transmit FIFO, bounded by the free
// space and by the bytes left to send, and returns the number pushed. With
// a nil transmit buffer zero filler is sent.
func (c *Controller) fill(max int) int {
	x := c.xfer
	n := FifoDepth - txOccupancy(c.regs.Read(regFifoSta))
	if n > max {
		n = max
	}
	if rem := x.txPending(); n > rem {
		n = rem
	}
	for i := 0; i < n; i++ {
		var b byte
		if x.txn < len(x.Tx) {
			b = x.Tx[x.txn]
		}
		c.regs.Write(regTxData, uint32(b))
		x.txn++
	}
	return n
}
