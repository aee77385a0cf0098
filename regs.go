// SPDX-License-Identifier: MIT

package spi

// Regs provides 32-bit access to the controller's register window. The
// window is normally a mapped /dev/mem range (see Mem), but anything that
// can read and write registers at byte offsets will do.
type Regs interface {
	Read(off uint32) uint32
	Write(off uint32, v uint32)
}

// FifoDepth is the size in bytes of both the transmit and receive FIFOs.
// It is fixed by the controller.
const FifoDepth = 64

// MaxTransferLen is the largest burst the 24-bit counter registers can
// describe.
const MaxTransferLen = 0xffffff

// Register offsets within the controller window.
const (
	regControl  = 0x04 // global control
	regIntCtl   = 0x10 // interrupt enable, bit per source
	regIntSta   = 0x14 // interrupt status, write 1 to clear
	regFifoCtl  = 0x18 // FIFO control
	regFifoSta  = 0x1c // FIFO occupancy counts
	regBurstCnt = 0x30 // total burst length, 24 bit
	regXmitCnt  = 0x34 // bytes to transmit, 24 bit
	regTxData   = 0x200
	regRxData   = 0x300
)

// Control register bits.
const (
	ctrlEnable      uint32 = 1 << 0  // controller enable
	ctrlPauseOnFull uint32 = 1 << 7  // pause the clock while the rx FIFO is full
	ctrlStart       uint32 = 1 << 31 // initiate the burst, self clearing
)

// FIFO control register bits.
const (
	fifoCtlRxReset uint32 = 1 << 15
	fifoCtlTxReset uint32 = 1 << 31
)

// Interrupt sources, one bit each in both the interrupt control and the
// interrupt status register.
const (
	irqRxThreeQuarter uint32 = 1 << 2  // rx FIFO at least 3/4 full
	irqTxThreeQuarter uint32 = 1 << 5  // tx FIFO at least 3/4 empty
	irqComplete       uint32 = 1 << 12 // burst finished

	irqAll = irqRxThreeQuarter | irqTxThreeQuarter | irqComplete
)

// Occupancy counts from the FIFO status register.
func rxOccupancy(fsta uint32) int {
	return int(fsta & 0xff)
}

func txOccupancy(fsta uint32) int {
	return int(fsta >> 16 & 0xff)
}
