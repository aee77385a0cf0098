// SPDX-License-Identifier: MIT

// Interrupt dispatch for Controllers behind UIO devices.

//go:build linux
// +build linux

package spi

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// maxEvents bounds the events handled per poll wakeup.
const maxEvents = 16

type interrupt struct {
	uio     *UIO
	handler func() bool
}

// Watcher owns an epoll instance and a goroutine that dispatches interrupt
// events from registered UIO devices to their handlers. A handler returning
// false means the event was not for its device; such events are counted as
// spurious rather than silently swallowed.
type Watcher struct {
	mu sync.Mutex // Guards the following.
	fd int
	// Map from UIO fd to interrupt.
	interrupts map[int]*interrupt
	spurious   uint64
	ackErrs    uint64
}

// NewWatcher creates a Watcher and starts its dispatch goroutine.
func NewWatcher() (*Watcher, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("unable to create epoll: %w", err)
	}
	watcher := &Watcher{
		fd:         fd,
		interrupts: make(map[int]*interrupt),
	}

	go func() {
		var events [maxEvents]unix.EpollEvent

		for {
			n, err := unix.EpollWait(watcher.fd, events[:], -1)
			if err != nil {
				if err == unix.EBADF || err == unix.EINVAL {
					// fd closed so exit
					return
				}
				if err == unix.EINTR {
					continue
				}
				panic(fmt.Sprintf("EpollWait error: %v", err))
			}
			irqs := make([]*interrupt, 0, n)
			watcher.mu.Lock()
			for _, event := range events[:n] {
				if irq, ok := watcher.interrupts[int(event.Fd)]; ok {
					irqs = append(irqs, irq)
				}
			}
			watcher.mu.Unlock()
			for _, irq := range irqs {
				if _, err := irq.uio.Ack(); err != nil {
					watcher.mu.Lock()
					watcher.ackErrs++
					watcher.mu.Unlock()
				}
				if !irq.handler() {
					watcher.mu.Lock()
					watcher.spurious++
					watcher.mu.Unlock()
				}
				irq.uio.Enable()
			}
		}
	}()
	return watcher, nil
}

// Register adds a UIO device to the watch and arms its interrupt line. The
// handler is typically a Controller's ServiceInterrupt. A device can only
// be registered once.
func (watcher *Watcher) Register(u *UIO, handler func() bool) error {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()

	if _, ok := watcher.interrupts[u.Fd()]; ok {
		return errors.New("watch already exists")
	}
	if err := unix.SetNonblock(u.Fd(), true); err != nil {
		return err
	}
	event := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLET&0xffffffff,
		Fd:     int32(u.Fd()),
	}
	if err := unix.EpollCtl(watcher.fd, unix.EPOLL_CTL_ADD, u.Fd(), &event); err != nil {
		return err
	}
	watcher.interrupts[u.Fd()] = &interrupt{uio: u, handler: handler}
	return u.Enable()
}

// Unregister removes a UIO device from the watch.
func (watcher *Watcher) Unregister(u *UIO) {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()

	if _, ok := watcher.interrupts[u.Fd()]; !ok {
		return
	}
	unix.EpollCtl(watcher.fd, unix.EPOLL_CTL_DEL, u.Fd(), nil)
	unix.SetNonblock(u.Fd(), false)
	delete(watcher.interrupts, u.Fd())
}

// Spurious returns the number of events no handler claimed.
func (watcher *Watcher) Spurious() uint64 {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	return watcher.spurious
}

// AckErrs returns the number of events whose interrupt count could not be
// read from the UIO device.
func (watcher *Watcher) AckErrs() uint64 {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	return watcher.ackErrs
}

// His watch has ended.
func (watcher *Watcher) Close() {
	unix.Close(watcher.fd)
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	watcher.interrupts = nil
}
