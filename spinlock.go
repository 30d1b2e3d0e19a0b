package ksync

import (
	"sync/atomic"
)

// ticketLock is the fair FIFO spinlock backing a Kernel's interrupt gate.
//
// The gate is only ever held across a primitive's own short critical
// section, never across a sleep, so contenders spin briefly rather than
// park. The ticket algorithm keeps them in arrival order: threads line up
// at the simulated core in the order they asked to mask interrupts, which
// keeps wake/requeue races deterministic under load.
//
// Lock(): take a ticket, wait until serving reaches it.
// Unlock(): advance serving to admit the next ticket holder.
type ticketLock struct {
	next    atomic.Uint32
	serving atomic.Uint32
}

func (l *ticketLock) lock() {
	my := l.next.Add(1) - 1
	var spins int
	for l.serving.Load() != my {
		delay(&spins)
	}
}

func (l *ticketLock) unlock() {
	l.serving.Add(1)
}
