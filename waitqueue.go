package ksync

import (
	"github.com/llxisdsh/ksync/internal/opt"
)

// WaitChannel is the identity a sleeping thread is queued under. Each
// primitive allocates its own channel at creation, so wakes on one
// primitive can never stray onto another. The identity is an opaque
// per-kernel serial, not the primitive's address: it stays valid even if
// the Go runtime moves or the caller pools the owning object.
type WaitChannel uint64

// NewWaitChannel allocates a channel identity unused by any other
// primitive on this kernel. Exported so callers can build further
// primitives on the same sleep/wake facility.
func (k *Kernel) NewWaitChannel() WaitChannel {
	return WaitChannel(k.nextChan.Add(1))
}

// waiter is one sleeping thread. Waiters queue FIFO and each parks on its
// own semaphore, so a wake targets exactly the dequeued thread and nothing
// can steal its signal.
type waiter struct {
	next *waiter
	sema opt.Sema
}

type waitQueue struct {
	head *waiter
	tail *waiter
}

func (q *waitQueue) push(w *waiter) {
	if q.tail == nil {
		q.head = w
	} else {
		q.tail.next = w
	}
	q.tail = w
}

func (q *waitQueue) pop() *waiter {
	w := q.head
	if w != nil {
		q.head = w.next
		if q.head == nil {
			q.tail = nil
		}
	}
	return w
}

func (k *Kernel) requireGate(op string) {
	if k.gateOwner.Load() != goid() {
		panic("ksync: " + op + " requires interrupts disabled (Splhigh)")
	}
}

// SleepOn deschedules the calling thread and queues it on ch, returning
// only after a wake on ch. It must be called with interrupts masked and
// returns with them still masked.
//
// The thread is queued before the gate drops, so any wake issued from the
// moment other threads can run again will find it. That ordering is the
// whole lost-wakeup guarantee; everything above builds on it.
//
// The entire raise nest is released while sleeping and restored on
// wakeup, so a thread sleeping under nested raises does not wedge the
// core.
func (k *Kernel) SleepOn(ch WaitChannel) {
	id := goid()
	if k.gateOwner.Load() != id {
		panic("ksync: SleepOn requires interrupts disabled (Splhigh)")
	}
	if k.intr {
		panic("ksync: SleepOn called from interrupt context")
	}

	q := k.waitq[ch]
	if q == nil {
		q = &waitQueue{}
		k.waitq[ch] = q
	}
	w := &waiter{}
	q.push(w)

	k.level = SplLow
	k.gateOwner.Store(0)
	k.gate.unlock()

	w.sema.Acquire()

	k.gate.lock()
	k.gateOwner.Store(id)
	k.level = SplHigh
}

// WakeOne makes the longest-sleeping thread on ch runnable, if there is
// one. Requires interrupts masked; never blocks.
func (k *Kernel) WakeOne(ch WaitChannel) {
	k.requireGate("WakeOne")
	q := k.waitq[ch]
	if q == nil {
		return
	}
	if w := q.pop(); w != nil {
		w.sema.Release()
	}
	if q.head == nil {
		delete(k.waitq, ch)
	}
}

// WakeAll makes every thread sleeping on ch runnable. Requires interrupts
// masked; never blocks.
func (k *Kernel) WakeAll(ch WaitChannel) {
	k.requireGate("WakeAll")
	q := k.waitq[ch]
	if q == nil {
		return
	}
	for w := q.pop(); w != nil; w = q.pop() {
		w.sema.Release()
	}
	delete(k.waitq, ch)
}

// HasWaiters reports whether any thread is sleeping on ch. Requires
// interrupts masked. Used by the destroy-time checks.
func (k *Kernel) HasWaiters(ch WaitChannel) bool {
	k.requireGate("HasWaiters")
	return k.waitq[ch] != nil
}
