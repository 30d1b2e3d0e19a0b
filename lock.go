package ksync

import (
	"sync"
	"sync/atomic"
)

// Lock is a sleeping mutual-exclusion lock that records its owner.
//
// It is not reentrant: a thread that calls Lock twice without an
// intervening Unlock sleeps forever, the standard non-reentrant mutex
// contract. Unlock by a thread that is not the owner is silently ignored
// rather than fatal — a deliberate leniency, since halting a kernel over
// a caller bug on the release path is worse than dropping the call.
//
// Unlock wakes every waiter rather than one. Whichever of them wins the
// gate first takes ownership on its recheck and the rest go back to
// sleep. The herd is deliberate: handoff stays trivially correct, at the
// cost of some churn under heavy contention.
type Lock struct {
	_    noCopy
	k    *Kernel
	name string
	ch   WaitChannel

	// owner is the id of the holding thread, 0 when unheld. Stored only
	// inside the kernel gate; loaded lock-free by Holding.
	owner atomic.Int64
}

var _ sync.Locker = (*Lock)(nil)

// NewLock returns an unheld lock named name.
func NewLock(k *Kernel, name string) *Lock {
	l := &Lock{k: k, name: name, ch: k.NewWaitChannel()}
	k.register(l.ch, name, KindLock)
	return l
}

// Name returns the diagnostic label given at creation.
func (l *Lock) Name() string { return l.name }

// Lock acquires the lock, sleeping while another thread holds it.
// Must not be called from interrupt context.
func (l *Lock) Lock() {
	l.k.mayBlock("Lock.Lock")
	spl := l.k.Splhigh()
	for l.owner.Load() != 0 {
		l.k.SleepOn(l.ch)
	}
	l.owner.Store(goid())
	l.k.Splx(spl)
}

// TryLock acquires the lock if it is free.
// Returns true on success. Never sleeps; safe in interrupt context.
func (l *Lock) TryLock() bool {
	spl := l.k.Splhigh()
	ok := l.owner.Load() == 0
	if ok {
		l.owner.Store(goid())
	}
	l.k.Splx(spl)
	return ok
}

// Unlock releases the lock and wakes all threads sleeping on it.
// If the calling thread is not the owner the call does nothing.
// Never blocks. The owner is cleared before the wake, so every woken
// thread's recheck sees the lock free.
func (l *Lock) Unlock() {
	spl := l.k.Splhigh()
	if l.owner.Load() == goid() {
		l.owner.Store(0)
		l.k.WakeAll(l.ch)
	}
	l.k.Splx(spl)
}

// Holding reports whether the calling thread owns the lock. It is a pure
// query — no gate, no sleep — so it is safe anywhere, including interrupt
// handlers and assertions inside other critical sections.
func (l *Lock) Holding() bool {
	return l.owner.Load() == goid()
}

// Destroy unregisters the lock.
// panic if the lock is held or any thread is sleeping on it. A held lock
// implies a live owning thread, so no further liveness check is needed.
func (l *Lock) Destroy() {
	spl := l.k.Splhigh()
	busy := l.owner.Load() != 0 || l.k.HasWaiters(l.ch)
	l.k.Splx(spl)
	if busy {
		panic("ksync: Destroy of lock " + l.name + " while in use")
	}
	l.k.unregister(l.ch)
}
