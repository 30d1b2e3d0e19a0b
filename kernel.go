// Package ksync implements classic kernel synchronization primitives —
// counting semaphore, owner-tracked sleeping lock, and Mesa-style
// condition variable — on top of an explicit single-core interrupt model.
//
// A Kernel stands in for one CPU of a cooperating kernel: at most one
// thread at a time runs with interrupts masked, and every primitive does
// its state transition plus the matching block/wake decision inside one
// such interrupts-disabled section. That is what makes
// "check, then sleep if still unsatisfied" atomic: no wakeup can land in
// the gap between the check and the sleep, because there is no gap another
// thread can run in.
//
// Kernel threads are ordinary goroutines. Blocking operations
// (Semaphore.Acquire, Lock.Lock, Cond.Wait) park the goroutine on a wait
// channel; wakes move it back to runnable and the Go scheduler plays the
// role of the run queue.
package ksync

import (
	"sync/atomic"
	"time"

	"github.com/llxisdsh/pb"

	"github.com/llxisdsh/ksync/internal/opt"
)

// IntrLevel is an interrupt priority level of the simulated core.
type IntrLevel uint8

const (
	// SplLow delivers all interrupts.
	SplLow IntrLevel = iota
	// SplHigh masks all interrupts.
	SplHigh
)

// Spl is the token returned by Splhigh. Passing it back to Splx restores
// the interrupt level in effect before the raise, so raise/restore pairs
// nest without any explicit depth bookkeeping.
type Spl struct {
	prev IntrLevel
}

// ThreadID identifies a kernel thread (a goroutine).
type ThreadID int64

// CurrentThread returns the calling thread's id.
func CurrentThread() ThreadID { return ThreadID(goid()) }

// Kernel models a single preemptible core: an interrupt gate, the wait
// channels of every primitive created on it, and a registry of those
// primitives for diagnostics.
//
// All primitives attached to one Kernel share its gate; primitives on
// different Kernels do not synchronize with each other at all.
type Kernel struct {
	_ noCopy

	// gate serializes the critical sections of every primitive on this
	// kernel. Holding it is the Go rendition of running with interrupts
	// masked on the one core. It is held only across short sections,
	// never across a sleep.
	gate ticketLock

	// gateOwner is the id of the thread inside the gate, 0 if none.
	// Stored only by the thread taking or leaving the gate; loaded
	// lock-free for nesting and interrupt-context checks.
	gateOwner atomic.Int64

	_ [opt.CacheLineSize_]byte

	// level and intr are guarded by gate. intr is additionally readable
	// without the gate by the thread that owns it.
	level IntrLevel
	intr  bool

	// waitq holds the queue of sleeping threads per wait channel.
	// Guarded by gate. Entries exist only while a channel has sleepers.
	waitq map[WaitChannel]*waitQueue

	nextChan atomic.Uint64
	objects  pb.MapOf[WaitChannel, ObjectInfo]
}

// NewKernel creates an idle core with no primitives attached.
func NewKernel() *Kernel {
	return &Kernel{waitq: make(map[WaitChannel]*waitQueue)}
}

// Splhigh masks all interrupts and returns a token that restores the
// previous level. A thread already inside the gate may raise again; the
// inner token's Splx is then a no-op and only the outermost restore
// reopens the gate.
func (k *Kernel) Splhigh() Spl {
	id := goid()
	if k.gateOwner.Load() == id {
		return Spl{prev: SplHigh}
	}
	k.gate.lock()
	k.gateOwner.Store(id)
	k.level = SplHigh
	return Spl{prev: SplLow}
}

// Splx restores the interrupt level saved in s.
// panic if the calling thread is not inside the gate.
func (k *Kernel) Splx(s Spl) {
	if k.gateOwner.Load() != goid() {
		panic("ksync: Splx by a thread that did not raise")
	}
	if s.prev == SplHigh {
		return
	}
	k.level = SplLow
	k.gateOwner.Store(0)
	k.gate.unlock()
}

// Level returns the interrupt level from the calling thread's point of
// view: SplHigh inside a raise or an interrupt handler, SplLow otherwise.
func (k *Kernel) Level() IntrLevel {
	if k.gateOwner.Load() == goid() {
		return k.level
	}
	return SplLow
}

// InInterrupt reports whether the calling thread is executing a handler
// dispatched by Interrupt. For any other thread the answer is false even
// while a handler runs: that thread is merely delayed at the gate, which
// is exactly what masked interrupts do to it.
func (k *Kernel) InInterrupt() bool {
	return k.gateOwner.Load() == goid() && k.intr
}

// mayBlock is the guard at the top of every blocking operation. Checked
// unconditionally, even when the fast path would not need to sleep.
func (k *Kernel) mayBlock(op string) {
	if k.InInterrupt() {
		panic("ksync: " + op + " called from interrupt context")
	}
}

// Interrupt runs handler as a device or timer interrupt: the whole handler
// executes with interrupts masked. Handlers may use the non-blocking
// operations (Semaphore.Release, Cond.Signal, Cond.Broadcast, queries);
// the blocking ones panic.
//
// If the dispatching thread is inside an interrupts-disabled section the
// handler runs nested within it, mirroring delivery at the unmask point.
func (k *Kernel) Interrupt(handler func()) {
	if k.InInterrupt() {
		panic("ksync: nested Interrupt dispatch")
	}
	spl := k.Splhigh()
	k.intr = true
	defer func() {
		k.intr = false
		k.Splx(spl)
	}()
	handler()
}

// StartTimer delivers tick as a timer interrupt every interval until the
// returned stop function is called. stop waits for an in-flight tick to
// finish before returning.
func (k *Kernel) StartTimer(interval time.Duration, tick func()) (stop func()) {
	t := time.NewTicker(interval)
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-t.C:
				k.Interrupt(tick)
			case <-quit:
				return
			}
		}
	}()
	return func() {
		t.Stop()
		close(quit)
		<-done
	}
}
