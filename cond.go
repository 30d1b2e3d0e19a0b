package ksync

// Cond is a Mesa-style condition variable: a named wait point always used
// under a caller-held Lock. It owns no counter and no queue of its own —
// the kernel's wait-queue bookkeeping is keyed by the cond's wait channel,
// so the type is nothing but identity.
//
// The lock passed to each operation is the monitor calling convention:
// Wait requires the caller to hold it, Signal and Broadcast conventionally
// run with it held but never touch it. The pairing is a contract, not a
// runtime check, and the same cond may pair with different locks over its
// lifetime (correct code sticks to one).
type Cond struct {
	_    noCopy
	k    *Kernel
	name string
	ch   WaitChannel
}

// NewCond returns a condition variable named name.
func NewCond(k *Kernel, name string) *Cond {
	c := &Cond{k: k, name: name, ch: k.NewWaitChannel()}
	k.register(c.ch, name, KindCond)
	return c
}

// Name returns the diagnostic label given at creation.
func (c *Cond) Name() string { return c.name }

// Wait atomically releases l, sleeps until a Signal or Broadcast on c,
// and reacquires l before returning. Must not be called from interrupt
// context.
//
// The release and the enqueue both happen inside one interrupts-disabled
// section, so a signal sent the instant the lock comes free cannot slip
// through unseen — the linchpin property of a condition variable.
//
// As in any Mesa monitor, the awaited condition may be false again by the
// time Wait returns; always call it in a loop over the condition.
func (c *Cond) Wait(l *Lock) {
	if l == nil {
		panic("ksync: Cond.Wait with nil lock")
	}
	c.k.mayBlock("Cond.Wait")
	spl := c.k.Splhigh()
	l.Unlock()
	c.k.SleepOn(c.ch)
	l.Lock()
	c.k.Splx(spl)
}

// Signal wakes one thread sleeping on c, if any. A signal with no waiter
// is forgotten, not stored — conditions are not semaphores. l is the
// paired monitor lock; it is not touched. Never blocks; safe in interrupt
// context.
func (c *Cond) Signal(l *Lock) {
	if l == nil {
		panic("ksync: Cond.Signal with nil lock")
	}
	spl := c.k.Splhigh()
	c.k.WakeOne(c.ch)
	c.k.Splx(spl)
}

// Broadcast wakes every thread sleeping on c. l is the paired monitor
// lock; it is not touched. Never blocks; safe in interrupt context.
func (c *Cond) Broadcast(l *Lock) {
	if l == nil {
		panic("ksync: Cond.Broadcast with nil lock")
	}
	spl := c.k.Splhigh()
	c.k.WakeAll(c.ch)
	c.k.Splx(spl)
}

// Destroy unregisters the cond.
// panic if any thread is sleeping in Wait.
func (c *Cond) Destroy() {
	spl := c.k.Splhigh()
	busy := c.k.HasWaiters(c.ch)
	c.k.Splx(spl)
	if busy {
		panic("ksync: Destroy of cond " + c.name + " with sleeping threads")
	}
	c.k.unregister(c.ch)
}
