package ksync

// Semaphore is a counting semaphore: a named counter of permits, never
// negative, whose Acquire sleeps while the count is zero.
//
// Unlike channel- or runtime-backed semaphores, every state transition
// runs inside the kernel's interrupt gate, so the primitive is safe
// against interrupt handlers on the same core: Release never blocks and
// may be called from one, Acquire may not.
type Semaphore struct {
	_    noCopy
	k    *Kernel
	name string
	ch   WaitChannel

	// count is the number of permits immediately available, >= 0 always.
	// Guarded by the kernel gate.
	count int
}

// NewSemaphore returns a semaphore named name holding count permits.
// panic if count is negative.
func NewSemaphore(k *Kernel, name string, count int) *Semaphore {
	if count < 0 {
		panic("ksync: negative initial semaphore count")
	}
	s := &Semaphore{k: k, name: name, ch: k.NewWaitChannel(), count: count}
	k.register(s.ch, name, KindSemaphore)
	return s
}

// Name returns the diagnostic label given at creation.
func (s *Semaphore) Name() string { return s.name }

// Acquire takes one permit (the classic P), sleeping while none are
// available. Must not be called from interrupt context; that is checked
// even when a permit is free and no sleep would happen.
//
// A wake is only a hint that the count may have changed: the count is
// rechecked after every wake, so extra wakeups cost a loop iteration, not
// correctness.
func (s *Semaphore) Acquire() {
	s.k.mayBlock("Semaphore.Acquire")
	spl := s.k.Splhigh()
	for s.count == 0 {
		s.k.SleepOn(s.ch)
	}
	s.count--
	s.k.Splx(spl)
}

// TryAcquire takes one permit if one is immediately available.
// Returns true on success. Never sleeps; safe in interrupt context.
func (s *Semaphore) TryAcquire() bool {
	spl := s.k.Splhigh()
	ok := s.count > 0
	if ok {
		s.count--
	}
	s.k.Splx(spl)
	return ok
}

// Release returns one permit (the classic V) and wakes one sleeping
// acquirer, if any. Never blocks; safe in interrupt context.
// The count is bumped before the wake, so the woken thread's recheck
// always finds the permit.
func (s *Semaphore) Release() {
	spl := s.k.Splhigh()
	s.count++
	s.k.WakeOne(s.ch)
	s.k.Splx(spl)
}

// Count returns a snapshot of the available permits.
func (s *Semaphore) Count() int {
	spl := s.k.Splhigh()
	n := s.count
	s.k.Splx(spl)
	return n
}

// Destroy unregisters the semaphore.
// panic if a thread is still sleeping in Acquire. A thread that starts
// sleeping just after the check is the caller's bug, not a detected one:
// destruction and any future Acquire are mutually exclusive by
// convention, not by locking.
func (s *Semaphore) Destroy() {
	spl := s.k.Splhigh()
	busy := s.k.HasWaiters(s.ch)
	s.k.Splx(spl)
	if busy {
		panic("ksync: Destroy of semaphore " + s.name + " with sleeping threads")
	}
	s.k.unregister(s.ch)
}
