package ksync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitChannel_Unique(t *testing.T) {
	k := NewKernel()
	seen := make(map[WaitChannel]bool)
	for range 100 {
		ch := k.NewWaitChannel()
		if seen[ch] {
			t.Fatalf("channel %d allocated twice", ch)
		}
		seen[ch] = true
	}
}

func TestSleepOn_RequiresGate(t *testing.T) {
	k := NewKernel()
	ch := k.NewWaitChannel()
	mustPanic(t, "SleepOn without Splhigh", func() { k.SleepOn(ch) })
	mustPanic(t, "WakeOne without Splhigh", func() { k.WakeOne(ch) })
	mustPanic(t, "WakeAll without Splhigh", func() { k.WakeAll(ch) })
	mustPanic(t, "HasWaiters without Splhigh", func() { _ = k.HasWaiters(ch) })
}

func TestWakeOne_WakesExactlyOne(t *testing.T) {
	k := NewKernel()
	ch := k.NewWaitChannel()

	var woken atomic.Int32
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			spl := k.Splhigh()
			k.SleepOn(ch)
			k.Splx(spl)
			woken.Add(1)
		}()
	}

	// Let all three queue up.
	time.Sleep(50 * time.Millisecond)

	spl := k.Splhigh()
	if !k.HasWaiters(ch) {
		t.Fatal("no waiters queued")
	}
	k.WakeOne(ch)
	k.Splx(spl)

	time.Sleep(50 * time.Millisecond)
	if n := woken.Load(); n != 1 {
		t.Fatalf("WakeOne woke %d threads, want 1", n)
	}

	spl = k.Splhigh()
	k.WakeAll(ch)
	k.Splx(spl)
	wg.Wait()

	if n := woken.Load(); n != 3 {
		t.Fatalf("woke %d threads total, want 3", n)
	}
	spl = k.Splhigh()
	if k.HasWaiters(ch) {
		t.Fatal("waiters remain after WakeAll")
	}
	k.Splx(spl)
}

func TestWake_NoWaitersIsNoop(t *testing.T) {
	k := NewKernel()
	ch := k.NewWaitChannel()
	spl := k.Splhigh()
	k.WakeOne(ch)
	k.WakeAll(ch)
	if k.HasWaiters(ch) {
		t.Fatal("phantom waiter")
	}
	k.Splx(spl)
}

func TestSleepOn_ChannelsAreIndependent(t *testing.T) {
	k := NewKernel()
	a := k.NewWaitChannel()
	b := k.NewWaitChannel()

	awake := make(chan struct{})
	go func() {
		spl := k.Splhigh()
		k.SleepOn(a)
		k.Splx(spl)
		close(awake)
	}()

	time.Sleep(50 * time.Millisecond)

	// A wake on b must not disturb the sleeper on a.
	spl := k.Splhigh()
	k.WakeAll(b)
	k.Splx(spl)

	select {
	case <-awake:
		t.Fatal("wake on channel b woke a sleeper on channel a")
	case <-time.After(50 * time.Millisecond):
		// OK
	}

	spl = k.Splhigh()
	k.WakeOne(a)
	k.Splx(spl)
	select {
	case <-awake:
		// OK
	case <-time.After(time.Second):
		t.Fatal("sleeper on a never woke")
	}
}

// A wake issued between a sleeper's condition check and its enqueue must
// not be lost. The waker spins on HasWaiters inside the gate, so the only
// way the sleeper proceeds is the wake actually landing.
func TestSleepOn_NoLostWakeup(t *testing.T) {
	k := NewKernel()
	ch := k.NewWaitChannel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			spl := k.Splhigh()
			k.SleepOn(ch)
			k.Splx(spl)
		}
	}()

	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			spl := k.Splhigh()
			if k.HasWaiters(ch) {
				k.WakeOne(ch)
			}
			k.Splx(spl)
		}
	}()

	select {
	case <-done:
		// OK
	case <-time.After(10 * time.Second):
		t.Fatal("a wakeup was lost")
	}
}
