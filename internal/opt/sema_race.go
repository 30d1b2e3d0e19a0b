//go:build race

package opt

import (
	"sync"
)

// Sema under the race detector avoids the runtime linkname, whose
// acquire/release edge the detector cannot see, and parks on a sync.Cond
// instead. Slower, but every wake carries a visible happens-before edge.
// Still zero-value usable.
type Sema struct {
	mu     sync.Mutex
	cond   *sync.Cond
	counts int
}

func (s *Sema) Acquire() {
	s.mu.Lock()
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	for s.counts == 0 {
		s.cond.Wait()
	}
	s.counts--
	s.mu.Unlock()
}

func (s *Sema) Release() {
	s.mu.Lock()
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	s.counts++
	s.cond.Signal()
	s.mu.Unlock()
}
