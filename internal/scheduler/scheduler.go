// Package scheduler provides the durable-timer primitive the engine uses
// for round timeouts and delayed hand transitions. Delivery is
// at-least-once and possibly delayed, so every callback target must guard
// itself idempotently; the scheduler makes no exactly-once promise.
package scheduler

import (
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// Scheduler registers fire-and-forget callbacks against an injected clock.
// Tests drive it deterministically through a quartz mock.
type Scheduler struct {
	clock  quartz.Clock
	logger zerolog.Logger

	mu      sync.Mutex
	nextID  int64
	pending map[int64]*quartz.Timer
	stopped bool
}

// New creates a scheduler on the given clock.
func New(clock quartz.Clock, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		clock:   clock,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		pending: make(map[int64]*quartz.Timer),
	}
}

// After registers fn to run once d has elapsed. The name is only used for
// logging. Registration never blocks; a stopped scheduler drops the
// request.
func (s *Scheduler) After(d time.Duration, name string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Debug().Str("callback", name).Msg("scheduler stopped, dropping callback")
		return
	}

	s.nextID++
	id := s.nextID
	s.logger.Debug().Str("callback", name).Dur("delay", d).Msg("scheduling callback")

	s.pending[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()

		s.logger.Debug().Str("callback", name).Msg("firing callback")
		fn()
	})
}

// Pending returns the number of callbacks not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels all outstanding callbacks and refuses new registrations.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
	}
}
