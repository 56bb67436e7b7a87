// Package engine drives RPS hold'em games: the ante → preflop → flop →
// turn → river → showdown state machine, the simultaneous betting rounds
// and their resolution, and the scheduling of timeouts and hand
// transitions.
//
// Every transition for a game runs under that game's lock — the
// single-writer-per-game discipline. Timer-fired and all-acted resolution
// race; the loser detects the round is no longer active and becomes a
// no-op.
package engine

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/rpsholdem/server/internal/randutil"
	"github.com/rpsholdem/server/internal/scheduler"
	"github.com/rpsholdem/server/internal/stats"
	"github.com/rpsholdem/server/internal/store"
)

// Config carries the table parameters and transition delays.
type Config struct {
	StartingBalance   int
	DefaultAnte       int
	DefaultMaxPlayers int
	// RoundTimeout bounds the wait for simultaneous actions.
	RoundTimeout time.Duration
	// NextHandDelay leaves the result on display before the next hand.
	NextHandDelay time.Duration
	// StartDelay runs from the second player joining to the first deal.
	StartDelay time.Duration
}

// DefaultConfig returns the standard table parameters.
func DefaultConfig() Config {
	return Config{
		StartingBalance:   1000,
		DefaultAnte:       10,
		DefaultMaxPlayers: 8,
		RoundTimeout:      30 * time.Second,
		NextHandDelay:     20 * time.Second,
		StartDelay:        10 * time.Second,
	}
}

// Engine owns all game state transitions. External collaborators — the
// store, the scheduler and the stats collector — are injected.
type Engine struct {
	store  store.Store
	sched  *scheduler.Scheduler
	stats  stats.Collector
	clock  quartz.Clock
	logger zerolog.Logger
	cfg    Config

	rngMu sync.Mutex
	rng   *rand.Rand

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand overrides the deck-shuffling source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// New creates an engine over the given collaborators.
func New(st store.Store, sched *scheduler.Scheduler, collector stats.Collector, clock quartz.Clock, logger zerolog.Logger, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		sched:  sched,
		stats:  collector,
		clock:  clock,
		logger: logger.With().Str("component", "engine").Logger(),
		cfg:    cfg,
		rng:    randutil.New(time.Now().UnixNano()),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// gameLock returns the lock serializing all transitions for one game.
func (e *Engine) gameLock(gameID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	return l
}

// handRand derives an independent source for one hand's shuffle, so
// concurrent games never contend on the shared rng.
func (e *Engine) handRand() *rand.Rand {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return randutil.New(e.rng.Int64())
}
