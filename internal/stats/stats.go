// Package stats is the session/leaderboard collaborator. The engine fires
// one event per profit-changing moment and never reads the state back.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Event describes one profit-changing moment: a table buy-in (negative), a
// hand win (positive pot share) or a game finishing (final balance).
type Event struct {
	PlayerName   string
	ProfitChange int
	GameFinished bool
	HandWon      bool
}

// Collector receives profit events from the engine.
type Collector interface {
	Record(e Event)
}

// Null discards every event; zero overhead when standings are not wanted.
type Null struct{}

// Record does nothing
func (Null) Record(Event) {}

// Standing is one player's accumulated session totals.
type Standing struct {
	PlayerName  string    `json:"playerName"`
	TotalProfit int       `json:"totalProfit"`
	GamesPlayed int       `json:"gamesPlayed"`
	HandsWon    int       `json:"handsWon"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Session accumulates standings in memory, keyed by player name so the
// same name carries its totals across games.
type Session struct {
	clock quartz.Clock

	mu        sync.RWMutex
	standings map[string]*Standing
}

// NewSession creates an empty session collector.
func NewSession(clock quartz.Clock) *Session {
	return &Session{
		clock:     clock,
		standings: make(map[string]*Standing),
	}
}

// Record folds one event into the player's totals.
func (s *Session) Record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.standings[e.PlayerName]
	if !ok {
		st = &Standing{PlayerName: e.PlayerName}
		s.standings[e.PlayerName] = st
	}

	st.TotalProfit += e.ProfitChange
	if e.GameFinished {
		st.GamesPlayed++
	}
	if e.HandWon {
		st.HandsWon++
	}
	st.LastSeen = s.clock.Now()
}

// Standings returns all players sorted by total profit, best first.
func (s *Session) Standings() []Standing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Standing, 0, len(s.standings))
	for _, st := range s.standings {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalProfit != out[j].TotalProfit {
			return out[i].TotalProfit > out[j].TotalProfit
		}
		return out[i].PlayerName < out[j].PlayerName
	})
	return out
}

// Reset clears all standings.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standings = make(map[string]*Standing)
}
