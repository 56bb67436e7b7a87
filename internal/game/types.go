// Package game holds the domain records of an RPS hold'em table and the
// pure resolution logic that operates on them. Everything stateful —
// storage, timers, locking — lives in the engine; this package only
// computes.
package game

import (
	"fmt"
	"time"

	"github.com/rpsholdem/server/internal/deck"
)

// Status is the lifecycle state of a game
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

func (s Status) String() string {
	return [...]string{"waiting", "playing", "finished"}[s]
}

// Phase is the current phase of a hand
type Phase int

const (
	PhaseAnte Phase = iota
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

func (p Phase) String() string {
	return [...]string{"ante", "preflop", "flop", "turn", "river", "showdown"}[p]
}

// Next returns the phase that follows p within a hand. Showdown has no
// successor; the engine rolls over to the next hand instead.
func (p Phase) Next() (Phase, bool) {
	if p >= PhaseShowdown {
		return p, false
	}
	return p + 1, true
}

// HasBettingRound reports whether a betting round runs during this phase.
func (p Phase) HasBettingRound() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// VisibleCards returns how many community cards are exposed during p. The
// full board is dealt up front; viewers only ever see this prefix.
func (p Phase) VisibleCards() int {
	switch p {
	case PhaseFlop:
		return 3
	case PhaseTurn:
		return 4
	case PhaseRiver, PhaseShowdown:
		return 5
	default:
		return 0
	}
}

// PlayerStatus is a player's state within the game
type PlayerStatus int

const (
	// PlayerActive players hold cards and act in betting rounds.
	PlayerActive PlayerStatus = iota
	// PlayerFolded players are out of the current hand only.
	PlayerFolded
	// PlayerOut players can no longer post the ante; terminal for the game.
	PlayerOut
)

func (s PlayerStatus) String() string {
	return [...]string{"active", "folded", "out"}[s]
}

// RoundStatus is the lifecycle state of a betting round
type RoundStatus int

const (
	RoundActive RoundStatus = iota
	RoundCompleted
)

func (s RoundStatus) String() string {
	return [...]string{"active", "completed"}[s]
}

// Symbol is an RPS betting symbol. The three symbols encode raise, fold and
// call so that all players can act simultaneously without turn order.
type Symbol int

const (
	// Rock raises by the round's bet amount.
	Rock Symbol = iota
	// Paper folds against any raise, checks otherwise.
	Paper
	// Scissors calls every raise, checks if there are none.
	Scissors
)

func (s Symbol) String() string {
	return [...]string{"rock", "paper", "scissors"}[s]
}

// ParseSymbol parses a symbol from its wire representation.
func ParseSymbol(s string) (Symbol, error) {
	switch s {
	case "rock":
		return Rock, nil
	case "paper":
		return Paper, nil
	case "scissors":
		return Scissors, nil
	default:
		return 0, fmt.Errorf("unknown action symbol %q", s)
	}
}

// Game is the table-level record, owned exclusively by the engine.
type Game struct {
	ID             string
	Status         Status
	CurrentPhase   Phase
	Pot            int
	CommunityCards []deck.Card
	AnteAmount     int
	MaxPlayers     int
	HandNumber     int
	LastHandWinner string
}

// VisibleCommunity returns the prefix of the board exposed in the current
// phase.
func (g *Game) VisibleCommunity() []deck.Card {
	n := g.CurrentPhase.VisibleCards()
	if n > len(g.CommunityCards) {
		n = len(g.CommunityCards)
	}
	return g.CommunityCards[:n]
}

// Clone returns a deep copy of the game record.
func (g *Game) Clone() *Game {
	out := *g
	out.CommunityCards = append([]deck.Card(nil), g.CommunityCards...)
	return &out
}

// Player is a seat at a game.
type Player struct {
	ID        string
	GameID    string
	Name      string
	Balance   int
	Position  int
	HoleCards []deck.Card
	Status    PlayerStatus
	LastSeen  time.Time
}

// InHand reports whether the player still holds cards this hand.
func (p *Player) InHand() bool {
	return p.Status == PlayerActive || p.Status == PlayerFolded
}

// Clone returns a deep copy of the player record.
func (p *Player) Clone() *Player {
	out := *p
	out.HoleCards = append([]deck.Card(nil), p.HoleCards...)
	return &out
}

// BettingRound is one simultaneous-action round within a phase. Completed
// rounds are immutable history.
type BettingRound struct {
	ID        string
	GameID    string
	Phase     Phase
	BetAmount int
	Status    RoundStatus
	StartTime time.Time
}

// Clone returns a copy of the round record.
func (r *BettingRound) Clone() *BettingRound {
	out := *r
	return &out
}

// PlayerAction is one player's committed symbol for one round.
type PlayerAction struct {
	ID        string
	RoundID   string
	PlayerID  string
	Symbol    Symbol
	Timestamp time.Time
}

// Clone returns a copy of the action record.
func (a *PlayerAction) Clone() *PlayerAction {
	out := *a
	return &out
}
