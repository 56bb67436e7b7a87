package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpsholdem/server/internal/deck"
	"github.com/rpsholdem/server/internal/evaluator"
)

func holding(t *testing.T, id string, position int, cards string) *Player {
	t.Helper()
	parsed, err := deck.ParseCards(cards)
	require.NoError(t, err)
	return &Player{
		ID:        id,
		Name:      id,
		Position:  position,
		Status:    PlayerActive,
		HoleCards: parsed,
	}
}

func board(t *testing.T, cards string) []deck.Card {
	t.Helper()
	parsed, err := deck.ParseCards(cards)
	require.NoError(t, err)
	return parsed
}

func TestShowdownSingleWinner(t *testing.T) {
	t.Parallel()
	community := board(t, "Ks Kh 7d 4c 2s")
	players := []*Player{
		holding(t, "alice", 0, "Kd 9h"), // trips kings
		holding(t, "bob", 1, "Ah Qd"),   // pair of kings, ace kicker
	}

	s, err := Showdown(120, players, community)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, s.Winners)
	assert.Equal(t, 120, s.Payouts["alice"])
	assert.Equal(t, evaluator.ThreeOfAKind, s.Best.Class)
	assert.Equal(t, "alice wins 120 with Three of a Kind", s.Summary)
}

func TestShowdownThreeWaySplitRemainder(t *testing.T) {
	t.Parallel()
	// Everyone plays the board: a king-high straight.
	community := board(t, "9s Td Jh Qc Kd")
	players := []*Player{
		holding(t, "charlie", 2, "2h 3d"),
		holding(t, "alice", 0, "2s 3c"),
		holding(t, "bob", 1, "2d 3h"),
	}

	s, err := Showdown(100, players, community)
	require.NoError(t, err)

	require.Equal(t, []string{"alice", "bob", "charlie"}, s.Winners,
		"winner set is ordered by seat position")
	assert.Equal(t, 34, s.Payouts["alice"], "remainder goes to the lowest seat")
	assert.Equal(t, 33, s.Payouts["bob"])
	assert.Equal(t, 33, s.Payouts["charlie"])

	total := 0
	for _, v := range s.Payouts {
		total += v
	}
	assert.Equal(t, 100, total)
	assert.Contains(t, s.Summary, "split 100 with Straight")
}

func TestShowdownKickerDecides(t *testing.T) {
	t.Parallel()
	community := board(t, "As 8d 6c 4h 2s")
	players := []*Player{
		holding(t, "alice", 0, "Ad Kh"),
		holding(t, "bob", 1, "Ac Qh"),
	}

	s, err := Showdown(50, players, community)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, s.Winners)
	assert.Equal(t, evaluator.Pair, s.Best.Class)
}

func TestShowdownNoContenders(t *testing.T) {
	t.Parallel()
	_, err := Showdown(10, nil, board(t, "As Ks Qs Js Ts"))
	assert.Error(t, err)
}
