package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpsholdem/server/internal/game"
)

func TestGameCRUD(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	_, err := m.GetGame("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	g := &game.Game{ID: "g1", Status: game.StatusWaiting, AnteAmount: 10, MaxPlayers: 8}
	require.NoError(t, m.InsertGame(g))

	got, err := m.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, g, got)

	got.Pot = 60
	got.Status = game.StatusPlaying
	require.NoError(t, m.UpdateGame(got))

	again, err := m.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, 60, again.Pot)

	assert.ErrorIs(t, m.UpdateGame(&game.Game{ID: "nope"}), ErrNotFound)
}

func TestRecordsAreCopies(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	p := &game.Player{ID: "p1", GameID: "g1", Name: "alice", Balance: 1000}
	require.NoError(t, m.InsertPlayer(p))

	// Mutating the inserted or fetched record must not leak into the store.
	p.Balance = 0
	got, err := m.GetPlayer("p1")
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Balance)

	got.Balance = 5
	fresh, err := m.GetPlayer("p1")
	require.NoError(t, err)
	assert.Equal(t, 1000, fresh.Balance)
}

func TestPlayersByGameOrderedBySeat(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	require.NoError(t, m.InsertPlayer(&game.Player{ID: "c", GameID: "g1", Position: 2}))
	require.NoError(t, m.InsertPlayer(&game.Player{ID: "a", GameID: "g1", Position: 0}))
	require.NoError(t, m.InsertPlayer(&game.Player{ID: "b", GameID: "g1", Position: 1}))
	require.NoError(t, m.InsertPlayer(&game.Player{ID: "x", GameID: "other", Position: 0}))

	players, err := m.PlayersByGame("g1")
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{players[0].ID, players[1].ID, players[2].ID})
}

func TestSingleActiveRoundInvariant(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	require.NoError(t, m.InsertRound(&game.BettingRound{ID: "r1", GameID: "g1", Status: game.RoundActive}))

	err := m.InsertRound(&game.BettingRound{ID: "r2", GameID: "g1", Status: game.RoundActive})
	assert.ErrorIs(t, err, ErrActiveRoundExists)

	// Completing the first round unblocks the next one.
	r, err := m.GetRound("r1")
	require.NoError(t, err)
	r.Status = game.RoundCompleted
	require.NoError(t, m.UpdateRound(r))

	require.NoError(t, m.InsertRound(&game.BettingRound{ID: "r2", GameID: "g1", Status: game.RoundActive}))

	active, err := m.ActiveRoundByGame("g1")
	require.NoError(t, err)
	assert.Equal(t, "r2", active.ID)
}

func TestActiveRoundByGameNotFound(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	_, err := m.ActiveRoundByGame("g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateActionRejected(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	require.NoError(t, m.InsertAction(&game.PlayerAction{ID: "a1", RoundID: "r1", PlayerID: "p1", Symbol: game.Rock}))

	err := m.InsertAction(&game.PlayerAction{ID: "a2", RoundID: "r1", PlayerID: "p1", Symbol: game.Paper})
	assert.ErrorIs(t, err, ErrDuplicateAction)

	// The original action is untouched.
	got, err := m.ActionByPlayerRound("p1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, game.Rock, got.Symbol)

	// Same player, different round is fine.
	require.NoError(t, m.InsertAction(&game.PlayerAction{ID: "a3", RoundID: "r2", PlayerID: "p1", Symbol: game.Paper}))

	actions, err := m.ActionsByRound("r1")
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}
