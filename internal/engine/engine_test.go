package engine

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpsholdem/server/internal/game"
	"github.com/rpsholdem/server/internal/randutil"
	"github.com/rpsholdem/server/internal/scheduler"
	"github.com/rpsholdem/server/internal/stats"
	"github.com/rpsholdem/server/internal/store"
)

type fixture struct {
	engine *Engine
	store  *store.Memory
	clock  *quartz.Mock
	stats  *stats.Session
	ctx    context.Context
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	clock := quartz.NewMock(t)
	logger := zerolog.Nop()
	session := stats.NewSession(clock)
	st := store.NewMemory()
	e := New(st, scheduler.New(clock, logger), session, clock, logger, cfg,
		WithRand(randutil.New(42)))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return &fixture{engine: e, store: st, clock: clock, stats: session, ctx: ctx}
}

// seatThree creates a table with the given ante and seats Alice, Bob and
// Charlie, then advances past the start delay so the first hand is dealt.
func seatThree(t *testing.T, f *fixture, ante int) (alice, bob, charlie *JoinedGame) {
	t.Helper()
	var err error
	alice, err = f.engine.CreateGame("alice", ante, 0)
	require.NoError(t, err)
	bob, err = f.engine.JoinGame(alice.GameID, "bob")
	require.NoError(t, err)
	charlie, err = f.engine.JoinGame(alice.GameID, "charlie")
	require.NoError(t, err)
	f.clock.Advance(f.engine.cfg.StartDelay).MustWait(f.ctx)
	return alice, bob, charlie
}

func TestFullBettingRound(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())
	alice, bob, charlie := seatThree(t, f, 20)

	g, err := f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, g.Status)
	assert.Equal(t, game.PhasePreflop, g.CurrentPhase)
	assert.Equal(t, 60, g.Pot)
	assert.Equal(t, 1, g.HandNumber)

	round, err := f.engine.CurrentRound(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, "preflop", round.Phase)
	assert.Equal(t, 30, round.BetAmount)

	require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Rock))
	require.NoError(t, f.engine.SubmitAction(bob.PlayerID, game.Scissors))
	require.NoError(t, f.engine.SubmitAction(charlie.PlayerID, game.Paper))

	// Third action resolves the round without waiting for the timer.
	g, err = f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseFlop, g.CurrentPhase)
	assert.Equal(t, 120, g.Pot)

	players := playersByName(t, f, alice.GameID)
	assert.Equal(t, 950, players["alice"].Balance)
	assert.Equal(t, 950, players["bob"].Balance)
	assert.Equal(t, 980, players["charlie"].Balance)
	assert.Equal(t, game.PlayerFolded, players["charlie"].Status)

	round, err = f.engine.CurrentRound(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, "flop", round.Phase)
	assert.Equal(t, 60, round.BetAmount)
	assert.Empty(t, round.Actions)
}

func TestResolvedRoundIgnoresLateTimer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())
	alice, bob, charlie := seatThree(t, f, 20)

	require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Rock))
	require.NoError(t, f.engine.SubmitAction(bob.PlayerID, game.Scissors))
	require.NoError(t, f.engine.SubmitAction(charlie.PlayerID, game.Paper))

	before := playersByName(t, f, alice.GameID)

	// The preflop timer is still pending. Firing it alongside the flop
	// timeout must not settle the preflop round a second time; the flop
	// round itself times out with every symbol defaulting to paper, so
	// nothing is owed and nobody folds.
	f.clock.Advance(f.engine.cfg.RoundTimeout).MustWait(f.ctx)

	after := playersByName(t, f, alice.GameID)
	assert.Equal(t, before["alice"].Balance, after["alice"].Balance)
	assert.Equal(t, before["bob"].Balance, after["bob"].Balance)
	assert.Equal(t, game.PlayerActive, after["alice"].Status)
	assert.Equal(t, game.PlayerActive, after["bob"].Status)

	g, err := f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseTurn, g.CurrentPhase)
	assert.Equal(t, 120, g.Pot)
}

func TestTimeoutDefaultsToPaper(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())

	alice, err := f.engine.CreateGame("alice", 20, 0)
	require.NoError(t, err)
	_, err = f.engine.JoinGame(alice.GameID, "bob")
	require.NoError(t, err)
	f.clock.Advance(f.engine.cfg.StartDelay).MustWait(f.ctx)

	require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Rock))

	// Bob never acts. On timeout his symbol defaults to paper, which
	// folds against Alice's raise and hands her the whole pot.
	f.clock.Advance(f.engine.cfg.RoundTimeout).MustWait(f.ctx)

	players := playersByName(t, f, alice.GameID)
	assert.Equal(t, 1020, players["alice"].Balance)
	assert.Equal(t, 980, players["bob"].Balance)
	assert.Equal(t, game.PlayerFolded, players["bob"].Status)

	g, err := f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Pot)
	assert.Equal(t, "alice wins 60, all others folded", g.LastHandWinner)

	// The next hand deals after the display delay.
	f.clock.Advance(f.engine.cfg.NextHandDelay).MustWait(f.ctx)
	g, err = f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.HandNumber)
	assert.Equal(t, game.PhasePreflop, g.CurrentPhase)
	assert.Equal(t, 40, g.Pot)

	players = playersByName(t, f, alice.GameID)
	assert.Equal(t, 1000, players["alice"].Balance)
	assert.Equal(t, 960, players["bob"].Balance)
	assert.Equal(t, game.PlayerActive, players["bob"].Status)
}

func TestCheckedDownToShowdown(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())

	alice, err := f.engine.CreateGame("alice", 0, 0)
	require.NoError(t, err)
	bob, err := f.engine.JoinGame(alice.GameID, "bob")
	require.NoError(t, err)
	f.clock.Advance(f.engine.cfg.StartDelay).MustWait(f.ctx)

	// With no rocks, paper checks on every street.
	for _, phase := range []game.Phase{game.PhasePreflop, game.PhaseFlop, game.PhaseTurn, game.PhaseRiver} {
		g, err := f.store.GetGame(alice.GameID)
		require.NoError(t, err)
		require.Equal(t, phase, g.CurrentPhase)
		require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Paper))
		require.NoError(t, f.engine.SubmitAction(bob.PlayerID, game.Paper))
	}

	g, err := f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseShowdown, g.CurrentPhase)
	assert.Equal(t, 0, g.Pot)
	assert.NotEmpty(t, g.LastHandWinner)

	// The antes went to somebody; chips are conserved.
	players := playersByName(t, f, alice.GameID)
	assert.Equal(t, 2000, players["alice"].Balance+players["bob"].Balance)

	// At showdown a spectator sees every remaining hand.
	view, err := f.engine.GameState(alice.GameID, "")
	require.NoError(t, err)
	for _, pv := range view.Players {
		assert.Len(t, pv.HoleCards, 2)
	}
	assert.Len(t, view.CommunityCards, 5)
}

func TestHoleCardVisibility(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())
	alice, bob, _ := seatThree(t, f, 20)

	view, err := f.engine.GameState(alice.GameID, alice.PlayerID)
	require.NoError(t, err)
	assert.Empty(t, view.CommunityCards, "no community cards visible preflop")
	for _, pv := range view.Players {
		if pv.ID == alice.PlayerID {
			assert.Len(t, pv.HoleCards, 2)
		} else {
			assert.Empty(t, pv.HoleCards)
		}
	}

	view, err = f.engine.GameState(alice.GameID, bob.PlayerID)
	require.NoError(t, err)
	for _, pv := range view.Players {
		if pv.ID == bob.PlayerID {
			assert.Len(t, pv.HoleCards, 2)
		} else {
			assert.Empty(t, pv.HoleCards)
		}
	}
}

func TestCommunityCardsRevealByPhase(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())
	alice, bob, charlie := seatThree(t, f, 20)

	submitAll := func() {
		require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Scissors))
		require.NoError(t, f.engine.SubmitAction(bob.PlayerID, game.Scissors))
		require.NoError(t, f.engine.SubmitAction(charlie.PlayerID, game.Scissors))
	}

	view, err := f.engine.GameState(alice.GameID, "")
	require.NoError(t, err)
	assert.Empty(t, view.CommunityCards)

	for _, want := range []int{3, 4, 5} {
		submitAll()
		view, err = f.engine.GameState(alice.GameID, "")
		require.NoError(t, err)
		assert.Len(t, view.CommunityCards, want)
	}
}

func TestSubmitActionErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())
	alice, bob, charlie := seatThree(t, f, 20)

	require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Rock))
	assert.ErrorIs(t, f.engine.SubmitAction(alice.PlayerID, game.Paper), ErrDuplicateAction)
	assert.ErrorIs(t, f.engine.SubmitAction("nope", game.Rock), ErrPlayerNotFound)

	require.NoError(t, f.engine.SubmitAction(charlie.PlayerID, game.Paper))
	require.NoError(t, f.engine.SubmitAction(bob.PlayerID, game.Scissors))

	// Charlie folded against the raise; he cannot act on the flop.
	assert.ErrorIs(t, f.engine.SubmitAction(charlie.PlayerID, game.Rock), ErrPlayerNotActive)
}

func TestSubmitBeforeStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())

	alice, err := f.engine.CreateGame("alice", 0, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, f.engine.SubmitAction(alice.PlayerID, game.Rock), ErrNoActiveRound)
}

func TestJoinErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())

	_, err := f.engine.JoinGame("missing", "bob")
	assert.ErrorIs(t, err, ErrGameNotFound)

	alice, err := f.engine.CreateGame("alice", 0, 2)
	require.NoError(t, err)

	_, err = f.engine.JoinGame(alice.GameID, "alice")
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = f.engine.JoinGame(alice.GameID, "bob")
	require.NoError(t, err)
	_, err = f.engine.JoinGame(alice.GameID, "charlie")
	assert.ErrorIs(t, err, ErrGameFull)

	f.clock.Advance(f.engine.cfg.StartDelay).MustWait(f.ctx)
	_, err = f.engine.JoinGame(alice.GameID, "dave")
	assert.ErrorIs(t, err, ErrGameStarted)
}

func TestGameFinishesWhenShortHanded(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.StartingBalance = 30
	f := newFixture(t, cfg)

	alice, err := f.engine.CreateGame("alice", 20, 0)
	require.NoError(t, err)
	bob, err := f.engine.JoinGame(alice.GameID, "bob")
	require.NoError(t, err)
	f.clock.Advance(f.engine.cfg.StartDelay).MustWait(f.ctx)

	// Checking down the whole hand moves the 40-chip pot to a single
	// winner; the loser's 10 chips no longer cover the next ante.
	for range 4 {
		require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Paper))
		require.NoError(t, f.engine.SubmitAction(bob.PlayerID, game.Paper))
	}

	g, err := f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	require.Equal(t, game.PhaseShowdown, g.CurrentPhase)

	f.clock.Advance(f.engine.cfg.NextHandDelay).MustWait(f.ctx)

	g, err = f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, g.Status)

	standings := f.stats.Standings()
	require.Len(t, standings, 2)
	for _, s := range standings {
		assert.Equal(t, 1, s.GamesPlayed)
	}
	assert.Equal(t, 0, standings[0].TotalProfit+standings[1].TotalProfit,
		"chips conserved across buy-ins and cash-outs")
}

func TestAllInClampAndBust(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.StartingBalance = 35
	f := newFixture(t, cfg)

	alice, err := f.engine.CreateGame("alice", 20, 0)
	require.NoError(t, err)
	bob, err := f.engine.JoinGame(alice.GameID, "bob")
	require.NoError(t, err)
	f.clock.Advance(f.engine.cfg.StartDelay).MustWait(f.ctx)

	// Pot 40, bet 20, but each stack holds only 15: the raise and the
	// call are both clamped all-in and both players bust.
	require.NoError(t, f.engine.SubmitAction(alice.PlayerID, game.Rock))
	require.NoError(t, f.engine.SubmitAction(bob.PlayerID, game.Scissors))

	players := playersByName(t, f, alice.GameID)
	assert.Equal(t, 0, players["alice"].Balance)
	assert.Equal(t, 0, players["bob"].Balance)
	assert.Equal(t, game.PlayerOut, players["alice"].Status)
	assert.Equal(t, game.PlayerOut, players["bob"].Status)

	// Nobody is left to win; the game finishes on the next deal.
	f.clock.Advance(f.engine.cfg.NextHandDelay).MustWait(f.ctx)
	g, err := f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, g.Status)
}

func TestCreateGameDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultConfig())

	alice, err := f.engine.CreateGame("alice", 0, 0)
	require.NoError(t, err)

	g, err := f.store.GetGame(alice.GameID)
	require.NoError(t, err)
	assert.Equal(t, 10, g.AnteAmount)
	assert.Equal(t, 8, g.MaxPlayers)
	assert.Equal(t, game.StatusWaiting, g.Status)

	_, err = f.engine.CreateGame("", 0, 0)
	assert.Error(t, err)
}

func playersByName(t *testing.T, f *fixture, gameID string) map[string]*game.Player {
	t.Helper()
	players, err := f.store.PlayersByGame(gameID)
	require.NoError(t, err)
	out := make(map[string]*game.Player, len(players))
	for _, p := range players {
		out[p.Name] = p
	}
	return out
}
