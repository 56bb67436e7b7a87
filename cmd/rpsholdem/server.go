package main

import (
	"github.com/coder/quartz"

	"github.com/rpsholdem/server/cmd/rpsholdem/shared"
	"github.com/rpsholdem/server/internal/engine"
	"github.com/rpsholdem/server/internal/scheduler"
	"github.com/rpsholdem/server/internal/server"
	"github.com/rpsholdem/server/internal/stats"
	"github.com/rpsholdem/server/internal/store"
)

// ServerCmd runs the WebSocket game server.
type ServerCmd struct {
	Config string `kong:"default='rpsholdem.hcl',help='Path to HCL config file'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	JSON   bool   `kong:"help='Log JSON instead of console output'"`
}

func (c *ServerCmd) Run() error {
	var logger = shared.SetupLogger(c.Debug)
	if c.JSON {
		logger = shared.SetupStructuredLogger(c.Debug)
	}

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !c.Debug {
		logger = logger.Level(shared.ParseLevel(cfg.Server.LogLevel))
	}

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	clock := quartz.NewReal()
	session := stats.NewSession(clock)
	eng := engine.New(
		store.NewMemory(),
		scheduler.New(clock, logger),
		session,
		clock,
		logger,
		cfg.EngineConfig(),
	)
	s := server.New(addr, eng, session, logger)

	logger.Info().
		Str("address", addr).
		Int("ante", cfg.Game.AnteAmount).
		Int("max_players", cfg.Game.MaxPlayers).
		Int("starting_balance", cfg.Game.StartingBalance).
		Int("round_timeout_s", cfg.Game.RoundTimeoutSeconds).
		Msg("Starting RPS hold'em server")

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
		return s.Stop()
	case err := <-serverErr:
		return err
	}
}
