package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/rpsholdem/server/internal/engine"
)

// Config is the complete server configuration.
type Config struct {
	Server Settings     `hcl:"server,block"`
	Game   GameSettings `hcl:"game,block"`
}

// Settings contains server-level configuration.
type Settings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the table parameters and transition delays.
type GameSettings struct {
	AnteAmount           int `hcl:"ante,optional"`
	MaxPlayers           int `hcl:"max_players,optional"`
	StartingBalance      int `hcl:"starting_balance,optional"`
	RoundTimeoutSeconds  int `hcl:"round_timeout_seconds,optional"`
	NextHandDelaySeconds int `hcl:"next_hand_delay_seconds,optional"`
	StartDelaySeconds    int `hcl:"start_delay_seconds,optional"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	ec := engine.DefaultConfig()
	return &Config{
		Server: Settings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			AnteAmount:           ec.DefaultAnte,
			MaxPlayers:           ec.DefaultMaxPlayers,
			StartingBalance:      ec.StartingBalance,
			RoundTimeoutSeconds:  int(ec.RoundTimeout / time.Second),
			NextHandDelaySeconds: int(ec.NextHandDelay / time.Second),
			StartDelaySeconds:    int(ec.StartDelay / time.Second),
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.AnteAmount == 0 {
		config.Game.AnteAmount = defaults.Game.AnteAmount
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if config.Game.StartingBalance == 0 {
		config.Game.StartingBalance = defaults.Game.StartingBalance
	}
	if config.Game.RoundTimeoutSeconds == 0 {
		config.Game.RoundTimeoutSeconds = defaults.Game.RoundTimeoutSeconds
	}
	if config.Game.NextHandDelaySeconds == 0 {
		config.Game.NextHandDelaySeconds = defaults.Game.NextHandDelaySeconds
	}
	if config.Game.StartDelaySeconds == 0 {
		config.Game.StartDelaySeconds = defaults.Game.StartDelaySeconds
	}

	return &config, nil
}

// Validate validates the server configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.AnteAmount <= 0 {
		return fmt.Errorf("ante must be positive")
	}
	if c.Game.MaxPlayers < 2 {
		return fmt.Errorf("max players must be at least 2")
	}
	if c.Game.StartingBalance < c.Game.AnteAmount {
		return fmt.Errorf("starting balance %d cannot cover the ante %d",
			c.Game.StartingBalance, c.Game.AnteAmount)
	}
	if c.Game.RoundTimeoutSeconds <= 0 {
		return fmt.Errorf("round timeout must be positive")
	}
	return nil
}

// ListenAddress returns the full listen address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// EngineConfig translates the game settings into engine parameters.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		StartingBalance:   c.Game.StartingBalance,
		DefaultAnte:       c.Game.AnteAmount,
		DefaultMaxPlayers: c.Game.MaxPlayers,
		RoundTimeout:      time.Duration(c.Game.RoundTimeoutSeconds) * time.Second,
		NextHandDelay:     time.Duration(c.Game.NextHandDelaySeconds) * time.Second,
		StartDelay:        time.Duration(c.Game.StartDelaySeconds) * time.Second,
	}
}
