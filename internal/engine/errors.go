package engine

import "errors"

// Validation errors surfaced to the caller of a single command. They never
// corrupt shared state: the rejected command is simply not applied.
var (
	ErrGameNotFound    = errors.New("game not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrGameStarted     = errors.New("game already started")
	ErrGameFull        = errors.New("game is full")
	ErrNameTaken       = errors.New("name already taken")
	ErrNoActiveRound   = errors.New("no active betting round")
	ErrDuplicateAction = errors.New("player already acted in this round")
	ErrPlayerNotActive = errors.New("player is not active in this hand")
)
