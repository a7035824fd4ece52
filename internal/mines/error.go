package mines

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds  = errors.New("point out of bounds")
	ErrInvalidState = errors.New("move not allowed in current game state")
)

// ConfigError reports board params that cannot produce a playable game.
type ConfigError struct {
	Params GameParams
	Reason string
}

// [ConfigError] implements [error]
func (e *ConfigError) Error() string {
	w, h, mc := e.Params.Unpack()
	return fmt.Sprintf("invalid board %dx%d(%d): %s", w, h, mc, e.Reason)
}

// MoveError wraps [ErrOutOfBounds] or [ErrInvalidState] with the rejected move.
type MoveError struct {
	Op    string
	X, Y  int
	State State
	Err   error
}

func (e *MoveError) Error() string {
	if errors.Is(e.Err, ErrOutOfBounds) {
		return fmt.Sprintf("%s %d:%d: %v", e.Op, e.X, e.Y, e.Err)
	}
	return fmt.Sprintf("%s in state %s: %v", e.Op, e.State, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
