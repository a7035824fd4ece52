package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vancomm/raysweep/internal/mines"
)

// Expert is the board served when nothing else is configured.
var Expert = mines.GameParams{Width: 30, Height: 16, MineCount: 99}

func lookupInt(name string, fallback int) (int, error) {
	s, ok := os.LookupEnv(name)
	if !ok || s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}

// NewBoard reads the board every game is played on from BOARD
// ("width:height:mines") or from BOARD_WIDTH, BOARD_HEIGHT and BOARD_MINES.
// It is fixed for the lifetime of the process.
func NewBoard() (*mines.GameParams, error) {
	if seed, ok := os.LookupEnv("BOARD"); ok && seed != "" {
		return mines.ParseSeed(seed)
	}

	var (
		params = Expert
		err    error
	)
	if params.Width, err = lookupInt("BOARD_WIDTH", params.Width); err != nil {
		return nil, err
	}
	if params.Height, err = lookupInt("BOARD_HEIGHT", params.Height); err != nil {
		return nil, err
	}
	if params.MineCount, err = lookupInt("BOARD_MINES", params.MineCount); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}
