package mines

import (
	"fmt"
	"iter"
	"strings"
)

// MaxCellCount bounds the board area so a board always fits in memory.
const MaxCellCount = 1 << 16

type GameParams struct {
	Width, Height, MineCount int
}

func (p GameParams) Unpack() (w int, h int, mc int) {
	return p.Width, p.Height, p.MineCount
}

// Seed encodes the params as "width:height:mines".
func (p GameParams) Seed() string {
	return fmt.Sprintf("%d:%d:%d", p.Width, p.Height, p.MineCount)
}

func ParseSeed(seed string) (*GameParams, error) {
	p := &GameParams{}
	sseed := strings.ReplaceAll(seed, ":", " ")
	n, err := fmt.Sscanf(sseed, "%d %d %d", &p.Width, &p.Height, &p.MineCount)
	if n != 3 || err != nil {
		return nil, fmt.Errorf(
			`invalid game params seed (sseed = "%s", n = %d, err = %w)`,
			sseed, n, err,
		)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p GameParams) PointInBounds(x, y int) bool {
	return 0 <= x && x < p.Width && 0 <= y && y < p.Height
}

func (p GameParams) CellCount() int {
	return p.Width * p.Height
}

// SafeCount is the number of cells that must be opened to win.
func (p GameParams) SafeCount() int {
	return p.Width*p.Height - p.MineCount
}

// maxStartZone is the size of the largest area a first click can keep clear
// of mines: the click itself and its 8 neighbors, clipped by the board.
func (p GameParams) maxStartZone() int {
	return min(p.Width, 3) * min(p.Height, 3)
}

func (p GameParams) Validate() error {
	switch {
	case p.Width <= 0:
		return &ConfigError{p, "width must be positive"}
	case p.Height <= 0:
		return &ConfigError{p, "height must be positive"}
	case p.Width > MaxCellCount/p.Height:
		return &ConfigError{p, fmt.Sprintf("board must have at most %d cells", MaxCellCount)}
	case p.MineCount < 0:
		return &ConfigError{p, "mine count must not be negative"}
	case p.MineCount > p.CellCount()-p.maxStartZone():
		return &ConfigError{p, fmt.Sprintf(
			"at most %d mines fit outside the starting area",
			p.CellCount()-p.maxStartZone(),
		)}
	}
	return nil
}

// neighbors yields the indices of the in-bounds cells around cell i,
// diagonals included, i itself excluded.
func (p GameParams) neighbors(i int) iter.Seq[int] {
	return func(yield func(int) bool) {
		x, y := i%p.Width, i/p.Width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if !p.PointInBounds(x+dx, y+dy) {
					continue
				}
				if !yield((y+dy)*p.Width + (x + dx)) {
					return
				}
			}
		}
	}
}
