package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type CellState int8

const (
	Unknown          CellState = -2
	Flagged          CellState = -1
	CorrectlyFlagged CellState = 64
	ExplodedMine     CellState = 65
	FalselyFlagged   CellState = 66
	UnflaggedMine    CellState = 67
	/*
	 * Each item in a player grid is one of the following values:
	 *
	 * 	- 0 to 8 mean the cell is open and has a surrounding mine
	 * 	  count.
	 *
	 * 	- -1 means the cell is flagged.
	 *
	 * 	- -2 means the cell is closed.
	 *
	 * 	- 64 to 67 only appear once the game is over.
	 */
)

func (s CellState) String() string {
	switch {
	case s == Unknown:
		return " "
	case s == Flagged:
		return "*"
	case 0 <= s && s <= 8:
		return strconv.Itoa(int(s))
	case s == CorrectlyFlagged:
		return "+"
	case s == FalselyFlagged:
		return "x"
	case s == UnflaggedMine:
		return "#"
	default:
		return "!"
	}
}

// Grid is what a player is allowed to see, one [CellState] per cell.
type Grid []CellState

func (g Grid) ToString(width int) string {
	var b strings.Builder
	for y := range len(g) / width {
		for x := range width {
			i := y*width + x
			if i >= len(g) {
				break
			}
			fmt.Fprint(&b, g[i].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}

// PlayerGrid hides mine positions while the game is in progress and marks
// flags right or wrong once it is over.
func (g *Game) PlayerGrid() Grid {
	var (
		over = g.Over()
		grid = make(Grid, len(g.cells))
	)
	for i, c := range g.cells {
		switch {
		case i == g.exploded:
			grid[i] = ExplodedMine
		case over && c.flagged && c.mine:
			grid[i] = CorrectlyFlagged
		case over && c.flagged:
			grid[i] = FalselyFlagged
		case c.flagged:
			grid[i] = Flagged
		case over && c.mine:
			grid[i] = UnflaggedMine
		case c.open:
			grid[i] = CellState(c.mineCount)
		default:
			grid[i] = Unknown
		}
	}
	return grid
}
