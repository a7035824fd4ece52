package mines

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

type State uint8

const (
	NotStarted State = iota
	Playing
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// Cell is a read-only view of one board position.
type Cell struct {
	open, flagged, mine  bool
	mineCount, flagCount int
}

func (c Cell) Open() bool { return c.open }
func (c Cell) Flagged() bool { return c.flagged }
func (c Cell) Mine() bool { return c.mine }
func (c Cell) MineCount() int { return c.mineCount }
func (c Cell) FlagCount() int { return c.flagCount }

// Game is a single board together with its state machine. A Game is not
// safe for concurrent use.
type Game struct {
	params    GameParams
	rnd       Rand
	clock     Clock
	state     State
	startTime time.Time
	endTime   time.Time
	openCount int
	flagCount int
	exploded  int
	cells     []Cell /* y*width + x */
}

// New validates params and returns a prepared game. A nil clock means
// [SystemClock].
func New(params GameParams, rnd Rand, clock Clock) (*Game, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		return nil, errors.New("mines: nil random source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	g := &Game{
		params: params,
		rnd:    rnd,
		clock:  clock,
		cells:  make([]Cell, params.CellCount()),
	}
	g.Prepare()
	return g, nil
}

// Prepare resets the game to NotStarted with an empty board. It is valid in
// any state.
func (g *Game) Prepare() {
	g.state = NotStarted
	g.startTime = time.Time{}
	g.endTime = time.Time{}
	g.openCount = 0
	g.flagCount = 0
	g.exploded = -1
	clear(g.cells)
}

// Start lays out the mines so that neither (x, y) nor any of its neighbors
// holds one, then opens (x, y).
func (g *Game) Start(x, y int) error {
	if err := g.check("start", x, y, NotStarted); err != nil {
		return err
	}

	g.state = Playing
	g.startTime = g.clock.Now()
	g.openCount = 0
	g.flagCount = 0
	g.generate(x, y)

	Log.WithFields(logrus.Fields{
		"params": g.params.Seed(),
		"x":      x,
		"y":      y,
	}).Debug("game started")

	g.reveal(x, y)
	return nil
}

// Reveal opens (x, y) as a direct player click. Zero-count cells open their
// neighbors recursively; a numbered cell whose flagged neighbors match its
// mine count opens its remaining neighbors, but only on the direct click.
func (g *Game) Reveal(x, y int) error {
	if err := g.check("reveal", x, y, Playing); err != nil {
		return err
	}
	g.reveal(x, y)
	return nil
}

// ToggleFlag flags or unflags a closed cell. Open cells are left as is.
func (g *Game) ToggleFlag(x, y int) error {
	if err := g.check("flag", x, y, Playing); err != nil {
		return err
	}

	i := y*g.params.Width + x
	c := &g.cells[i]
	if c.open {
		return nil
	}

	c.flagged = !c.flagged
	d := 1
	if !c.flagged {
		d = -1
	}
	g.flagCount += d
	for j := range g.params.neighbors(i) {
		g.cells[j].flagCount += d
	}
	return nil
}

// Forfeit ends a game in progress as lost.
func (g *Game) Forfeit() error {
	if g.state != Playing {
		return &MoveError{Op: "forfeit", State: g.state, Err: ErrInvalidState}
	}
	g.lose(-1)
	return nil
}

func (g *Game) check(op string, x, y int, want State) error {
	if !g.params.PointInBounds(x, y) {
		return &MoveError{Op: op, X: x, Y: y, State: g.state, Err: ErrOutOfBounds}
	}
	if g.state != want {
		return &MoveError{Op: op, X: x, Y: y, State: g.state, Err: ErrInvalidState}
	}
	return nil
}

// lose opens every cell. i is the mine that was hit, or -1.
func (g *Game) lose(i int) {
	g.state = Lost
	g.endTime = g.clock.Now()
	g.exploded = i
	for j := range g.cells {
		g.cells[j].open = true
	}

	Log.WithFields(logrus.Fields{
		"params":  g.params.Seed(),
		"opened":  g.openCount,
		"elapsed": g.Elapsed().String(),
	}).Debug("game lost")
}

func (g *Game) win() {
	g.state = Won
	g.endTime = g.clock.Now()

	Log.WithFields(logrus.Fields{
		"params":  g.params.Seed(),
		"flags":   g.flagCount,
		"elapsed": g.Elapsed().String(),
	}).Debug("game won")
}

func (g *Game) Params() GameParams { return g.params }
func (g *Game) State() State { return g.state }
func (g *Game) StartTime() time.Time { return g.startTime }
func (g *Game) EndTime() time.Time { return g.endTime }

// OpenCount is the number of safe cells opened by play. Cells exposed by a
// loss are not counted.
func (g *Game) OpenCount() int { return g.openCount }
func (g *Game) FlagCount() int { return g.flagCount }

func (g *Game) Over() bool {
	return g.state == Won || g.state == Lost
}

// Elapsed is the play time so far, or the total play time of a finished game.
func (g *Game) Elapsed() time.Duration {
	switch g.state {
	case Playing:
		return g.clock.Now().Sub(g.startTime)
	case Won, Lost:
		return g.endTime.Sub(g.startTime)
	default:
		return 0
	}
}

func (g *Game) Cell(x, y int) (Cell, error) {
	if !g.params.PointInBounds(x, y) {
		return Cell{}, &MoveError{Op: "cell", X: x, Y: y, State: g.state, Err: ErrOutOfBounds}
	}
	return g.cells[y*g.params.Width+x], nil
}

// Exploded reports the mine that ended the game, if any.
func (g *Game) Exploded() (x, y int, ok bool) {
	if g.exploded < 0 {
		return 0, 0, false
	}
	return g.exploded % g.params.Width, g.exploded / g.params.Width, true
}
