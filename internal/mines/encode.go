package mines

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"
)

type cellData struct {
	Open, Flagged, Mine  bool
	MineCount, FlagCount int8
}

type gameData struct {
	Params               GameParams
	State                State
	StartTime, EndTime   time.Time
	OpenCount, FlagCount int
	Exploded             int
	Cells                []cellData
}

// [*Game] implements [gob.GobEncoder]
func (g *Game) GobEncode() ([]byte, error) {
	data := gameData{
		Params:    g.params,
		State:     g.state,
		StartTime: g.startTime,
		EndTime:   g.endTime,
		OpenCount: g.openCount,
		FlagCount: g.flagCount,
		Exploded:  g.exploded,
		Cells:     make([]cellData, len(g.cells)),
	}
	for i, c := range g.cells {
		data.Cells[i] = cellData{
			Open:      c.open,
			Flagged:   c.flagged,
			Mine:      c.mine,
			MineCount: int8(c.mineCount),
			FlagCount: int8(c.flagCount),
		}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// [*Game] implements [gob.GobDecoder]. The random source and clock are not
// part of the encoding; see [Decode].
func (g *Game) GobDecode(buf []byte) error {
	var data gameData
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&data); err != nil {
		return err
	}
	if err := data.Params.Validate(); err != nil {
		return err
	}
	if len(data.Cells) != data.Params.CellCount() {
		return fmt.Errorf(
			"game state has %d cells, want %d", len(data.Cells), data.Params.CellCount(),
		)
	}
	if data.State > Lost {
		return fmt.Errorf("game state has unknown state %d", data.State)
	}
	if data.Exploded < -1 || data.Exploded >= len(data.Cells) {
		return fmt.Errorf("game state has invalid exploded cell %d", data.Exploded)
	}

	g.params = data.Params
	g.state = data.State
	g.startTime = data.StartTime
	g.endTime = data.EndTime
	g.openCount = data.OpenCount
	g.flagCount = data.FlagCount
	g.exploded = data.Exploded
	g.cells = make([]Cell, len(data.Cells))
	for i, c := range data.Cells {
		g.cells[i] = Cell{
			open:      c.Open,
			flagged:   c.Flagged,
			mine:      c.Mine,
			mineCount: int(c.MineCount),
			flagCount: int(c.FlagCount),
		}
	}
	return nil
}

func (g *Game) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode restores a game written by [Game.Bytes] and attaches the given
// random source and clock. A nil clock means [SystemClock].
func Decode(buf []byte, rnd Rand, clock Clock) (*Game, error) {
	if rnd == nil {
		return nil, errors.New("mines: nil random source")
	}
	var g Game
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&g); err != nil {
		return nil, fmt.Errorf("unable to decode game state: %w", err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	g.rnd = rnd
	g.clock = clock
	return &g, nil
}
