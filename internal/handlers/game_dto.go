package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/vancomm/raysweep/internal/mines"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type pointDTO struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
}

func decodePoint(src map[string][]string) (pointDTO, error) {
	var p pointDTO
	err := decoder.Decode(&p, src)
	return p, err
}

var ErrHalfPoint = errors.New("x and y must be given together")

// decodeOptionalPoint returns nil when neither x nor y is given.
func decodeOptionalPoint(src map[string][]string) (*pointDTO, error) {
	_, hasX := src["x"]
	_, hasY := src["y"]
	switch {
	case !hasX && !hasY:
		return nil, nil
	case hasX != hasY:
		return nil, ErrHalfPoint
	}
	p, err := decodePoint(src)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type boardDTO struct {
	Width     int `schema:"width"`
	Height    int `schema:"height"`
	MineCount int `schema:"mine_count"`
}

// decodeBoard reads board params from src, taking absent fields from fallback.
func decodeBoard(src map[string][]string, fallback mines.GameParams) (mines.GameParams, error) {
	dto := boardDTO(fallback)
	if err := decoder.Decode(&dto, src); err != nil {
		return mines.GameParams{}, err
	}
	params := mines.GameParams(dto)
	return params, params.Validate()
}

type GameMove uint8

const (
	Open GameMove = iota + 1
	Flag
)

func (m GameMove) String() string {
	switch m {
	case Open:
		return "open"
	case Flag:
		return "flag"
	default:
		return "GameMove(" + strconv.Itoa(int(m)) + ")"
	}
}

var ErrBadMove = fmt.Errorf("move must be one of '%s', '%s'", Open, Flag)

func decodeGameMove(s string) (move GameMove, err error) {
	switch strings.ToLower(s) {
	case "open":
		move = Open
	case "flag":
		move = Flag
	default:
		err = ErrBadMove
	}
	return
}

type GameSessionDTO struct {
	GameSessionId string     `json:"game_session_id"`
	State         string     `json:"state"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	MineCount     int        `json:"mine_count"`
	OpenCount     int        `json:"open_count"`
	FlagCount     int        `json:"flag_count"`
	Grid          mines.Grid `json:"grid"`
	StartedAt     *int64     `json:"started_at,omitempty"`
	EndedAt       *int64     `json:"ended_at,omitempty"`
	ElapsedMs     int64      `json:"elapsed_ms"`
}

func unixMilli(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func NewGameSessionDTO(gameSessionId int64, g *mines.Game) *GameSessionDTO {
	width, height, mineCount := g.Params().Unpack()
	return &GameSessionDTO{
		GameSessionId: strconv.FormatInt(gameSessionId, 10),
		State:         g.State().String(),
		Width:         width,
		Height:        height,
		MineCount:     mineCount,
		OpenCount:     g.OpenCount(),
		FlagCount:     g.FlagCount(),
		Grid:          g.PlayerGrid(),
		StartedAt:     unixMilli(g.StartTime()),
		EndedAt:       unixMilli(g.EndTime()),
		ElapsedMs:     g.Elapsed().Milliseconds(),
	}
}
