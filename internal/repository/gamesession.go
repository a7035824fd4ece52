package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/raysweep/internal/mines"
)

type GameSession struct {
	GameSessionId int64      `db:"game_session_id"`
	PlayerId      *int64     `db:"player_id"`
	Width         int        `db:"width"`
	Height        int        `db:"height"`
	MineCount     int        `db:"mine_count"`
	State         string     `db:"state"`
	StartedAt     *time.Time `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	Board         []byte     `db:"board"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type CreateGameSessionParams struct {
	PlayerId *int64
}

func (p CreateGameSessionParams) UpdateArgs(args *pgx.NamedArgs) *pgx.NamedArgs {
	(*args)["player_id"] = p.PlayerId
	return args
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

// gameArgs maps the persisted columns of a session onto game.
func gameArgs(game *mines.Game) (pgx.NamedArgs, error) {
	board, err := game.Bytes()
	if err != nil {
		return nil, fmt.Errorf("unable to encode game: %w", err)
	}
	width, height, mineCount := game.Params().Unpack()
	return pgx.NamedArgs{
		"width":      width,
		"height":     height,
		"mine_count": mineCount,
		"state":      game.State().String(),
		"started_at": nullTime(game.StartTime()),
		"ended_at":   nullTime(game.EndTime()),
		"board":      board,
	}, nil
}

func (q Queries) CreateGameSession(
	ctx context.Context, game *mines.Game, params CreateGameSessionParams,
) (*GameSession, error) {
	args, err := gameArgs(game)
	if err != nil {
		return nil, err
	}
	params.UpdateArgs(&args)

	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO game_session (
			player_id, width, height, mine_count, state, started_at, ended_at, board
		)
		VALUES (
			@player_id, @width, @height, @mine_count, @state, @started_at, @ended_at, @board
		)
		RETURNING *;`,
		args,
	)
	return pgx.CollectExactlyOneRow(
		rows, pgx.RowToAddrOfStructByName[GameSession],
	)
}

func (q Queries) FetchGameSession(ctx context.Context, gameSessionId int64) (*GameSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT * FROM game_session WHERE game_session_id = $1",
		gameSessionId,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
}

// UpdateGameSession overwrites the stored board and everything derived from
// it. Restarted games clear their timestamps.
func (q Queries) UpdateGameSession(
	ctx context.Context, gameSessionId int64, game *mines.Game,
) (*GameSession, error) {
	args, err := gameArgs(game)
	if err != nil {
		return nil, err
	}
	args["game_session_id"] = gameSessionId

	rows, _ := q.db.Query(
		ctx,
		`UPDATE game_session SET
			state = @state,
			started_at = @started_at,
			ended_at = @ended_at,
			board = @board
		WHERE game_session_id = @game_session_id
		RETURNING *`,
		args,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
}
