package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/raysweep/internal/config"
	"github.com/vancomm/raysweep/internal/middleware"
	"github.com/vancomm/raysweep/internal/mines"
	"github.com/vancomm/raysweep/internal/repository"
)

var (
	ErrBadSessionId = errors.New("game session id must be an integer")
	ErrNotYourGame  = errors.New("game session belongs to another player")
)

type GameHandler struct {
	logger *slog.Logger
	store  GameStore
	board  mines.GameParams
	ws     *config.WebSocket
	rnd    mines.Rand
	clock  mines.Clock
	locks  sessionLocks
}

// NewGameHandler serves games of board. rnd must be safe for concurrent use.
func NewGameHandler(
	logger *slog.Logger,
	store GameStore,
	board mines.GameParams,
	ws *config.WebSocket,
	rnd mines.Rand,
	clock mines.Clock,
) *GameHandler {
	return &GameHandler{
		logger: logger,
		store:  store,
		board:  board,
		ws:     ws,
		rnd:    rnd,
		clock:  clock,
	}
}

// NewGame creates a session on the configured board, started at (x, y)
// when the query holds a point.
func (g *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	pos, err := decodeOptionalPoint(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	game, err := mines.New(g.board, g.rnd, g.clock)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("configured board is invalid", slog.Any("error", err))
		return
	}
	if pos != nil {
		if err := game.Start(pos.X, pos.Y); err != nil {
			g.sendMoveError(w, err)
			return
		}
	}

	var createParams repository.CreateGameSessionParams
	if claims, ok := middleware.PlayerClaims(r.Context()); ok {
		g.logger.Debug("creating player session", slog.Int64("playerId", claims.PlayerId))
		createParams.PlayerId = &claims.PlayerId
	} else {
		g.logger.Debug("creating anonymous session")
	}

	session, err := g.store.CreateGameSession(r.Context(), game, createParams)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to create game session", slog.Any("error", err))
		return
	}

	sendStatusJSONOrLog(w, g.logger, http.StatusCreated,
		NewGameSessionDTO(session.GameSessionId, game),
	)
}

func (g *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	id, ok := g.sessionId(w, r)
	if !ok {
		return
	}
	session, game, ok := g.load(w, r, id)
	if !ok {
		return
	}
	sendJSONOrLog(w, g.logger, NewGameSessionDTO(session.GameSessionId, game))
}

// Move applies ?move=open|flag at (x, y). The first open starts the game.
func (g *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	move, err := decodeGameMove(query.Get("move"))
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	pos, err := decodePoint(query)
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	g.update(w, r, func(game *mines.Game) error {
		return applyMove(game, move, pos.X, pos.Y)
	})
}

func (g *GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	g.update(w, r, (*mines.Game).Forfeit)
}

// Restart returns an unfinished session to a fresh, not yet started board.
// A finished session keeps its result and the fresh board is answered as a
// new session with 201.
func (g *GameHandler) Restart(w http.ResponseWriter, r *http.Request) {
	id, ok := g.sessionId(w, r)
	if !ok {
		return
	}

	unlock := g.locks.lock(id)
	defer unlock()

	session, game, ok := g.load(w, r, id)
	if !ok {
		return
	}

	next, err := g.restart(r.Context(), session, game)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to restart game session", slog.Any("error", err))
		return
	}

	status := http.StatusOK
	if next.GameSessionId != id {
		status = http.StatusCreated
	}
	sendStatusJSONOrLog(w, g.logger, status, NewGameSessionDTO(next.GameSessionId, game))
}

// restart prepares game again. Won and lost sessions stay as played, so the
// prepared game of a finished session is stored as a new session owned by
// the same player.
func (g *GameHandler) restart(
	ctx context.Context, session *repository.GameSession, game *mines.Game,
) (*repository.GameSession, error) {
	over := game.Over()
	game.Prepare()
	if !over {
		return g.save(ctx, session.GameSessionId, game)
	}

	next, err := g.store.CreateGameSession(ctx, game, repository.CreateGameSessionParams{
		PlayerId: session.PlayerId,
	})
	if err != nil {
		return nil, err
	}
	g.logger.Debug(
		"finished session restarted as new session",
		slog.Int64("gameSessionId", session.GameSessionId),
		slog.Int64("nextGameSessionId", next.GameSessionId),
	)
	return next, nil
}

func (g *GameHandler) Highscores(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params, err := decodeBoard(query, g.board)
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	filter := repository.HighscoreFilter{GameParams: &params}
	if username := query.Get("username"); username != "" {
		filter.Username = &username
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			sendErrorOrLog(w, g.logger, http.StatusBadRequest,
				errors.New("limit must be a positive integer"),
			)
			return
		}
		filter.Limit = n
	}

	highscores, err := g.store.FetchHighscores(r.Context(), filter)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to fetch highscores", slog.Any("error", err))
		return
	}
	if highscores == nil {
		highscores = []repository.Highscore{}
	}

	sendJSONOrLog(w, g.logger, highscores)
}

func applyMove(game *mines.Game, move GameMove, x, y int) error {
	switch move {
	case Open:
		if game.State() == mines.NotStarted {
			return game.Start(x, y)
		}
		return game.Reveal(x, y)
	case Flag:
		return game.ToggleFlag(x, y)
	default:
		return ErrBadMove
	}
}

// update runs op on the stored game and saves the result. Concurrent
// updates of one session are applied one at a time.
func (g *GameHandler) update(
	w http.ResponseWriter, r *http.Request, op func(*mines.Game) error,
) {
	id, ok := g.sessionId(w, r)
	if !ok {
		return
	}

	unlock := g.locks.lock(id)
	defer unlock()

	_, game, ok := g.load(w, r, id)
	if !ok {
		return
	}

	if err := op(game); err != nil {
		g.sendMoveError(w, err)
		return
	}

	session, err := g.save(r.Context(), id, game)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to update game session", slog.Any("error", err))
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(session.GameSessionId, game))
}

func (g *GameHandler) save(ctx context.Context, id int64, game *mines.Game) (*repository.GameSession, error) {
	session, err := g.store.UpdateGameSession(ctx, id, game)
	if err != nil {
		return nil, err
	}
	if game.Over() {
		g.logger.Info(
			"game over",
			slog.Int64("gameSessionId", id),
			slog.String("state", game.State().String()),
			slog.Duration("elapsed", game.Elapsed()),
		)
	}
	return session, nil
}

func (g *GameHandler) sessionId(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, ErrBadSessionId)
		return 0, false
	}
	return id, true
}

// load fetches a session the requester may play and decodes its game.
func (g *GameHandler) load(
	w http.ResponseWriter, r *http.Request, id int64,
) (*repository.GameSession, *mines.Game, bool) {
	session, err := g.store.FetchGameSession(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		w.WriteHeader(http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to fetch session from db", slog.Any("error", err))
		return nil, nil, false
	}

	if session.PlayerId != nil {
		claims, ok := middleware.PlayerClaims(r.Context())
		if !ok || claims.PlayerId != *session.PlayerId {
			sendErrorOrLog(w, g.logger, http.StatusUnauthorized, ErrNotYourGame)
			return nil, nil, false
		}
	}

	game, err := mines.Decode(session.Board, g.rnd, g.clock)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("db returned invalid game_session.board", slog.Any("error", err))
		return nil, nil, false
	}
	return session, game, true
}

func moveErrorStatus(err error) int {
	var configErr *mines.ConfigError
	switch {
	case errors.Is(err, mines.ErrOutOfBounds),
		errors.Is(err, ErrBadMove),
		errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.Is(err, mines.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (g *GameHandler) sendMoveError(w http.ResponseWriter, err error) {
	status := moveErrorStatus(err)
	if status == http.StatusInternalServerError {
		w.WriteHeader(status)
		g.logger.Error("unable to apply move", slog.Any("error", err))
		return
	}
	sendErrorOrLog(w, g.logger, status, err)
}
