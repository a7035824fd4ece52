package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/raysweep/internal/config"
	"github.com/vancomm/raysweep/internal/middleware"
	"github.com/vancomm/raysweep/internal/mines"
	"github.com/vancomm/raysweep/internal/repository"
)

var (
	beginner = mines.GameParams{Width: 9, Height: 9, MineCount: 10}
	// any first click on tiny wins
	tiny = mines.GameParams{Width: 3, Height: 3}
)

type testServer struct {
	handler *GameHandler
	store   *memStore
	mux     *http.ServeMux
}

func newTestServer(t *testing.T, board mines.GameParams) *testServer {
	t.Helper()
	ws, err := config.NewWebSocket()
	require.NoError(t, err)

	store := newMemStore()
	clock := &tickClock{now: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)}
	h := NewGameHandler(discard, store, board, ws, newLockedPCG(), clock)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /game", h.NewGame)
	mux.HandleFunc("GET /game/{id}", h.Fetch)
	mux.HandleFunc("POST /game/{id}/move", h.Move)
	mux.HandleFunc("POST /game/{id}/forfeit", h.Forfeit)
	mux.HandleFunc("POST /game/{id}/restart", h.Restart)
	mux.HandleFunc("GET /game/{id}/connect", h.ConnectWS)
	mux.HandleFunc("GET /highscores", h.Highscores)

	return &testServer{handler: h, store: store, mux: mux}
}

func (s *testServer) do(
	t *testing.T, method, target string, claims *config.PlayerClaims,
) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if claims != nil {
		ctx := context.WithValue(req.Context(), middleware.CtxPlayerClaims, claims)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) GameSessionDTO {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var dto GameSessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	return dto
}

func (s *testServer) create(t *testing.T, target string, claims *config.PlayerClaims) GameSessionDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, target, claims)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeSession(t, rec)
}

func TestNewGameIsNotStarted(t *testing.T) {
	s := newTestServer(t, beginner)

	dto := s.create(t, "/game", nil)

	assert.Equal(t, "1", dto.GameSessionId)
	assert.Equal(t, "not_started", dto.State)
	assert.Equal(t, 9, dto.Width)
	assert.Equal(t, 10, dto.MineCount)
	assert.Nil(t, dto.StartedAt)
	require.Len(t, dto.Grid, 81)
	for _, c := range dto.Grid {
		assert.Equal(t, mines.Unknown, c)
	}
}

func TestNewGameWithStartPoint(t *testing.T) {
	s := newTestServer(t, beginner)

	dto := s.create(t, "/game?x=4&y=4", nil)

	assert.Contains(t, []string{"playing", "won"}, dto.State)
	assert.NotNil(t, dto.StartedAt)
	assert.Equal(t, mines.CellState(0), dto.Grid[4*9+4])
	assert.Positive(t, dto.OpenCount)
}

func TestNewGameIgnoresBoardParams(t *testing.T) {
	s := newTestServer(t, beginner)

	dto := s.create(t, "/game?width=100000&height=100000&mine_count=1", nil)

	assert.Equal(t, 9, dto.Width)
	assert.Equal(t, 9, dto.Height)
	assert.Equal(t, 10, dto.MineCount)
	assert.Len(t, dto.Grid, 81)
}

func TestNewGameRejects(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"half point", "/game?x=1", http.StatusBadRequest},
		{"bad point", "/game?x=one&y=0", http.StatusBadRequest},
		{"start out of bounds", "/game?x=9&y=0", http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newTestServer(t, beginner)
			rec := s.do(t, http.MethodPost, test.target, nil)
			assert.Equal(t, test.status, rec.Code, rec.Body.String())
			assert.Empty(t, s.store.sessions)
		})
	}
}

func TestFirstOpenStartsGame(t *testing.T) {
	s := newTestServer(t, beginner)
	s.create(t, "/game", nil)

	rec := s.do(t, http.MethodPost, "/game/1/move?move=open&x=4&y=4", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decodeSession(t, rec)

	assert.NotEqual(t, "not_started", moved.State)
	assert.NotNil(t, moved.StartedAt)
	assert.Equal(t, mines.CellState(0), moved.Grid[4*9+4])

	rec = s.do(t, http.MethodGet, "/game/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeSession(t, rec)
	assert.Equal(t, moved.Grid, fetched.Grid)
	assert.Equal(t, moved.OpenCount, fetched.OpenCount)
}

func TestMoveErrors(t *testing.T) {
	s := newTestServer(t, beginner)
	s.create(t, "/game", nil)

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"unknown move", http.MethodPost, "/game/1/move?move=chord&x=0&y=0", http.StatusBadRequest},
		{"missing y", http.MethodPost, "/game/1/move?move=open&x=0", http.StatusBadRequest},
		{"flag before start", http.MethodPost, "/game/1/move?move=flag&x=0&y=0", http.StatusConflict},
		{"forfeit before start", http.MethodPost, "/game/1/forfeit", http.StatusConflict},
		{"open out of bounds", http.MethodPost, "/game/1/move?move=open&x=-1&y=0", http.StatusBadRequest},
		{"bad id", http.MethodGet, "/game/one", http.StatusBadRequest},
		{"missing session", http.MethodGet, "/game/99", http.StatusNotFound},
		{"move on missing session", http.MethodPost, "/game/99/move?move=open&x=0&y=0", http.StatusNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := s.do(t, test.method, test.target, nil)
			assert.Equal(t, test.status, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodGet, "/game/1", nil)
	assert.Equal(t, "not_started", decodeSession(t, rec).State)
}

func TestMoveOnFinishedGameConflicts(t *testing.T) {
	s := newTestServer(t, beginner)
	s.create(t, "/game?x=4&y=4", nil)

	rec := s.do(t, http.MethodPost, "/game/1/forfeit", nil)
	if rec.Code == http.StatusConflict {
		t.Skip("board was cleared by the first click")
	}
	require.Equal(t, http.StatusOK, rec.Code)
	lost := decodeSession(t, rec)
	assert.Equal(t, "lost", lost.State)
	assert.NotNil(t, lost.EndedAt)

	rec = s.do(t, http.MethodPost, "/game/1/move?move=open&x=0&y=0", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "lost")
}

func TestRestart(t *testing.T) {
	s := newTestServer(t, beginner)
	created := s.create(t, "/game?x=4&y=4", nil)
	if created.State != "playing" {
		t.Skip("board was cleared by the first click")
	}

	rec := s.do(t, http.MethodPost, "/game/1/restart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeSession(t, rec)

	assert.Equal(t, "1", dto.GameSessionId)
	assert.Equal(t, "not_started", dto.State)
	assert.Zero(t, dto.OpenCount)
	assert.Nil(t, dto.StartedAt)
	assert.Nil(t, dto.EndedAt)

	rec = s.do(t, http.MethodPost, "/game/1/move?move=open&x=0&y=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mines.CellState(0), decodeSession(t, rec).Grid[0])
}

func TestRestartFinishedGameKeepsHighscore(t *testing.T) {
	s := newTestServer(t, tiny)
	ada := config.NewPlayerClaims(1, "ada")

	won := s.create(t, "/game?x=1&y=1", ada)
	require.Equal(t, "won", won.State)

	highscores := func() []repository.Highscore {
		rec := s.do(t, http.MethodGet, "/highscores", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var hs []repository.Highscore
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hs))
		return hs
	}
	require.Len(t, highscores(), 1)

	rec := s.do(t, http.MethodPost, "/game/1/restart", ada)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	next := decodeSession(t, rec)
	assert.Equal(t, "2", next.GameSessionId)
	assert.Equal(t, "not_started", next.State)

	hs := highscores()
	require.Len(t, hs, 1)
	assert.Equal(t, int64(1), hs[0].GameSessionId)
	assert.Equal(t, 1000.0, hs[0].PlaytimeMs)

	rec = s.do(t, http.MethodGet, "/game/1", ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "won", decodeSession(t, rec).State)

	// the new session belongs to the same player
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/game/2", nil).Code)
	rec = s.do(t, http.MethodPost, "/game/2/move?move=open&x=0&y=0", ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "won", decodeSession(t, rec).State)
	assert.Len(t, highscores(), 2)
}

func TestSessionOwnership(t *testing.T) {
	s := newTestServer(t, beginner)
	owner := config.NewPlayerClaims(1, "ada")
	other := config.NewPlayerClaims(2, "bob")
	s.create(t, "/game", owner)
	s.create(t, "/game", nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/game/1", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/game/1", other).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(t, http.MethodPost, "/game/1/move?move=open&x=0&y=0", other).Code,
	)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/game/1", owner).Code)

	// anonymous sessions are open to everyone
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/game/2", other).Code)
}

func TestHighscores(t *testing.T) {
	s := newTestServer(t, tiny)
	_, err := s.store.CreatePlayer(context.Background(), repository.CreatePlayerParams{
		Username: "ada", PasswordHash: []byte("x"),
	})
	require.NoError(t, err)
	ada := config.NewPlayerClaims(1, "ada")

	won := s.create(t, "/game?x=1&y=1", ada)
	require.Equal(t, "won", won.State)
	assert.Equal(t, int64(1000), won.ElapsedMs)
	s.create(t, "/game?x=0&y=0", nil)
	s.create(t, "/game", nil)

	highscores := func(target string) []repository.Highscore {
		rec := s.do(t, http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var hs []repository.Highscore
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hs))
		return hs
	}

	all := highscores("/highscores?width=3&height=3&mine_count=0")
	require.Len(t, all, 2)
	assert.Equal(t, 1000.0, all[0].PlaytimeMs)

	mine := highscores("/highscores?width=3&height=3&mine_count=0&username=ada")
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Username)
	assert.Equal(t, "ada", *mine[0].Username)

	assert.Len(t, highscores("/highscores?width=3&height=3&mine_count=0&limit=1"), 1)
	assert.Len(t, highscores("/highscores"), 2)
	assert.Empty(t, highscores("/highscores?width=9&height=9&mine_count=10"))
	assert.Empty(t, highscores("/highscores?width=3&height=3&mine_count=0&username=bob"))

	rec := s.do(t, http.MethodGet, "/highscores?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/highscores?width=100000&height=100000", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConcurrentMovesAreSerialized(t *testing.T) {
	s := newTestServer(t, mines.GameParams{Width: 16, Height: 16, MineCount: 40})
	dto := s.create(t, "/game?x=8&y=8", nil)
	if dto.State != "playing" {
		t.Skip("board was cleared by the first click")
	}

	closed := -1
	for i, c := range dto.Grid {
		if c == mines.Unknown {
			closed = i
			break
		}
	}
	require.NotEqual(t, -1, closed)
	x, y := closed%16, closed/16

	var wg sync.WaitGroup
	for range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := "/game/1/move?move=flag&x=" + itoa(x) + "&y=" + itoa(y)
			rec := s.do(t, http.MethodPost, target, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	final := decodeSession(t, s.do(t, http.MethodGet, "/game/1", nil))
	assert.Zero(t, final.FlagCount)
	assert.Equal(t, mines.Unknown, final.Grid[closed])
}
