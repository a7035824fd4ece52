package handlers

import (
	"context"
	"sync"

	"github.com/vancomm/raysweep/internal/mines"
	"github.com/vancomm/raysweep/internal/repository"
)

// GameStore persists game sessions. [*repository.Queries] implements it.
type GameStore interface {
	CreateGameSession(context.Context, *mines.Game, repository.CreateGameSessionParams) (*repository.GameSession, error)
	FetchGameSession(ctx context.Context, gameSessionId int64) (*repository.GameSession, error)
	UpdateGameSession(ctx context.Context, gameSessionId int64, game *mines.Game) (*repository.GameSession, error)
	FetchHighscores(context.Context, repository.HighscoreFilter) ([]repository.Highscore, error)
}

// PlayerStore persists players. [*repository.Queries] implements it.
type PlayerStore interface {
	CreatePlayer(context.Context, repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(ctx context.Context, username string) (*repository.Player, error)
}

type sessionLock struct {
	sync.Mutex
	refs int
}

// sessionLocks serializes the load-apply-save cycle per game session.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sessionLock
}

func (l *sessionLocks) lock(id int64) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*sessionLock)
	}
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
