package app

import (
	"hash/maphash"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/vancomm/raysweep/internal/config"
	"github.com/vancomm/raysweep/internal/handlers"
	"github.com/vancomm/raysweep/internal/mines"
	"github.com/vancomm/raysweep/internal/repository"
)

// lockedRand shares one generator between request goroutines.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}

func createRand() *lockedRand {
	return &lockedRand{rnd: rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))}
}

func (a *App) loadRoutes() {
	repo := repository.New(a.db)
	a.registerRoutes(repo, repo, createRand(), mines.SystemClock{})
}

func (a *App) registerRoutes(
	games handlers.GameStore, players handlers.PlayerStore, rnd mines.Rand, clock mines.Clock,
) {
	base := config.BasePath()

	game := handlers.NewGameHandler(a.logger, games, *a.board, a.ws, rnd, clock)
	a.router.HandleFunc("POST "+base+"/game", game.NewGame)
	a.router.HandleFunc("GET "+base+"/game/{id}", game.Fetch)
	a.router.HandleFunc("POST "+base+"/game/{id}/move", game.Move)
	a.router.HandleFunc("POST "+base+"/game/{id}/forfeit", game.Forfeit)
	a.router.HandleFunc("POST "+base+"/game/{id}/restart", game.Restart)
	a.router.HandleFunc("GET "+base+"/game/{id}/connect", game.ConnectWS)
	a.router.HandleFunc("GET "+base+"/highscores", game.Highscores)

	auth := handlers.NewAuth(a.logger, players, a.cookies, a.jwt)
	a.router.HandleFunc("POST "+base+"/auth/register", auth.Register)
	a.router.HandleFunc("POST "+base+"/auth/login", auth.Login)
	a.router.HandleFunc("POST "+base+"/auth/logout", auth.Logout)
	a.router.HandleFunc("GET "+base+"/auth/status", auth.Status)

	a.router.HandleFunc("GET "+base+"/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
