package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/raysweep/internal/config"
	"github.com/vancomm/raysweep/internal/middleware"
	"github.com/vancomm/raysweep/internal/repository"
)

type Auth struct {
	logger  *slog.Logger
	store   PlayerStore
	cookies *config.Cookies
	jwt     *config.JWT
	cost    int
}

func NewAuth(
	logger *slog.Logger,
	store PlayerStore,
	cookies *config.Cookies,
	jwt *config.JWT,
) *Auth {
	auth := &Auth{
		logger:  logger,
		store:   store,
		cookies: cookies,
		jwt:     jwt,
		cost:    bcrypt.DefaultCost,
	}

	return auth
}

type PlayerInfo struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

func (a *Auth) Status(w http.ResponseWriter, r *http.Request) {
	var status *Status
	claims, ok := middleware.PlayerClaims(r.Context())
	if ok {
		status = &Status{
			LoggedIn: true,
			Player:   &PlayerInfo{claims.PlayerId, claims.Username},
		}
		a.logger.Debug("refresh cookies")
		if !a.signIn(w, claims) {
			return
		}
	} else {
		status = &Status{LoggedIn: false, Player: nil}
		a.logger.Debug("could not parse cookies - clear cookies")
		a.cookies.Clear(w)
	}

	sendJSONOrLog(w, a.logger, status)
}

var (
	ErrBadAuthBody        = fmt.Errorf("request body must contain url-encoded username and password")
	ErrBadPasswordTooLong = fmt.Errorf("password too long")
	ErrUsernameTaken      = fmt.Errorf("username taken")
	ErrBadCredentials     = fmt.Errorf("invalid username or password")
)

func (a *Auth) credentials(w http.ResponseWriter, r *http.Request) (username string, password []byte, ok bool) {
	if err := r.ParseForm(); err != nil {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, ErrBadAuthBody)
		return "", nil, false
	}

	username = r.PostFormValue("username")
	password = []byte(r.PostFormValue("password"))
	if username == "" || len(password) == 0 {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, ErrBadAuthBody)
		return "", nil, false
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, ErrBadPasswordTooLong)
		return "", nil, false
	}
	return username, password, true
}

func (a *Auth) signIn(w http.ResponseWriter, claims *config.PlayerClaims) bool {
	token, err := a.jwt.Sign(claims)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to create a jwt token", slog.Any("error", err))
		return false
	}
	if err := a.cookies.Refresh(w, token); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to set auth cookies", slog.Any("error", err))
		return false
	}
	return true
}

func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	username, password, ok := a.credentials(w, r)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword(password, a.cost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to hash password", slog.Any("error", err))
		return
	}

	player, err := a.store.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		sendErrorOrLog(w, a.logger, http.StatusConflict, ErrUsernameTaken)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to insert player", slog.Any("error", err))
		return
	}

	if !a.signIn(w, config.NewPlayerClaims(player.PlayerId, player.Username)) {
		return
	}
	sendStatusJSONOrLog(w, a.logger, http.StatusCreated,
		&Status{LoggedIn: true, Player: &PlayerInfo{player.PlayerId, player.Username}},
	)
}

func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := a.credentials(w, r)
	if !ok {
		return
	}

	player, err := a.store.FetchPlayer(r.Context(), username)
	if errors.Is(err, pgx.ErrNoRows) {
		sendErrorOrLog(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to fetch player", slog.Any("error", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, password); err != nil {
		sendErrorOrLog(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}

	if !a.signIn(w, config.NewPlayerClaims(player.PlayerId, player.Username)) {
		return
	}
	sendJSONOrLog(w, a.logger,
		&Status{LoggedIn: true, Player: &PlayerInfo{player.PlayerId, player.Username}},
	)
}

func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
