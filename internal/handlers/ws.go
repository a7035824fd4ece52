package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/vancomm/raysweep/internal/mines"
)

type wsCommand string

const (
	wsNoop    wsCommand = "g"
	wsOpen    wsCommand = "o"
	wsFlag    wsCommand = "f"
	wsForfeit wsCommand = "r" // =)
	wsRestart wsCommand = "n"
)

var commandNargs = map[wsCommand]int{
	wsNoop:    0,
	wsOpen:    2,
	wsFlag:    2,
	wsForfeit: 0,
	wsRestart: 0,
}

var ErrUnknownCommand = errors.New("unknown command")

func parseXY(args []string) (x int, y int, err error) {
	if x, err = strconv.Atoi(args[0]); err != nil {
		err = fmt.Errorf("first argument must be an int")
		return
	}
	if y, err = strconv.Atoi(args[1]); err != nil {
		err = fmt.Errorf("second argument must be an int")
		return
	}
	return
}

// execute runs one command line against game.
func execute(game *mines.Game, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	cmd := wsCommand(parts[0])
	nargs, ok := commandNargs[cmd]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownCommand, parts[0])
	}
	if nargs != len(parts)-1 {
		return fmt.Errorf("command %q takes %d arguments", cmd, nargs)
	}

	switch cmd {
	case wsOpen, wsFlag:
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return err
		}
		move := Open
		if cmd == wsFlag {
			move = Flag
		}
		return applyMove(game, move, x, y)
	case wsForfeit:
		return game.Forfeit()
	case wsRestart:
		game.Prepare()
	}
	return nil
}

type wsReply struct {
	Session *GameSessionDTO `json:"session,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// frame applies the command lines of one websocket message, stopping at the
// first failing line, and saves whatever was applied. Restarting a finished
// game moves play to a new session, whose id is returned.
func (g *GameHandler) frame(r *http.Request, id int64, message string) (int64, wsReply, error) {
	unlock := g.locks.lock(id)
	defer unlock()

	ctx := r.Context()
	session, err := g.store.FetchGameSession(ctx, id)
	if err != nil {
		return id, wsReply{}, fmt.Errorf("unable to fetch session from db: %w", err)
	}
	game, err := mines.Decode(session.Board, g.rnd, g.clock)
	if err != nil {
		return id, wsReply{}, err
	}

	var reply wsReply
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line == string(wsRestart) && game.Over() {
			if _, err := g.save(ctx, session.GameSessionId, game); err != nil {
				return id, wsReply{}, fmt.Errorf("unable to update session in db: %w", err)
			}
			if session, err = g.restart(ctx, session, game); err != nil {
				return id, wsReply{}, fmt.Errorf("unable to restart session: %w", err)
			}
			continue
		}
		if err := execute(game, line); err != nil {
			reply.Error = err.Error()
			break
		}
	}

	if _, err := g.save(ctx, session.GameSessionId, game); err != nil {
		return id, wsReply{}, fmt.Errorf("unable to update session in db: %w", err)
	}
	reply.Session = NewGameSessionDTO(session.GameSessionId, game)
	return session.GameSessionId, reply, nil
}

// ConnectWS plays a session over a websocket. Each text message holds one
// command per line: "g", "o x y", "f x y", "r" or "n". Every message is
// answered with the updated session, which after "n" on a finished game is
// a new one.
func (g *GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	id, ok := g.sessionId(w, r)
	if !ok {
		return
	}
	if _, _, ok := g.load(w, r, id); !ok {
		return
	}

	conn, err := g.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		g.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	log := g.logger.With(slog.Int64("gameSessionId", id))
	log.Debug("established WS connection")

	for {
		mt, buf, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("abnormal ws break", slog.Any("error", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			return
		}

		message := strings.TrimSpace(string(buf))
		log.Debug("\t> " + message)

		next, reply, err := g.frame(r, id, message)
		if err != nil {
			log.Error("unable to process ws message", slog.Any("error", err))
			return
		}
		if next != id {
			id = next
			log = g.logger.With(slog.Int64("gameSessionId", id))
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Error("unable to write json", slog.Any("error", err))
			return
		}
	}
}
