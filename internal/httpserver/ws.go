// internal/httpserver/ws.go
//
// GET /game/ws: the same game commands over one websocket.
// Each text frame is a command {"action":"new"|"fire"|"surrender"|"active","coord":"B7"}
// and is answered by exactly one reply frame, in order.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/seabattle/internal/game"
	"github.com/robalobadob/seabattle/internal/match"
)

const wsCommandTimeout = 10 * time.Second

type wsCommand struct {
	Action string `json:"action"`
	Coord  string `json:"coord,omitempty"`
}

type wsReply struct {
	Action  string        `json:"action"`
	Result  *match.Result `json:"result,omitempty"`
	Game    *gameView     `json:"game,omitempty"`
	Error   string        `json:"error,omitempty"`
	Outcome match.Outcome `json:"outcome,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.cfg.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID, fresh := s.identify(r)
	var hdr http.Header
	if fresh != nil {
		hdr = http.Header{"Set-Cookie": {fresh.String()}}
	}
	conn, err := s.upgrader().Upgrade(w, r, hdr)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)

	me := authUserFrom(r.Context())
	log.Debug().Str("player", playerID).Msg("websocket connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("player", playerID).Msg("websocket read")
			}
			return
		}

		var reply wsReply
		var cmd wsCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			reply = wsReply{Error: "bad_json"}
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), wsCommandTimeout)
			reply = s.dispatch(ctx, me, playerID, cmd)
			cancel()
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Str("player", playerID).Msg("websocket write")
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, me *authUser, playerID string, cmd wsCommand) wsReply {
	reply := wsReply{Action: cmd.Action}
	var (
		res *match.Result
		err error
	)
	switch cmd.Action {
	case "new":
		res, err = s.matches.NewGame(ctx, playerID)
	case "fire":
		res, err = s.matches.FireShot(ctx, playerID, cmd.Coord)
	case "surrender":
		res, err = s.matches.Surrender(ctx, playerID)
	case "active":
		var g *game.Game
		if g, err = s.matches.Active(ctx, playerID); err == nil {
			v := viewOf(g)
			reply.Game = &v
			return reply
		}
		if errors.Is(err, game.ErrGameNotActive) {
			reply.Error = "no_active_game"
			return reply
		}
	default:
		reply.Error = "unknown_action"
		return reply
	}
	if err != nil {
		_, rej := statusFor(err)
		reply.Error, reply.Outcome = rej.Error, rej.Outcome
		return reply
	}
	s.recordFinish(ctx, me, res)
	reply.Result = res
	return reply
}
