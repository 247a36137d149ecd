// internal/httpserver/routes_game.go
//
// HTTP routes for playing against the adversary:
//   - POST /game/new       → start a game (409 while one is active)
//   - POST /game/fire      → {"coord":"B7"}; the shot plus the adversary's reply
//   - POST /game/surrender → end the active game
//   - GET  /game/active    → own board and both shot records (adversary board hidden)
//   - GET  /leaderboard    → fastest wins
//
// Game-rule rejections answer with {"error":..., "outcome": "invalid"|"duplicate"|"gameOver"}.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/seabattle/internal/game"
	"github.com/robalobadob/seabattle/internal/leaderboard"
	"github.com/robalobadob/seabattle/internal/match"
	"github.com/robalobadob/seabattle/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Post("/game/fire", s.handleFire)
	r.Post("/game/surrender", s.handleSurrender)
	r.Get("/game/active", s.handleActive)
}

type fireReq struct {
	Coord string `json:"coord"`
}

// gameView is a game as its player may see it.
type gameView struct {
	GameID           string          `json:"gameId"`
	Status           game.Status     `json:"status"`
	TurnOwner        game.Side       `json:"turnOwner"`
	PlayerBoard      []string        `json:"playerBoard"`
	AdversaryBoard   []string        `json:"adversaryBoard,omitempty"` // revealed once finished
	ShotsOnAdversary game.ShotRecord `json:"shotsOnAdversary"`
	ShotsOnPlayer    game.ShotRecord `json:"shotsOnPlayer"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func viewOf(g *game.Game) gameView {
	v := gameView{
		GameID:           g.ID,
		Status:           g.Status,
		TurnOwner:        g.TurnOwner,
		PlayerBoard:      g.PlayerBoard.Rows(),
		ShotsOnAdversary: g.ShotsOnAdversary,
		ShotsOnPlayer:    g.ShotsOnPlayer,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
	if g.Status.Terminal() {
		v.AdversaryBoard = g.AdversaryBoard.Rows()
	}
	return v
}

// summary is one row of GET /games/mine.
type summary struct {
	GameID    string      `json:"gameId"`
	Status    game.Status `json:"status"`
	Shots     int         `json:"shots"`
	Hits      int         `json:"hits"`
	HitsTaken int         `json:"hitsTaken"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func summaryOf(g *game.Game) summary {
	return summary{
		GameID:    g.ID,
		Status:    g.Status,
		Shots:     len(g.ShotsOnAdversary),
		Hits:      g.ShotsOnAdversary.Hits(),
		HitsTaken: g.ShotsOnPlayer.Hits(),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	res, err := s.matches.NewGame(r.Context(), s.playerID(w, r))
	if err != nil {
		s.writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	var req fireReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	res, err := s.matches.FireShot(r.Context(), s.playerID(w, r), req.Coord)
	if err != nil {
		s.writeMatchError(w, err)
		return
	}
	s.recordFinish(r.Context(), authUserFrom(r.Context()), res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSurrender(w http.ResponseWriter, r *http.Request) {
	res, err := s.matches.Surrender(r.Context(), s.playerID(w, r))
	if err != nil {
		s.writeMatchError(w, err)
		return
	}
	s.recordFinish(r.Context(), authUserFrom(r.Context()), res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	g, err := s.matches.Active(r.Context(), s.playerID(w, r))
	if err != nil {
		if errors.Is(err, game.ErrGameNotActive) {
			writeError(w, http.StatusNotFound, "no_active_game")
			return
		}
		s.writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	me := authUserFrom(r.Context())
	gs, err := s.matches.History(r.Context(), me.ID, queryInt(r, "limit", 50))
	if err != nil {
		s.writeMatchError(w, err)
		return
	}
	out := make([]summary, 0, len(gs))
	for _, g := range gs {
		out = append(out, summaryOf(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ranks.Top(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": rows})
}

// recordFinish updates stats and the leaderboard once a game ends. Failures
// are logged and never fail the request.
func (s *Server) recordFinish(ctx context.Context, me *authUser, res *match.Result) {
	if res.Game == nil || !res.Status.Terminal() {
		return
	}
	won := res.Winner == game.SidePlayer
	if won {
		if err := s.ranks.Insert(ctx, leaderboard.FromGame(res.Game)); err != nil {
			log.Warn().Err(err).Str("game", res.GameID).Msg("insert leaderboard result")
		}
	}
	if me != nil {
		if err := s.users.RecordResult(ctx, me.ID, won); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
}

// rejection is the body of a refused operation.
type rejection struct {
	Error   string        `json:"error"`
	Outcome match.Outcome `json:"outcome,omitempty"`
}

// statusFor maps service errors to an HTTP status and rejection body.
func statusFor(err error) (int, rejection) {
	if out, ok := match.OutcomeFor(err); ok {
		switch out {
		case match.OutcomeInvalid:
			return http.StatusBadRequest, rejection{Error: "invalid_coordinate", Outcome: out}
		case match.OutcomeDuplicate:
			return http.StatusConflict, rejection{Error: "duplicate_shot", Outcome: out}
		default:
			return http.StatusConflict, rejection{Error: "game_not_active", Outcome: out}
		}
	}
	switch {
	case errors.Is(err, match.ErrGameBusy):
		return http.StatusTooManyRequests, rejection{Error: "game_busy"}
	case errors.Is(err, match.ErrGameInProgress):
		return http.StatusConflict, rejection{Error: "game_in_progress"}
	case errors.Is(err, store.ErrStorageTimeout):
		return http.StatusServiceUnavailable, rejection{Error: "storage_timeout"}
	case errors.Is(err, store.ErrStorage):
		return http.StatusServiceUnavailable, rejection{Error: "storage_unavailable"}
	}
	return http.StatusInternalServerError, rejection{Error: "internal"}
}

func (s *Server) writeMatchError(w http.ResponseWriter, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("match operation")
	}
	writeJSON(w, status, body)
}

func queryInt(r *http.Request, k string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(k)); err == nil && n > 0 {
		return n
	}
	return def
}
