// internal/match/service.go
//
// Match service: the entry point transports call.
// Responsibilities:
//   - NewGame / FireShot / Surrender per player.
//   - At most one in-flight operation per player (ErrGameBusy otherwise).
//   - Persist every change; hold a game in memory only while its save is unconfirmed.
//   - Report persistence uncertainty (store timeout) on the result instead of failing.
//
// Persistence policy:
//   - Save succeeded          → store is the source of truth, live entry dropped.
//   - Save timed out          → game held live, Result.PersistUncertain set.
//   - Save failed (confirmed) → working copy discarded, error returned.

package match

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/seabattle/internal/board"
	"github.com/robalobadob/seabattle/internal/game"
	"github.com/robalobadob/seabattle/internal/store"
)

var (
	ErrGameBusy       = errors.New("another request for this player is in progress")
	ErrGameInProgress = errors.New("an active game already exists")
)

// Outcome is the transport-facing summary of an operation.
type Outcome string

const (
	OutcomeStarted   Outcome = "started"
	OutcomeHit       Outcome = "hit"
	OutcomeMiss      Outcome = "miss"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeGameOver  Outcome = "gameOver"
)

// Result is returned to the transport for rendering.
type Result struct {
	GameID           string       `json:"gameId"`
	Outcome          Outcome      `json:"outcome"`
	Coord            *board.Coord `json:"coordinate,omitempty"`
	Winner           game.Side    `json:"winner,omitempty"`
	AdversaryCoord   *board.Coord `json:"adversaryCoordinate,omitempty"`
	AdversaryOutcome game.Outcome `json:"adversaryOutcome,omitempty"`
	Status           game.Status  `json:"status"`
	PersistUncertain bool         `json:"persistUncertain,omitempty"`

	Game *game.Game `json:"-"` // snapshot after the operation
}

// OutcomeFor maps a rejected operation's error to the outcome reported to the player.
// The second value is false for errors that are not a game-rule rejection.
func OutcomeFor(err error) (Outcome, bool) {
	switch {
	case errors.Is(err, game.ErrInvalidCoordinate):
		return OutcomeInvalid, true
	case errors.Is(err, game.ErrDuplicateShot):
		return OutcomeDuplicate, true
	case errors.Is(err, game.ErrGameNotActive):
		return OutcomeGameOver, true
	}
	return "", false
}

// Service runs matches against a store.
type Service struct {
	store     store.Store
	boards    game.BoardSource
	adversary *game.Adversary

	mu       sync.Mutex
	inflight map[string]struct{}   // players with an operation running
	live     map[string]*game.Game // games whose latest save timed out
}

// New constructs a Service.
func New(st store.Store, boards game.BoardSource, adv *game.Adversary) *Service {
	return &Service{
		store:     st,
		boards:    boards,
		adversary: adv,
		inflight:  make(map[string]struct{}),
		live:      make(map[string]*game.Game),
	}
}

// NewGame starts a match for playerID. An active game must be finished or
// surrendered first (ErrGameInProgress).
func (s *Service) NewGame(ctx context.Context, playerID string) (*Result, error) {
	release, err := s.acquire(playerID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.flushFinished(ctx, playerID); err != nil {
		return nil, err
	}
	switch _, err := s.current(ctx, playerID); {
	case err == nil:
		return nil, ErrGameInProgress
	case !errors.Is(err, game.ErrGameNotActive):
		return nil, err
	}

	g := game.New(playerID, s.boards)
	res := &Result{GameID: g.ID, Outcome: OutcomeStarted}
	if err := s.commit(ctx, g, res); err != nil {
		if errors.Is(err, store.ErrActiveExists) {
			return nil, ErrGameInProgress
		}
		return nil, err
	}
	log.Info().Str("player", playerID).Str("game", g.ID).Msg("game started")
	return res, nil
}

// FireShot fires the player's shot at coord and, if the game goes on, the
// adversary's reply.
func (s *Service) FireShot(ctx context.Context, playerID, coord string) (*Result, error) {
	c, err := board.ParseCoord(coord)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(playerID)
	if err != nil {
		return nil, err
	}
	defer release()

	g, err := s.current(ctx, playerID)
	if err != nil {
		return nil, err
	}
	ex, err := g.PlayTurn(c, s.adversary)
	if err != nil {
		return nil, err
	}

	res := &Result{
		GameID:           g.ID,
		Outcome:          Outcome(ex.Outcome),
		Coord:            &ex.Coord,
		Winner:           ex.Winner,
		AdversaryCoord:   ex.AdversaryCoord,
		AdversaryOutcome: ex.AdversaryOutcome,
	}
	if err := s.commit(ctx, g, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Surrender ends the player's active game.
func (s *Service) Surrender(ctx context.Context, playerID string) (*Result, error) {
	release, err := s.acquire(playerID)
	if err != nil {
		return nil, err
	}
	defer release()

	g, err := s.current(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := g.Surrender(); err != nil {
		return nil, err
	}
	res := &Result{GameID: g.ID, Outcome: OutcomeGameOver, Winner: game.SideAdversary}
	if err := s.commit(ctx, g, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Active returns a copy of the player's active game.
func (s *Service) Active(ctx context.Context, playerID string) (*game.Game, error) {
	return s.current(ctx, playerID)
}

// Reassign hands from's games to to, e.g. a guest who signs in. Nothing moves
// when both hold an active game (store.ErrActiveExists).
func (s *Service) Reassign(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	releaseFrom, err := s.acquire(from)
	if err != nil {
		return err
	}
	defer releaseFrom()
	releaseTo, err := s.acquire(to)
	if err != nil {
		return err
	}
	defer releaseTo()

	if err := s.store.Reassign(ctx, from, to); err != nil {
		return err
	}
	s.mu.Lock()
	if g, ok := s.live[from]; ok {
		delete(s.live, from)
		if _, taken := s.live[to]; !taken {
			g.PlayerID = to
			s.live[to] = g
		}
	}
	s.mu.Unlock()
	log.Info().Str("from", from).Str("to", to).Msg("games reassigned")
	return nil
}

// History lists the player's games, newest first.
func (s *Service) History(ctx context.Context, playerID string, limit int) ([]*game.Game, error) {
	return s.store.History(ctx, playerID, limit)
}

// acquire marks playerID busy. The returned func releases it.
func (s *Service) acquire(playerID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[playerID]; busy {
		return nil, ErrGameBusy
	}
	s.inflight[playerID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, playerID)
		s.mu.Unlock()
	}, nil
}

// current returns a working copy of the player's active game. A live entry
// wins until the store holds the same game at the same or a newer version.
func (s *Service) current(ctx context.Context, playerID string) (*game.Game, error) {
	s.mu.Lock()
	g, held := s.live[playerID]
	s.mu.Unlock()

	loaded, err := s.store.Load(ctx, playerID)
	switch {
	case err == nil:
		if held && (loaded.ID != g.ID || loaded.Version < g.Version) {
			break
		}
		if held {
			s.forget(g)
		}
		g = loaded
	case held:
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("player", playerID).Msg("load failed, using unconfirmed state")
		}
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: no game for player", game.ErrGameNotActive)
	default:
		return nil, err
	}
	if g.Status != game.StatusActive {
		return nil, fmt.Errorf("%w: game %s is %s", game.ErrGameNotActive, g.ID, g.Status)
	}
	return g.Clone(), nil
}

// commit persists g. Only an unconfirmed save leaves g live; finished games
// are evicted from the active slot once their save is confirmed.
func (s *Service) commit(ctx context.Context, g *game.Game, res *Result) error {
	err := s.store.Save(ctx, g)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrStorageTimeout):
		res.PersistUncertain = true
		log.Warn().Err(err).Str("player", g.PlayerID).Str("game", g.ID).Msg("save not acknowledged")
	default:
		log.Error().Err(err).Str("player", g.PlayerID).Str("game", g.ID).Msg("save failed")
		return err
	}

	res.Status = g.Status
	res.Game = g.Clone()

	s.mu.Lock()
	if res.PersistUncertain {
		s.live[g.PlayerID] = g
	} else {
		delete(s.live, g.PlayerID)
	}
	s.mu.Unlock()

	if !g.Status.Terminal() {
		return nil
	}
	log.Info().Str("player", g.PlayerID).Str("game", g.ID).Str("status", string(g.Status)).Msg("game finished")
	if res.PersistUncertain {
		// flushFinished retries before the next game
		return nil
	}
	if err := s.store.DeleteActive(ctx, g.PlayerID); err != nil {
		// a slot left on a finished game is taken over by the next one
		log.Warn().Err(err).Str("player", g.PlayerID).Msg("clear active slot")
	}
	return nil
}

// flushFinished persists a finished game still held live because its final
// writes were not confirmed.
func (s *Service) flushFinished(ctx context.Context, playerID string) error {
	s.mu.Lock()
	g, ok := s.live[playerID]
	s.mu.Unlock()
	if !ok || !g.Status.Terminal() {
		return nil
	}
	if err := s.store.Save(ctx, g); err != nil {
		return err
	}
	if err := s.store.DeleteActive(ctx, playerID); err != nil {
		return err
	}
	s.forget(g)
	return nil
}

func (s *Service) forget(g *game.Game) {
	s.mu.Lock()
	if cur, ok := s.live[g.PlayerID]; ok && cur.ID == g.ID {
		delete(s.live, g.PlayerID)
	}
	s.mu.Unlock()
}
