// internal/game/engine.go
//
// Core game engine for a single Sea Battle match.
// Responsibilities:
//   - Create new games with two generated boards.
//   - Validate and adjudicate shots (bounds, duplicates, status).
//   - Detect a sunk fleet and move the game to its terminal status.
//   - Run the combined player-then-adversary exchange.
//
// Notes:
//   - Fire mutates only the firing side's shot record; status changes are
//     made by PlayTurn and Surrender.
//   - Callers own serialization: a *Game is not safe for concurrent use.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/seabattle/internal/board"
)

var (
	// ErrInvalidCoordinate is board.ErrInvalidCoordinate, re-exported for callers of this package.
	ErrInvalidCoordinate = board.ErrInvalidCoordinate
	ErrDuplicateShot     = errors.New("coordinate already fired")
	ErrGameNotActive     = errors.New("game is not active")
	ErrInvalidSide       = errors.New("invalid side")
)

// BoardSource produces fleet layouts. *board.Generator satisfies it.
type BoardSource interface {
	Generate() board.Board
}

// New constructs an active game for playerID with one board per side.
// The player moves first.
func New(playerID string, src BoardSource) *Game {
	now := time.Now().UTC()
	return &Game{
		ID:               uuid.NewString(),
		PlayerID:         playerID,
		PlayerBoard:      src.Generate(),
		AdversaryBoard:   src.Generate(),
		ShotsOnAdversary: ShotRecord{},
		ShotsOnPlayer:    ShotRecord{},
		Status:           StatusActive,
		TurnOwner:        SidePlayer,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Fire adjudicates one shot from side at c and records the outcome.
//
// Validation order:
//   - Game must be active (ErrGameNotActive).
//   - c must lie on the grid (ErrInvalidCoordinate).
//   - c must not already be in side's record (ErrDuplicateShot).
//
// Errors leave the game unchanged.
func (g *Game) Fire(c board.Coord, side Side) (Outcome, error) {
	if g.Status != StatusActive {
		return "", ErrGameNotActive
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: row %d col %d", ErrInvalidCoordinate, c.Row, c.Col)
	}
	record, target, err := g.sideOf(side)
	if err != nil {
		return "", err
	}
	if _, done := record[c]; done {
		return "", fmt.Errorf("%w: %s", ErrDuplicateShot, c)
	}

	out := OutcomeMiss
	if target.HasShip(c) {
		out = OutcomeHit
	}
	record[c] = out
	g.touch()
	return out, nil
}

// sideOf returns the shot record owned by side and the board it fires at.
func (g *Game) sideOf(side Side) (ShotRecord, *board.Board, error) {
	switch side {
	case SidePlayer:
		if g.ShotsOnAdversary == nil {
			g.ShotsOnAdversary = ShotRecord{}
		}
		return g.ShotsOnAdversary, &g.AdversaryBoard, nil
	case SideAdversary:
		if g.ShotsOnPlayer == nil {
			g.ShotsOnPlayer = ShotRecord{}
		}
		return g.ShotsOnPlayer, &g.PlayerBoard, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
}

// IsFleetSunk reports whether every ship cell of b has been hit in rec.
func IsFleetSunk(rec ShotRecord, b *board.Board) bool {
	return rec.Hits() == b.ShipCells()
}

// FleetSunk reports whether side has sunk the opposing fleet.
func (g *Game) FleetSunk(side Side) bool {
	record, target, err := g.sideOf(side)
	if err != nil {
		return false
	}
	return IsFleetSunk(record, target)
}

// PlayTurn runs one exchange: the player fires at c; if that does not end the
// game, the adversary picks a target and fires back. Control then returns to
// the player.
func (g *Game) PlayTurn(c board.Coord, adv *Adversary) (Exchange, error) {
	out, err := g.Fire(c, SidePlayer)
	if err != nil {
		return Exchange{}, err
	}
	ex := Exchange{Coord: c, Outcome: out}
	if g.FleetSunk(SidePlayer) {
		g.Status = StatusPlayerWon
		ex.Winner = SidePlayer
		return ex, nil
	}

	g.TurnOwner = SideAdversary
	defer func() { g.TurnOwner = SidePlayer }()

	ac, err := adv.pick(g.adversaryTargets(), g.ShotsOnPlayer)
	if err != nil {
		return ex, err
	}
	aout, err := g.Fire(ac, SideAdversary)
	if err != nil {
		return ex, err
	}
	ex.AdversaryCoord = &ac
	ex.AdversaryOutcome = aout
	if g.FleetSunk(SideAdversary) {
		g.Status = StatusAdversaryWon
		ex.Winner = SideAdversary
	}
	return ex, nil
}

// Surrender ends an active game in the adversary's favour.
func (g *Game) Surrender() error {
	if g.Status != StatusActive {
		return ErrGameNotActive
	}
	g.Status = StatusSurrendered
	g.touch()
	return nil
}

func (g *Game) touch() {
	g.Version++
	g.UpdatedAt = time.Now().UTC()
}

// Winner returns the winning side of a finished game.
func (g *Game) Winner() (Side, bool) {
	switch g.Status {
	case StatusPlayerWon:
		return SidePlayer, true
	case StatusAdversaryWon, StatusSurrendered:
		return SideAdversary, true
	}
	return "", false
}

// Clone returns a deep copy; boards are arrays and copy by value.
func (g *Game) Clone() *Game {
	cp := *g
	cp.ShotsOnAdversary = cloneRecord(g.ShotsOnAdversary)
	cp.ShotsOnPlayer = cloneRecord(g.ShotsOnPlayer)
	if g.targets != nil {
		cp.targets = &Targets{cells: append([]board.Coord(nil), g.targets.cells...)}
	}
	return &cp
}

func cloneRecord(r ShotRecord) ShotRecord {
	out := make(ShotRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (g *Game) adversaryTargets() *Targets {
	if g.targets == nil {
		g.targets = NewTargets(g.ShotsOnPlayer)
	}
	return g.targets
}
