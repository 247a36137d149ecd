// internal/game/types.go
//
// Core type definitions for the Sea Battle game engine.
// Defines:
//   - Status:     lifecycle of a match (active → player_won/adversary_won/surrendered).
//   - Side:       which side fires (player/adversary).
//   - Outcome:    result of a single shot (hit/miss).
//   - ShotRecord: coordinate → outcome, one per side.
//   - Game:       the aggregate for a single match.

package game

import (
	"time"

	"github.com/robalobadob/seabattle/internal/board"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting      Status = "waiting"
	StatusActive       Status = "active"
	StatusPlayerWon    Status = "player_won"
	StatusAdversaryWon Status = "adversary_won"
	StatusSurrendered  Status = "surrendered"
)

// Terminal reports whether no further shots are accepted.
func (s Status) Terminal() bool {
	return s == StatusPlayerWon || s == StatusAdversaryWon || s == StatusSurrendered
}

// Side identifies who fires a shot.
type Side string

const (
	SidePlayer    Side = "player"
	SideAdversary Side = "adversary"
)

// Outcome is the result of an adjudicated shot.
type Outcome string

const (
	OutcomeHit  Outcome = "hit"
	OutcomeMiss Outcome = "miss"
)

// ShotRecord maps each fired coordinate to its outcome.
// Entries are only ever added, never overwritten.
// Encodes to JSON as {"A1":"hit", ...}.
type ShotRecord map[board.Coord]Outcome

// Hits counts the hit entries.
func (r ShotRecord) Hits() int {
	n := 0
	for _, o := range r {
		if o == OutcomeHit {
			n++
		}
	}
	return n
}

// Game holds the state of a single match.
type Game struct {
	ID               string      // Unique game identifier (UUID).
	PlayerID         string      // Owner; at most one active game per player.
	PlayerBoard      board.Board // The human's fleet, fired at by the adversary.
	AdversaryBoard   board.Board // The AI's fleet, fired at by the player.
	ShotsOnAdversary ShotRecord  // Player's shots.
	ShotsOnPlayer    ShotRecord  // Adversary's shots.
	Status           Status
	TurnOwner        Side
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int // bumped on every state change; stores keep the highest

	targets *Targets // untried cells on PlayerBoard; rebuilt lazily after load
}

// Exchange is the result of one player action: the player's shot and,
// unless the game ended on it, the adversary's reply.
type Exchange struct {
	Coord            board.Coord
	Outcome          Outcome
	AdversaryCoord   *board.Coord
	AdversaryOutcome Outcome
	Winner           Side // empty while the game continues
}
