// internal/store/store.go
//
// Persistence port for Sea Battle games.
// Implementations:
//   - memory (this package): map-backed, process-local.
//   - SQLite (sqlite.go): durable, survives restarts.
//   - Timed (timed.go): decorator bounding every call with a deadline.
//
// Lifecycle of a game in a store: Save (active) → Save (each exchange) →
// Save (terminal) → DeleteActive. Terminal games stay available through History.

package store

import (
	"context"
	"errors"

	"github.com/robalobadob/seabattle/internal/game"
)

var (
	// ErrNotFound means the player has no game in the active slot.
	ErrNotFound = errors.New("not found")

	// ErrActiveExists rejects saving an active game while a different game
	// holds the player's active slot.
	ErrActiveExists = errors.New("another active game exists for player")

	// ErrStorage is a confirmed failure: the write did not happen.
	ErrStorage = errors.New("storage error")

	// ErrStorageTimeout means the store did not answer in time; the write
	// may or may not have happened.
	ErrStorageTimeout = errors.New("storage timeout")
)

// Store defines the persistence interface for games.
// Save must be atomic for the whole aggregate: a Load never observes half a write.
// Saves are monotonic in Game.Version: a snapshot older than the stored one is
// dropped without error, so a write abandoned after a timeout can never undo
// a later confirmed one.
type Store interface {
	// Save persists or updates a game. An active game also claims the
	// player's active slot.
	Save(ctx context.Context, g *game.Game) error

	// Load returns the game in the player's active slot, or ErrNotFound.
	Load(ctx context.Context, playerID string) (*game.Game, error)

	// DeleteActive clears the player's active slot. Clearing an empty slot is not an error.
	DeleteActive(ctx context.Context, playerID string) error

	// History lists the player's games, newest first.
	History(ctx context.Context, playerID string, limit int) ([]*game.Game, error)

	// Reassign moves every game of from (active slot included) to to. It fails
	// with ErrActiveExists, moving nothing, when both hold an active game.
	Reassign(ctx context.Context, from, to string) error
}
