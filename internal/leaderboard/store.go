// internal/leaderboard/store.go
//
// Leaderboard of player wins, ranked by fewest shots fired.
// One row per won game in the results table (UNIQUE game_id).

package leaderboard

import (
	"context"
	"database/sql"

	"github.com/robalobadob/seabattle/internal/game"
)

// Result is one won game.
type Result struct {
	GameID    string `json:"gameId"`
	PlayerID  string `json:"playerId"`
	Shots     int    `json:"shots"`     // shots the player needed
	HitsTaken int    `json:"hitsTaken"` // ship cells the player lost meanwhile
}

// FromGame builds a Result from a game the player has won.
func FromGame(g *game.Game) Result {
	return Result{
		GameID:    g.ID,
		PlayerID:  g.PlayerID,
		Shots:     len(g.ShotsOnAdversary),
		HitsTaken: g.ShotsOnPlayer.Hits(),
	}
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records a win. Recording the same game twice is ignored.
func (s *Store) Insert(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO results(game_id, player_id, shots, hits_taken)
		VALUES(?,?,?,?)`, r.GameID, r.PlayerID, r.Shots, r.HitsTaken,
	)
	return err
}

// Top returns the best results. Default limit is 20.
func (s *Store) Top(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, player_id, shots, hits_taken
		FROM results
		ORDER BY shots ASC, hits_taken ASC, created_at ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Result, 0, limit)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.GameID, &r.PlayerID, &r.Shots, &r.HitsTaken); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
