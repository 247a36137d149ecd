// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
//
// Characteristics:
//   - One row per game in `games`; the active slot lives in `active_games`.
//   - Save writes the game row and the slot in a single transaction.
//   - Boards are stored as 100-char binary strings, shot records as JSON.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/seabattle/internal/board"
	"github.com/robalobadob/seabattle/internal/game"
)

// SQLite persists games in a SQLite database migrated with assets/sql.
type SQLite struct{ db *sql.DB }

// NewSQLite wraps an open database handle.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

const gameColumns = `g.id, g.player_id, g.status, g.turn_owner, g.player_board, g.adversary_board,
       g.shots_on_adversary, g.shots_on_player, g.created_at, g.updated_at, g.version`

// Save upserts the game row unless a newer version is stored. An active game
// claims the player's slot unless another active game already holds it.
func (s *SQLite) Save(ctx context.Context, g *game.Game) error {
	shotsAdv, err := json.Marshal(g.ShotsOnAdversary)
	if err != nil {
		return fmt.Errorf("encode shots_on_adversary: %w", err)
	}
	shotsPl, err := json.Marshal(g.ShotsOnPlayer)
	if err != nil {
		return fmt.Errorf("encode shots_on_player: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO games
            (id, player_id, status, turn_owner, player_board, adversary_board,
             shots_on_adversary, shots_on_player, created_at, updated_at, version)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE SET
            player_id=excluded.player_id,
            status=excluded.status,
            turn_owner=excluded.turn_owner,
            shots_on_adversary=excluded.shots_on_adversary,
            shots_on_player=excluded.shots_on_player,
            updated_at=excluded.updated_at,
            version=excluded.version
        WHERE excluded.version >= games.version`,
		g.ID, g.PlayerID, string(g.Status), string(g.TurnOwner),
		g.PlayerBoard.Encode(), g.AdversaryBoard.Encode(),
		string(shotsAdv), string(shotsPl),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt), g.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		// superseded by a newer version
		return nil
	}

	if g.Status == game.StatusActive {
		holder, active, err := activeHolder(ctx, tx, g.PlayerID)
		if err != nil {
			return err
		}
		if active && holder != g.ID {
			return ErrActiveExists
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO active_games (player_id, game_id) VALUES (?,?)
            ON CONFLICT(player_id) DO UPDATE SET game_id=excluded.game_id`,
			g.PlayerID, g.ID,
		); err != nil {
			return fmt.Errorf("claim active slot: %w", err)
		}
	}
	return tx.Commit()
}

// Load returns the game in the player's active slot.
func (s *SQLite) Load(ctx context.Context, playerID string) (*game.Game, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+gameColumns+`
        FROM active_games a JOIN games g ON g.id = a.game_id
        WHERE a.player_id=?`, playerID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// DeleteActive clears the player's active slot.
func (s *SQLite) DeleteActive(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM active_games WHERE player_id=?`, playerID)
	return err
}

// History lists the player's games, newest first. Default limit is 50.
func (s *SQLite) History(ctx context.Context, playerID string, limit int) ([]*game.Game, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+gameColumns+`
        FROM games g
        WHERE g.player_id=?
        ORDER BY g.created_at DESC
        LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*game.Game, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Reassign moves from's games and active slot to to in one transaction.
func (s *SQLite) Reassign(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	fromSlot, fromActive, err := activeHolder(ctx, tx, from)
	if err != nil {
		return err
	}
	_, toActive, err := activeHolder(ctx, tx, to)
	if err != nil {
		return err
	}
	if fromActive && toActive {
		return ErrActiveExists
	}

	if _, err := tx.ExecContext(ctx, `UPDATE games SET player_id=? WHERE player_id=?`, to, from); err != nil {
		return fmt.Errorf("move games: %w", err)
	}
	switch {
	case fromSlot == "":
	case toActive:
		_, err = tx.ExecContext(ctx, `DELETE FROM active_games WHERE player_id=?`, from)
	default:
		if _, err = tx.ExecContext(ctx, `DELETE FROM active_games WHERE player_id=?`, to); err != nil {
			return fmt.Errorf("clear stale slot: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE active_games SET player_id=? WHERE player_id=?`, to, from)
	}
	if err != nil {
		return fmt.Errorf("move active slot: %w", err)
	}
	return tx.Commit()
}

// activeHolder returns the game in playerID's slot and whether it is still active.
func activeHolder(ctx context.Context, tx *sql.Tx, playerID string) (string, bool, error) {
	var holder, status string
	err := tx.QueryRowContext(ctx, `
        SELECT a.game_id, g.status FROM active_games a JOIN games g ON g.id = a.game_id
        WHERE a.player_id=?`, playerID).Scan(&holder, &status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("query active slot: %w", err)
	}
	return holder, status == string(game.StatusActive), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanGame converts one games row into a *game.Game.
func scanGame(row scanner) (*game.Game, error) {
	var (
		g                    game.Game
		status, turn         string
		plBoard, advBoard    string
		shotsAdv, shotsPl    string
		createdAt, updatedAt string
	)
	if err := row.Scan(&g.ID, &g.PlayerID, &status, &turn, &plBoard, &advBoard,
		&shotsAdv, &shotsPl, &createdAt, &updatedAt, &g.Version); err != nil {
		return nil, err
	}
	g.Status = game.Status(status)
	g.TurnOwner = game.Side(turn)

	var err error
	if g.PlayerBoard, err = board.Decode(plBoard); err != nil {
		return nil, fmt.Errorf("game %s player_board: %w", g.ID, err)
	}
	if g.AdversaryBoard, err = board.Decode(advBoard); err != nil {
		return nil, fmt.Errorf("game %s adversary_board: %w", g.ID, err)
	}
	g.ShotsOnAdversary = game.ShotRecord{}
	if err := json.Unmarshal([]byte(shotsAdv), &g.ShotsOnAdversary); err != nil {
		return nil, fmt.Errorf("game %s shots_on_adversary: %w", g.ID, err)
	}
	g.ShotsOnPlayer = game.ShotRecord{}
	if err := json.Unmarshal([]byte(shotsPl), &g.ShotsOnPlayer); err != nil {
		return nil, fmt.Errorf("game %s shots_on_player: %w", g.ID, err)
	}
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return &g, nil
}

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
