package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/seabattle/assets"
	"github.com/robalobadob/seabattle/internal/board"
	"github.com/robalobadob/seabattle/internal/game"
)

type fixedSource struct{}

func (fixedSource) Generate() board.Board { return board.FixedLayout().Board }

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := OpenDB(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db, assets.FS, assets.MigrationsDir))
	return NewSQLite(db)
}

func TestStores(t *testing.T) {
	for name, newStore := range map[string]func(*testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
	} {
		t.Run(name, func(t *testing.T) { runStoreSuite(t, newStore) })
	}
}

func runStoreSuite(t *testing.T, newStore func(*testing.T) Store) {
	ctx := context.Background()

	t.Run("load without game", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		s := newStore(t)
		g := game.New("42", fixedSource{})
		_, err := g.Fire(board.MustCoord("A1"), game.SidePlayer)
		require.NoError(t, err)
		_, err = g.Fire(board.MustCoord("J10"), game.SideAdversary)
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, g))

		got, err := s.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, g.ID, got.ID)
		assert.Equal(t, g.PlayerID, got.PlayerID)
		assert.Equal(t, g.PlayerBoard, got.PlayerBoard)
		assert.Equal(t, g.AdversaryBoard, got.AdversaryBoard)
		assert.Equal(t, g.ShotsOnAdversary, got.ShotsOnAdversary)
		assert.Equal(t, g.ShotsOnPlayer, got.ShotsOnPlayer)
		assert.Equal(t, game.StatusActive, got.Status)
		assert.Equal(t, game.SidePlayer, got.TurnOwner)
		assert.WithinDuration(t, g.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("loaded game is a copy", func(t *testing.T) {
		s := newStore(t)
		g := game.New("42", fixedSource{})
		require.NoError(t, s.Save(ctx, g))

		got, err := s.Load(ctx, "42")
		require.NoError(t, err)
		_, err = got.Fire(board.MustCoord("A1"), game.SidePlayer)
		require.NoError(t, err)

		again, err := s.Load(ctx, "42")
		require.NoError(t, err)
		assert.Empty(t, again.ShotsOnAdversary)
	})

	t.Run("second active game is rejected", func(t *testing.T) {
		s := newStore(t)
		first := game.New("42", fixedSource{})
		require.NoError(t, s.Save(ctx, first))

		second := game.New("42", fixedSource{})
		assert.ErrorIs(t, s.Save(ctx, second), ErrActiveExists)

		got, err := s.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("terminal lifecycle", func(t *testing.T) {
		s := newStore(t)
		g := game.New("42", fixedSource{})
		require.NoError(t, s.Save(ctx, g))

		require.NoError(t, g.Surrender())
		require.NoError(t, s.Save(ctx, g))
		require.NoError(t, s.DeleteActive(ctx, "42"))

		_, err := s.Load(ctx, "42")
		assert.ErrorIs(t, err, ErrNotFound)

		// clearing twice is fine
		require.NoError(t, s.DeleteActive(ctx, "42"))

		next := game.New("42", fixedSource{})
		require.NoError(t, s.Save(ctx, next))

		hist, err := s.History(ctx, "42", 10)
		require.NoError(t, err)
		require.Len(t, hist, 2)
		assert.Equal(t, next.ID, hist[0].ID)
		assert.Equal(t, game.StatusSurrendered, hist[1].Status)
	})

	t.Run("stale slot on finished game can be taken over", func(t *testing.T) {
		s := newStore(t)
		g := game.New("42", fixedSource{})
		require.NoError(t, s.Save(ctx, g))
		require.NoError(t, g.Surrender())
		require.NoError(t, s.Save(ctx, g))
		// DeleteActive skipped

		next := game.New("42", fixedSource{})
		require.NoError(t, s.Save(ctx, next))
		got, err := s.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, next.ID, got.ID)
	})

	t.Run("older snapshot does not overwrite newer", func(t *testing.T) {
		s := newStore(t)
		g := game.New("42", fixedSource{})
		_, err := g.Fire(board.MustCoord("A1"), game.SidePlayer)
		require.NoError(t, err)
		older := g.Clone()
		_, err = g.Fire(board.MustCoord("J10"), game.SideAdversary)
		require.NoError(t, err)
		_, err = g.Fire(board.MustCoord("J10"), game.SidePlayer)
		require.NoError(t, err)

		require.NoError(t, s.Save(ctx, g))
		require.NoError(t, s.Save(ctx, older))

		got, err := s.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, g.Version, got.Version)
		assert.Len(t, got.ShotsOnAdversary, 2)

		// same version is accepted again
		require.NoError(t, s.Save(ctx, g))
	})

	t.Run("older active snapshot does not reclaim a cleared slot", func(t *testing.T) {
		s := newStore(t)
		g := game.New("42", fixedSource{})
		require.NoError(t, s.Save(ctx, g))
		older := g.Clone()
		require.NoError(t, g.Surrender())
		require.NoError(t, s.Save(ctx, g))
		require.NoError(t, s.DeleteActive(ctx, "42"))

		require.NoError(t, s.Save(ctx, older))
		_, err := s.Load(ctx, "42")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reassign moves games and slot", func(t *testing.T) {
		s := newStore(t)
		done := game.New("anon-1", fixedSource{})
		require.NoError(t, done.Surrender())
		require.NoError(t, s.Save(ctx, done))
		g := game.New("anon-1", fixedSource{})
		require.NoError(t, s.Save(ctx, g))

		require.NoError(t, s.Reassign(ctx, "anon-1", "u1"))

		_, err := s.Load(ctx, "anon-1")
		assert.ErrorIs(t, err, ErrNotFound)
		got, err := s.Load(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, g.ID, got.ID)
		assert.Equal(t, "u1", got.PlayerID)

		hist, err := s.History(ctx, "u1", 10)
		require.NoError(t, err)
		assert.Len(t, hist, 2)
		hist, err = s.History(ctx, "anon-1", 10)
		require.NoError(t, err)
		assert.Empty(t, hist)
	})

	t.Run("reassign keeps the target's active game", func(t *testing.T) {
		s := newStore(t)
		guest := game.New("anon-1", fixedSource{})
		require.NoError(t, s.Save(ctx, guest))
		user := game.New("u1", fixedSource{})
		require.NoError(t, s.Save(ctx, user))

		assert.ErrorIs(t, s.Reassign(ctx, "anon-1", "u1"), ErrActiveExists)

		got, err := s.Load(ctx, "anon-1")
		require.NoError(t, err)
		assert.Equal(t, guest.ID, got.ID)
		got, err = s.Load(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("reassign of finished guest game leaves target slot alone", func(t *testing.T) {
		s := newStore(t)
		guest := game.New("anon-1", fixedSource{})
		require.NoError(t, s.Save(ctx, guest))
		require.NoError(t, guest.Surrender())
		require.NoError(t, s.Save(ctx, guest))
		user := game.New("u1", fixedSource{})
		require.NoError(t, s.Save(ctx, user))

		require.NoError(t, s.Reassign(ctx, "anon-1", "u1"))
		got, err := s.Load(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("players are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, game.New("a", fixedSource{})))
		require.NoError(t, s.Save(ctx, game.New("b", fixedSource{})))

		a, err := s.Load(ctx, "a")
		require.NoError(t, err)
		b, err := s.Load(ctx, "b")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenDB(t.TempDir() + "/m.db")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, assets.FS, assets.MigrationsDir))
	require.NoError(t, Migrate(db, assets.FS, assets.MigrationsDir))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}
