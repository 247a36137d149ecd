package main

import (
	"database/sql"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/seabattle/assets"
	"github.com/robalobadob/seabattle/internal/accounts"
	"github.com/robalobadob/seabattle/internal/board"
	"github.com/robalobadob/seabattle/internal/config"
	"github.com/robalobadob/seabattle/internal/game"
	"github.com/robalobadob/seabattle/internal/httpserver"
	"github.com/robalobadob/seabattle/internal/leaderboard"
	"github.com/robalobadob/seabattle/internal/match"
	"github.com/robalobadob/seabattle/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()
	if err := store.Migrate(db, assets.FS, assets.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	games := store.WithTimeout(gameStore(cfg, db), cfg.StoreTimeout)
	svc := match.New(games, board.NewGenerator(cfg.BoardStrict, cfg.BoardRetryBudget, nil), game.NewAdversary(nil))
	srv := httpserver.New(cfg, svc, accounts.NewStore(db), leaderboard.NewStore(db))

	log.Info().Str("port", cfg.Port).Str("store", cfg.GameStore).Dur("storeTimeout", cfg.StoreTimeout).Msg("starting seabattle server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func gameStore(cfg config.Config, db *sql.DB) store.Store {
	switch cfg.GameStore {
	case "memory":
		return store.NewMemoryStore()
	case "sqlite":
	default:
		log.Warn().Str("store", cfg.GameStore).Msg("unknown GAME_STORE, using sqlite")
	}
	return store.NewSQLite(db)
}
