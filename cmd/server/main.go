package main // Entry point package

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tv-show-tracker/internal/auth"
	"github.com/iliyamo/tv-show-tracker/internal/config"
	"github.com/iliyamo/tv-show-tracker/internal/database"
	"github.com/iliyamo/tv-show-tracker/internal/handler"
	"github.com/iliyamo/tv-show-tracker/internal/middleware"
	"github.com/iliyamo/tv-show-tracker/internal/queue"
	"github.com/iliyamo/tv-show-tracker/internal/repository"
	"github.com/iliyamo/tv-show-tracker/internal/router"
)

func main() {
	// Load .env when present; real environments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, dialect, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if cfg.Seed {
		if err := database.Seed(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	// Authenticator over the static credential table.
	authn, err := auth.New(auth.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		BcryptCost: cfg.BcryptCost,
	}, cfg.AuthUsers)
	if err != nil {
		log.Fatalf("build authenticator: %v", err)
	}

	// Pick the watch ledger shape for this deployment.
	shows := repository.NewShowRepo(db)
	var ledger repository.WatchLedger
	if cfg.WatchMode == config.WatchModeGlobal {
		ledger = repository.NewGlobalWatchRepo(db)
	} else {
		ledger = repository.NewWatchRepo(db, dialect)
	}

	// Optional Redis-backed middleware; a nil client disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, cache and rate limiting disabled")
	}
	bearer := middleware.BearerAuth(authn)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true

	router.RegisterPublic(e, handler.NewAuthHandler(authn), authn.Usernames(), limit)
	router.RegisterShows(e, handler.NewShowHandler(shows, ledger),
		handler.NewWatchHandler(shows, ledger, cfg.Events), bearer, limit, cache)
	router.RegisterUsers(e, handler.NewUserHandler(authn, ledger), bearer, limit, cache)

	if cfg.Events {
		go func() {
			if err := queue.StartWatchConsumer(); err != nil {
				log.Printf("watch consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s mode=%s driver=%s)", addr, cfg.Env, cfg.WatchMode, cfg.DBDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// openStore opens MySQL when configured and SQLite otherwise. SQLite is
// the development default and needs no external server.
func openStore(cfg config.Config) (*sql.DB, database.Dialect, error) {
	if cfg.DBDriver == string(database.DialectMySQL) {
		db, err := database.OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return db, database.DialectMySQL, err
	}
	db, err := database.OpenSQLite(cfg.DBPath)
	return db, database.DialectSQLite, err
}
