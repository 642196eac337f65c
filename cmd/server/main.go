package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/movie-budget-game/db"
	"github.com/Clark-Hu/movie-budget-game/internal/challenge"
	"github.com/Clark-Hu/movie-budget-game/internal/config"
	httpserver "github.com/Clark-Hu/movie-budget-game/internal/http"
	"github.com/Clark-Hu/movie-budget-game/internal/repository"
	"github.com/Clark-Hu/movie-budget-game/internal/store"
	"github.com/Clark-Hu/movie-budget-game/internal/tmdb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[budget-game] ", log.LstdFlags|log.Lshortfile)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	health, repo, closeStore, err := openStore(dbCtx, cfg, logger)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	catalog, err := tmdb.NewHTTPClient(cfg.TMDBURL, cfg.TMDBAPIKey, time.Duration(cfg.TMDBTimeoutSecs)*time.Second, logger)
	if err != nil {
		log.Fatalf("init tmdb client: %v", err)
	}

	games := challenge.New(catalog, repo.Daily, challenge.Options{
		ImageBaseURL: cfg.TMDBImageBaseURL,
		MaxPage:      cfg.TMDBMaxPage,
		Seed:         cfg.RandomSeed,
		Logger:       logger,
	})
	server := httpserver.New(cfg, health, games, logger)
	logger.Printf("listening on :%s (store=%s)", cfg.Port, cfg.StoreDriver)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}

// openStore connects the configured driver and returns its health checker,
// repositories and a close function.
func openStore(ctx context.Context, cfg config.Config, logger *log.Logger) (store.Checker, *repository.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		st, err := store.NewPostgres(ctx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Apply(ctx, st.Pool()); err != nil {
			st.Close()
			return nil, nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		closeFn := func() {
			if stat := st.Stats(); stat != nil {
				logger.Printf("store: pool stats acquired=%d idle=%d total=%d", stat.AcquiredConns(), stat.IdleConns(), stat.TotalConns())
			}
			st.Close()
		}
		return st, repository.New(st), closeFn, nil

	case config.DriverMongo:
		mg, err := store.NewMongo(ctx, cfg.MongoURI, store.MongoOptions{
			Database:    cfg.MongoDatabase,
			ConnTimeout: time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			MaxPoolSize: uint64(cfg.DBMaxConns),
			Logger:      logger,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mg.Close(closeCtx); err != nil {
				logger.Printf("close mongo: %v", err)
			}
		}
		return mg, repository.NewMongo(mg.Database()), closeFn, nil

	default:
		logger.Printf("using in-memory store; daily challenges are lost on restart")
		return store.Memory{}, repository.NewMemory(), func() {}, nil
	}
}
