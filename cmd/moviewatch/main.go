package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviewatch/db"
	"github.com/Clark-Hu/moviewatch/internal/catalog"
	"github.com/Clark-Hu/moviewatch/internal/catalogsync"
	"github.com/Clark-Hu/moviewatch/internal/config"
	"github.com/Clark-Hu/moviewatch/internal/logger"
	"github.com/Clark-Hu/moviewatch/internal/repository"
	"github.com/Clark-Hu/moviewatch/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "moviewatch",
	Short:         "Movie watchlist web application",
	Long:          `Browse a synchronized movie catalog, keep a personal watchlist, and review movies.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "moviewatch: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
	repo  *repository.Repository
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DBConnTimeoutSecs)*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 log,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &app{cfg: cfg, log: log, store: st, repo: repository.New(st)}, nil
}

func (a *app) close() {
	a.store.Close()
	a.log.Sync()
}

func (a *app) migrate(ctx context.Context) error {
	return a.store.Migrate(ctx, db.Migrations, "migrations")
}

func (a *app) syncService() (*catalogsync.Service, error) {
	client, err := catalog.NewHTTPClient(catalog.Options{
		BaseURL:  a.cfg.CatalogURL,
		Token:    a.cfg.CatalogBearerToken,
		Language: a.cfg.CatalogLanguage,
		Timeout:  time.Duration(a.cfg.CatalogTimeoutSecs) * time.Second,
		Logger:   a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("init catalog client: %w", err)
	}
	return catalogsync.NewService(client, a.repo.Movies, a.repo.Genres,
		catalogsync.WithOverviewPlaceholder(a.cfg.OverviewPlaceholder),
		catalogsync.WithLogger(a.log),
	), nil
}
