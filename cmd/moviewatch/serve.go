package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/moviewatch/internal/config"
	httpserver "github.com/Clark-Hu/moviewatch/internal/http"
	"github.com/Clark-Hu/moviewatch/internal/identity"
	"github.com/Clark-Hu/moviewatch/internal/movies"
	"github.com/Clark-Hu/moviewatch/internal/reviews"
	"github.com/Clark-Hu/moviewatch/internal/watchlist"
	"github.com/Clark-Hu/moviewatch/web"
)

const sessionSweepInterval = 15 * time.Minute

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long:  `Serve the watchlist web UI and the catalog sync endpoints until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if serveMigrate {
			if err := a.migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return serve(ctx, a)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, a *app) error {
	sessions, closeSessions, err := sessionStore(ctx, a)
	if err != nil {
		return err
	}
	defer closeSessions()

	syncSvc, err := a.syncService()
	if err != nil {
		return err
	}
	tmpl, err := httpserver.NewTemplates(web.Templates())
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	srv := httpserver.New(a.cfg, httpserver.Deps{
		Health: a.store,
		Identity: identity.NewGateway(a.repo.Users, sessions, identity.Options{
			SessionTTL:   time.Duration(a.cfg.SessionTTLHours) * time.Hour,
			SecureCookie: a.cfg.SessionCookieSecure || a.cfg.Production(),
			Logger:       a.log,
		}),
		Movies:    movies.NewService(a.repo.Movies, a.repo.Genres),
		Watchlist: watchlist.NewManager(a.repo.Watchlist, a.repo.Movies),
		Reviews:   reviews.NewManager(a.repo.Reviews),
		Sync:      syncSvc,
		Templates: tmpl,
		Static:    web.Static(),
		Logger:    a.log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if a.cfg.SessionStore == config.SessionStorePostgres {
		g.Go(func() error {
			sweepSessions(gctx, a)
			return nil
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		a.log.Info("server stopped")
		return nil
	}
	return err
}

func sessionStore(ctx context.Context, a *app) (identity.SessionStore, func(), error) {
	switch a.cfg.SessionStore {
	case config.SessionStoreRedis:
		rs, err := identity.NewRedisSessionStore(ctx, identity.RedisOptions{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	case config.SessionStoreMemory:
		a.log.Warn("sessions are kept in memory and lost on restart")
		return identity.NewMemorySessionStore(), func() {}, nil
	default:
		return identity.NewPGSessionStore(a.repo.Sessions), func() {}, nil
	}
}

// sweepSessions deletes expired session rows until ctx ends.
func sweepSessions(ctx context.Context, a *app) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.repo.Sessions.DeleteExpired(ctx)
			if err != nil {
				a.log.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				a.log.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
