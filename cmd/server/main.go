package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"boxoffice-tracker/internal/config"
	"boxoffice-tracker/internal/constants"
	fxmodules "boxoffice-tracker/internal/fx"
	"boxoffice-tracker/internal/middleware"
	"boxoffice-tracker/internal/scheduler"
	"boxoffice-tracker/internal/search"
	"boxoffice-tracker/internal/server"
	"boxoffice-tracker/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	apiServer *server.Server,
	reconcileSvc *service.ReconcileService,
	reindexSvc *service.ReindexService,
	cfg *config.Config,
	db *sql.DB,
	index *search.MovieIndex,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()
	apiServer.Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(c.Handler(mux))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	// Reconciliation runs before the reindex so matching reads a settled
	// index; both stay available on demand through the admin endpoints.
	sched := scheduler.New(logger)
	sched.Add(scheduler.Job{
		Name:   "daily-reconcile",
		Hour:   constants.ReconcileHour,
		Minute: constants.ReconcileMinute,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, constants.ReconcileTimeout)
			defer cancel()
			_, err := reconcileSvc.ReconcileYesterday(ctx)
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:   "search-reindex",
		Hour:   constants.ReindexHour,
		Minute: constants.ReindexMinute,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, constants.ReindexTimeout)
			defer cancel()
			_, err := reindexSvc.Rebuild(ctx)
			return err
		},
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sched.Start()
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			sched.Stop()

			if err := index.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing search index")
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
