package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"pricebid-recon/internal/cache"
	"pricebid-recon/internal/config"
	"pricebid-recon/internal/metrics"
	recHnd "pricebid-recon/internal/reconcile/handler"
	"pricebid-recon/internal/reconcile/model"
	recSvc "pricebid-recon/internal/reconcile/service"
	"pricebid-recon/internal/store/memory"
	"pricebid-recon/internal/store/postgres"
	serverhttp "pricebid-recon/server/http"
	"pricebid-recon/server/http/handlers"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.Pinger{}
	var (
		catalog recSvc.CatalogStore
		prices  recSvc.PriceCapStore
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("database")
		}
		defer db.Close()
		checks["database"] = db.PingContext

		store := postgres.New(db, recSvc.Normalize, logger)
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(db, logger); err != nil {
				logger.Fatal().Err(err).Msg("migrations")
			}
			backfill(ctx, store, logger)
		}
		catalog, prices = store, store
	} else {
		store := memory.New(recSvc.Normalize)
		if cfg.CatalogFixture != "" {
			if err := store.LoadFile(cfg.CatalogFixture); err != nil {
				logger.Fatal().Err(err).Str("path", cfg.CatalogFixture).Msg("catalog fixture")
			}
		}
		logger.Warn().Str("fixture", cfg.CatalogFixture).Msg("DATABASE_URL not set, using in-memory catalog")
		catalog, prices = store, store
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		catalog = cache.NewCatalog(catalog, rdb, cfg.CandidateCacheTTL, logger)
	}

	rec := metrics.New()
	svc := recSvc.New(catalog, prices, logger,
		recSvc.WithRecorder(rec),
		recSvc.WithCandidateLimit(cfg.CandidateLimit),
	)

	r := serverhttp.NewRouter(cfg, logger, serverhttp.Deps{
		Reconcile: recHnd.New(svc, logger),
		Health:    handlers.NewHealth(version, checks),
		Metrics:   rec.Handler(),
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
	logger.Info().Str("addr", cfg.Addr()).Str("version", version).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("bye")
}

// backfill refreshes normalized text and links orphaned price caps for both catalogs.
func backfill(ctx context.Context, store *postgres.Store, logger zerolog.Logger) {
	for _, kind := range []model.FileType{model.FileTypeComposition, model.FileTypeImplant} {
		if err := store.RefreshNormalizedText(ctx, kind); err != nil {
			logger.Error().Err(err).Str("kind", kind.String()).Msg("refresh normalized text")
			continue
		}
		if _, err := store.BackfillPriceCapLinks(ctx, kind); err != nil {
			logger.Error().Err(err).Str("kind", kind.String()).Msg("backfill price caps")
		}
	}
}
