package serverhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"pricebid-recon/internal/config"
	"pricebid-recon/internal/middleware"
	recHnd "pricebid-recon/internal/reconcile/handler"
	"pricebid-recon/server/http/handlers"
)

type Deps struct {
	Reconcile *recHnd.Handler
	Health    *handlers.Health
	Metrics   http.Handler // nil disables /metrics
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> request id -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(cfg.MaxUploadBytes()))

	r.Method(http.MethodGet, "/health", deps.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Post("/match-file", deps.Reconcile.MatchFile)
	r.Post("/similar-items/compare-price", deps.Reconcile.ComparePrice)

	return r
}
