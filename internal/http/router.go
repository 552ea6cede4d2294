// Package httpapi assembles the per-instance HTTP router. The service-type
// gate sits in front of every school route so a reader instance refuses
// writes (and a writer refuses reads) before any handler or store runs.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/platform/config"
	platformmetrics "registrar/internal/platform/metrics"
	"registrar/internal/platform/middleware"
	schoolhandler "registrar/internal/school/handler"
)

// Options carries the optional router collaborators.
type Options struct {
	Metrics        *platformmetrics.Metrics
	TokenValidator middleware.TokenValidator
}

// NewRouter wires the middleware chain and the school routes for one
// deployment profile.
func NewRouter(cfg config.Server, schools *schoolhandler.Handler, logger *slog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(opts.Metrics))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ServiceTypeGate(cfg.ServiceType, logger))
		if opts.TokenValidator != nil {
			r.Use(middleware.RequireWriteToken(opts.TokenValidator, logger))
		}
		schools.Register(r)
	})

	return r
}
