package gateway

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
)

// Gateway dispatches by path prefix and verb to one of three pools. The
// routing table mirrors the downstream service-type policy: a write verb is
// never forwarded to the reader pool and a read verb never to the writer
// pool, so a policy violation is rejected here instead of one hop later.
type Gateway struct {
	logger      *slog.Logger
	metrics     *Metrics
	defaultPool *Pool
	readerPool  *Pool
	writerPool  *Pool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMetrics enables routing-outcome counters.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// New builds the pools from config. Reader and writer pools are optional;
// when absent their prefixed routes fall through to the default pool.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	defaultPool, err := NewPool("default", cfg.Pools.Default)
	if err != nil {
		return nil, err
	}
	g := &Gateway{logger: logger, defaultPool: defaultPool}
	for _, opt := range opts {
		opt(g)
	}

	if len(cfg.Pools.Reader) > 0 {
		if g.readerPool, err = NewPool("reader", cfg.Pools.Reader); err != nil {
			return nil, err
		}
	}
	if len(cfg.Pools.Writer) > 0 {
		if g.writerPool, err = NewPool("writer", cfg.Pools.Writer); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Handler returns the gateway HTTP router.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.HandleFunc("/api/*", g.route)

	return r
}

// route applies the path/verb table. Prefixed paths are rewritten so the
// downstream instance sees the same /api/... shape regardless of which pool
// served it.
func (g *Gateway) route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/api/reader/"):
		if r.Method != http.MethodGet {
			g.reject(w, r, "reader pool serves GET requests only")
			return
		}
		g.forward(w, r, g.pool(g.readerPool), strings.TrimPrefix(path, "/api/reader"))

	case strings.HasPrefix(path, "/api/writer/"):
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			g.reject(w, r, "writer pool serves write requests only")
			return
		}
		g.forward(w, r, g.pool(g.writerPool), strings.TrimPrefix(path, "/api/writer"))

	default:
		g.forward(w, r, g.defaultPool, path)
	}
}

func (g *Gateway) pool(p *Pool) *Pool {
	if p == nil {
		return g.defaultPool
	}
	return p
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, pool *Pool, downstreamPath string) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
		r.Header.Set("X-Request-Id", requestID)
	}

	r.URL.Path = "/api" + strings.TrimPrefix(downstreamPath, "/api")

	g.logger.InfoContext(r.Context(), "forwarding request",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"pool", pool.Name(),
	)
	if g.metrics != nil {
		g.metrics.Forwards.WithLabelValues(pool.Name()).Inc()
	}
	pool.ServeHTTP(w, r)
}

func (g *Gateway) reject(w http.ResponseWriter, r *http.Request, message string) {
	g.logger.WarnContext(r.Context(), "request rejected by routing policy",
		"method", r.Method,
		"path", r.URL.Path,
	)
	if g.metrics != nil {
		g.metrics.Rejections.Inc()
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, message))
}
