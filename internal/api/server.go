// Package api exposes the determination and pricing engines over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/store"
)

// Config tunes the HTTP surface.
type Config struct {
	AllowedOrigins []string
	RateLimit      float64 // requests per second across all clients; <= 0 disables
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

const defaultMaxBodyBytes = 1 << 20

// Server holds the dependencies shared by all handlers.
type Server struct {
	svc   *estimate.Service
	store store.Store
	cfg   Config
}

// NewServer creates a Server. st may be nil, in which case the estimate
// retrieval routes are not mounted and save requests are refused.
func NewServer(svc *estimate.Service, st store.Store, cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{svc: svc, store: st, cfg: cfg}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), max(s.cfg.RateBurst, 1))))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/determine", s.handleDetermine)
		r.Post("/price", s.handlePrice)
		r.Post("/overrides/validate", s.handleValidateOverride)
		r.Get("/categorize", s.handleCategorize)
		r.Get("/categories", s.handleCategories)

		if s.store != nil {
			r.Get("/estimates", s.handleListEstimates)
			r.Get("/estimates/{id}", s.handleGetEstimate)
			r.Get("/estimates/{id}/overrides", s.handleListOverrides)
		}
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.AllowedOrigins
}
