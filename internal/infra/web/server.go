package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	ucport "batch-transcriber/internal/domain/ports/usecase"
)

// Health probes for the external collaborators the pipeline depends on.
type Health struct {
	Store   func(ctx context.Context) error
	Queue   func(ctx context.Context) error
	Service func(ctx context.Context) bool
}

type Server struct {
	batches  ucport.BatchManager
	dispatch ucport.Dispatcher
	progress ucport.ProgressReader
	health   Health
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	batches ucport.BatchManager,
	dispatch ucport.Dispatcher,
	progress ucport.ProgressReader,
	health Health,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	wl := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		batches:  batches,
		dispatch: dispatch,
		progress: progress,
		health:   health,
		apiKey:   apiKey,
		log:      &wl,
	}
}

// Router builds the operator API. All batch routes sit behind bearer
// auth; health and metrics stay open for probes and scrapers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/batches", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Get("/progress", s.handleProgress)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/cancel", s.handleCancel)
			r.Delete("/", s.handleDelete)
		})
	})
	return r
}

// authMiddleware provides simple Bearer token authentication for the
// operator API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("operator API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
