package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtnitsch/blog-pulse/internal/common"
	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/scraper"
	"github.com/dtnitsch/blog-pulse/pkg/views"
)

const previewTimeout = 20 * time.Second

// Server exposes the view total and link previews over HTTP.
type Server struct {
	aggregator *views.Aggregator
	scraper    *scraper.Scraper
	logger     zerolog.Logger
}

func NewServer(agg *views.Aggregator, s *scraper.Scraper, logger zerolog.Logger) *Server {
	return &Server{
		aggregator: agg,
		scraper:    s,
		logger:     logger.With().Str("component", "server").Logger(),
	}
}

// Handler returns the routed, request-logging handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/views", s.handleViews)
	mux.HandleFunc("GET /api/link-preview", s.handlePreview)
	return s.logRequest(mux)
}

// GET /api/views[?force=1]
func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	outcome := s.aggregator.LoadTotal(r.Context(), force)
	switch outcome.Status {
	case models.StatusBusy:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "aggregation already running"})
	case models.StatusFailed:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "counter unavailable"})
	default:
		writeJSON(w, http.StatusOK, outcome)
	}
}

// GET /api/link-preview?url=https://...
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing url parameter"})
		return
	}
	target := common.SanitizeURL(raw)
	if !common.ValidURL(target) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid url"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), previewTimeout)
	defer cancel()

	rec := s.scraper.ParseOpenGraph(ctx, target)
	if rec == nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch page"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}
