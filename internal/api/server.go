// Package api is the HTTP surface of the proxy: route registration, CORS,
// metrics, tracing, and admission control around the request pipeline.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/pixelproxy/internal/apperrors"
	"github.com/dunamismax/pixelproxy/internal/pipeline"
	"github.com/dunamismax/pixelproxy/internal/ratelimit"
)

const optimizeRoute = "/img-optimizer/v1/img"

// Opaque image ids are a 32-char lowercase hex digest plus an extension.
var imageIDPattern = regexp.MustCompile(`^[a-f0-9]{32}\.\w+$`)

type RateLimiter interface {
	Allow(ctx context.Context, subject string) (ratelimit.Decision, error)
}

type Server struct {
	logger   *log.Logger
	pipeline *pipeline.Processor
	limiter  RateLimiter
	tracer   trace.Tracer
	metrics  *metrics
	mux      *http.ServeMux
}

func NewServer(logger *log.Logger, proc *pipeline.Processor, limiter RateLimiter, tracer trace.Tracer) *Server {
	s := &Server{
		logger:   logger,
		pipeline: proc,
		limiter:  limiter,
		tracer:   tracer,
		metrics:  newMetrics(),
		mux:      http.NewServeMux(),
	}
	proc.SetObserver(s.metrics)
	s.routes()
	return s
}

// Handler returns the full middleware chain around the route mux.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.withRateLimit(h)
	h = withCORS(h)
	h = s.withTracing(h)
	h = s.metrics.withHTTPMetrics(h)
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /errors", s.handleErrors)
	s.mux.HandleFunc("GET "+optimizeRoute, s.handleOptimize)
	s.mux.HandleFunc("GET "+optimizeRoute+"/{image_id}", s.handleDirectImage)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "pixelproxy",
	})
}

func (s *Server) handleErrors(w http.ResponseWriter, _ *http.Request) {
	catalog := apperrors.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"errors": catalog,
		"total":  len(catalog),
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	params := parseParams(r)

	// SVG cannot be transcoded; at this layer the source is handed back to
	// the client instead of erroring. The pipeline still rejects SVG for
	// callers that bypass this handler.
	if params.Src != "" && strings.HasSuffix(strings.ToLower(params.Src), ".svg") {
		http.Redirect(w, r, params.Src, http.StatusFound)
		return
	}

	data, contentType, err := s.pipeline.Process(r.Context(), params)
	if err != nil {
		writeProblem(w, apperrors.From(err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Printf("write response failed: %v", err)
	}
}

func (s *Server) handleDirectImage(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("image_id")
	if !imageIDPattern.MatchString(imageID) {
		writeProblem(w, apperrors.InvalidImageURL())
		return
	}

	// No internal storage exists to serve ids from.
	writeProblem(w, apperrors.ImageFetchFailed(imageID))
}

// parseParams maps the query string onto pipeline parameters. Numeric values
// are parsed as unsigned integers; anything that fails to parse, signs
// included, is treated as absent rather than rejected, matching the lenient
// query handling of the optimize endpoint's original clients.
func parseParams(r *http.Request) pipeline.Params {
	q := r.URL.Query()
	params := pipeline.Params{
		Src:    q.Get("src"),
		Format: q.Get("f"),
	}

	if raw := q.Get("w"); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
			width := int(n)
			params.Width = &width
		}
	}
	if raw := q.Get("q"); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 8); err == nil {
			quality := int(n)
			params.Quality = &quality
		}
	}
	return params
}

func writeProblem(w http.ResponseWriter, appErr *apperrors.Error) {
	writeJSON(w, appErr.Code.Status(), appErr.Problem())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
