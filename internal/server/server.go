// Package server exposes the layer store over HTTP for browsing.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/netconflate/internal/conflate"
	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/layer"
)

// Options configures the HTTP handler.
type Options struct {
	// AllowedOrigins defaults to all origins.
	AllowedOrigins []string
	// RateLimit caps requests per second across all clients. 0 disables it.
	RateLimit float64
	// Burst defaults to 1 when RateLimit is set.
	Burst int
}

// LengthResponse is the body of GET /layers/{name}/length.
type LengthResponse struct {
	Name     string  `json:"name"`
	Features int     `json:"features"`
	Length   float64 `json:"length"`
}

type handler struct {
	store  layer.Store
	engine geometry.Engine
}

// New returns the router serving store. Lengths are measured with engine.
func New(store layer.Store, engine geometry.Engine, opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &handler{store: store, engine: engine}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if opts.RateLimit > 0 {
		r.Use(rateLimiter(rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.Burst, 1))))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/layers", func(r chi.Router) {
		r.Get("/", h.listLayers)
		r.Get("/{name}", h.getLayer)
		r.Get("/{name}/length", h.layerLength)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listLayers(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []layer.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *handler) getLayer(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := layer.WriteGeoJSON(w, n); err != nil {
		zap.L().Warn("server: write geojson", zap.String("layer", n.Name), zap.Error(err))
	}
}

func (h *handler) layerLength(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	length, err := conflate.Length(r.Context(), h.engine, n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LengthResponse{Name: n.Name, Features: n.Len(), Length: length})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	if eris.Is(err, layer.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "layer not found"})
		return
	}
	zap.L().Error("server: request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// rateLimiter rejects requests with 429 once the limiter has no tokens left.
func rateLimiter(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
