// ABOUTME: HTTP transport for the command dispatcher
// ABOUTME: Serves POST /invoke/{command}, the health check and the metrics endpoint

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/erpdesk/internal/apperr"
	"github.com/2389/erpdesk/internal/auth"
)

// maxBodyBytes caps the size of a command's argument document.
const maxBodyBytes = 1 << 20

// Response is the envelope of every /invoke reply. Data is always present
// on success, even when null.
type Response struct {
	Data  any              `json:"data"`
	Error *apperr.Response `json:"error,omitempty"`
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// MetricsPath serves Gatherer when both are set.
	MetricsPath string
	Gatherer    prometheus.Gatherer
	// Ready reports whether the store finished initializing. A nil Ready
	// is always ready.
	Ready func() bool
	// AllowedOrigins enables CORS for the listed webview origins.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter returns the HTTP handler for d.
func NewRouter(d *Dispatcher, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.Ready != nil && !opts.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/invoke/{command}", func(w http.ResponseWriter, req *http.Request) {
		serveInvoke(d, w, req)
	})

	if opts.MetricsPath != "" && opts.Gatherer != nil {
		r.Handle(opts.MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func serveInvoke(d *Dispatcher, w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperr.Validation("request body too large"))
			return
		}
		writeError(w, apperr.Validation("cannot read request body"))
		return
	}

	var args json.RawMessage
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		args = trimmed
	}

	ctx := auth.WithSession(r.Context(), &auth.Session{Token: auth.BearerToken(r)})
	result, err := d.Invoke(ctx, name, args)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Data: result})
}

func writeError(w http.ResponseWriter, err error) {
	resp := apperr.ToResponse(err)
	writeJSON(w, apperr.HTTPStatus(resp.Kind), Response{Error: &resp})
}

func writeJSON(w http.ResponseWriter, status int, v Response) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"data":null,"error":{"kind":"serialization_error","message":"Failed to encode response"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
