package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/couchcryptid/nyc-building-dashboard/internal/dashboard"
	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BoundaryPath is where the browser fetches the ZIP polygons.
const BoundaryPath = "/api/boundaries"

const maxDispatchBody = 1 << 20

//go:embed templates/index.html
var indexHTML string

//go:embed static
var staticFiles embed.FS

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// Dashboard is the application behind the HTTP surface.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Layout() dashboard.Layout
	Dispatch(ctx context.Context, event dashboard.Event, in dashboard.Inputs) (dashboard.Result, error)
	ZipSummary(zip string) (domain.ZipSummary, bool)
	BoundaryDocument() []byte
}

// Server serves the dashboard page, its JSON API, and the health, readiness
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	app        Dashboard
	debug      bool
	logger     *slog.Logger
}

// NewServer builds the router. In debug mode 5xx responses carry the
// underlying error text.
func NewServer(addr string, app Dashboard, debug bool, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		app:    app,
		debug:  debug,
		logger: logger,
	}

	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Post("/dispatch", s.handleDispatch)
		r.Get("/boundaries", s.handleBoundaries)
		r.Get("/zipcodes/{zip}", s.handleZipSummary)
	})

	static, _ := fs.Sub(staticFiles, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(app))
	r.Handle("/metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr, "debug", s.debug)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.app.Layout()); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.app.Layout())
}

type dispatchRequest struct {
	Event  dashboard.Event  `json:"event"`
	Inputs dashboard.Inputs `json:"inputs"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDispatchBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.app.Dispatch(r.Context(), req.Event, req.Inputs)
	switch {
	case err == nil:
		sharedobs.WriteJSON(w, http.StatusOK, res)
	case errors.Is(err, dashboard.ErrUnknownEvent), errors.Is(err, dashboard.ErrUnknownMeasurement):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("dispatch failed", "event", req.Event, "error", err)
		s.internalError(w, err)
	}
}

func (s *Server) handleBoundaries(w http.ResponseWriter, _ *http.Request) {
	doc := s.app.BoundaryDocument()
	if len(doc) == 0 {
		writeError(w, http.StatusNotFound, "boundaries not loaded")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(doc) //nolint:errcheck // client went away
}

type measurementSummary struct {
	Name    string   `json:"name"`
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

type zipSummaryResponse struct {
	PostalCode   string               `json:"postal_code"`
	Buildings    int                  `json:"buildings"`
	Measurements []measurementSummary `json:"measurements"`
}

func (s *Server) handleZipSummary(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zip")
	sum, ok := s.app.ZipSummary(zip)
	if !ok {
		writeError(w, http.StatusNotFound, "no buildings in zip code "+zip)
		return
	}

	out := zipSummaryResponse{
		PostalCode:   sum.PostalCode,
		Buildings:    sum.Buildings,
		Measurements: make([]measurementSummary, len(sum.Measurements)),
	}
	for i, m := range sum.Measurements {
		out.Measurements[i] = measurementSummary{Name: m.Name, Count: m.Count}
		if !math.IsNaN(m.Average) {
			avg := m.Average
			out.Measurements[i].Average = &avg
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	msg := "internal server error"
	if s.debug {
		msg = err.Error()
	}
	writeError(w, http.StatusInternalServerError, msg)
}

// logRequests logs one line per request after it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
