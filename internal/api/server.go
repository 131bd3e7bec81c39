// Package api is thin HTTP JSON glue over the trajectory service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/san-kum/neodefense/internal/config"
	"github.com/san-kum/neodefense/internal/corridor"
	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/massmodel"
	"github.com/san-kum/neodefense/internal/metrics"
)

// Engine is the part of trajectory.Service the handlers call.
type Engine interface {
	CorridorOptions() corridor.Options
	GenerateCorridor(ctx context.Context, sv dynamo.StateVector, opts corridor.Options) (*dynamo.HazardCorridor, error)
	Propagate(ctx context.Context, sv dynamo.StateVector) (dynamo.TrajectorySample, error)
	Deflect(ctx context.Context, sv dynamo.StateVector, p dynamo.DeflectionParameters) (*dynamo.DeflectionResult, error)
	RequiredDeltaV(asteroidMass, ltiDays float64) (float64, error)
	Mu() float64
}

// Deps are the collaborators behind the routes. Masses and Recorder are
// optional; their routes are not registered when nil.
type Deps struct {
	Engine   Engine
	Masses   *massmodel.Estimator
	Recorder *metrics.Recorder
	Defaults config.DeflectionConfig
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.Defaults.InterceptorMass == 0 {
		deps.Defaults.InterceptorMass = config.DefaultInterceptorMass
	}
	if deps.Defaults.LeadTimeDays == 0 {
		deps.Defaults.LeadTimeDays = config.DefaultLeadTimeDays
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("POST /api/v1/corridor", corridorHandler(logger, deps))
	mux.HandleFunc("POST /api/v1/deflect", deflectHandler(logger, deps))
	mux.HandleFunc("GET /api/v1/required-dv", requiredDvHandler(logger, deps))
	mux.HandleFunc("GET /api/v1/presets", presetsHandler)
	mux.HandleFunc("GET /api/v1/presets/{name}", presetHandler)
	if deps.Masses != nil {
		mux.HandleFunc("GET /api/v1/mass", massHandler(logger, deps.Masses))
	}
	if deps.Recorder != nil {
		mux.Handle("GET /metrics", deps.Recorder.Handler())
	}

	// metrics -> logging -> mux
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	if deps.Recorder != nil {
		handler = deps.Recorder.Middleware(handler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Handler is the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "component", "api", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// probePath returns true for paths scraped often enough that they should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
