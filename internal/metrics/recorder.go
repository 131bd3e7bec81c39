package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the engine's Prometheus collectors on a private registry.
// It satisfies the kepler and corridor observer interfaces.
type Recorder struct {
	registry *prometheus.Registry

	propagations       *prometheus.CounterVec
	propagationSeconds prometheus.Histogram

	corridorRuns    *prometheus.CounterVec
	corridorSamples *prometheus.CounterVec
	corridorSeconds prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		propagations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neodefense_propagations_total",
				Help: "Trajectories propagated, by solver mode.",
			},
			[]string{"mode"},
		),
		propagationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "neodefense_propagation_duration_seconds",
			Help:    "Wall time of a single trajectory propagation.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),

		corridorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neodefense_corridor_runs_total",
				Help: "Hazard corridor runs, by outcome.",
			},
			[]string{"outcome"},
		),
		corridorSamples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neodefense_corridor_samples_total",
				Help: "Corridor samples, by status.",
			},
			[]string{"status"},
		),
		corridorSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "neodefense_corridor_duration_seconds",
			Help:    "Wall time of a hazard corridor run.",
			Buckets: prometheus.DefBuckets,
		}),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neodefense_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"path", "method", "code"},
		),
		httpDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "neodefense_http_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.propagations,
		r.propagationSeconds,
		r.corridorRuns,
		r.corridorSamples,
		r.corridorSeconds,
		r.httpRequestsTotal,
		r.httpDurationSeconds,
	)

	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObservePropagation records one finished propagation.
func (r *Recorder) ObservePropagation(degraded bool, elapsed time.Duration) {
	mode := "keplerian"
	if degraded {
		mode = "degraded"
	}
	r.propagations.WithLabelValues(mode).Inc()
	r.propagationSeconds.Observe(elapsed.Seconds())
}

// ObserveCorridor records one finished corridor run.
func (r *Recorder) ObserveCorridor(requested, completed, dropped int, cancelled bool, elapsed time.Duration) {
	outcome := "complete"
	switch {
	case cancelled:
		outcome = "cancelled"
	case dropped > 0:
		outcome = "partial"
	}
	r.corridorRuns.WithLabelValues(outcome).Inc()
	r.corridorSamples.WithLabelValues("completed").Add(float64(completed))
	r.corridorSamples.WithLabelValues("dropped").Add(float64(dropped))
	if skipped := requested - completed - dropped; skipped > 0 {
		r.corridorSamples.WithLabelValues("skipped").Add(float64(skipped))
	}
	r.corridorSeconds.Observe(elapsed.Seconds())
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, req)

		path := normalizeRoute(req.URL.Path)
		r.httpRequestsTotal.WithLabelValues(path, req.Method, strconv.Itoa(rw.statusCode)).Inc()
		r.httpDurationSeconds.WithLabelValues(path, req.Method).Observe(time.Since(start).Seconds())
	})
}

var knownRoutes = map[string]bool{
	"/healthz":            true,
	"/metrics":            true,
	"/api/v1/corridor":    true,
	"/api/v1/deflect":     true,
	"/api/v1/required-dv": true,
	"/api/v1/mass":        true,
	"/api/v1/presets":     true,
}

// normalizeRoute keeps label cardinality bounded: unknown paths collapse to "other".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/presets/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/v1/presets/{name}"
	}
	return "other"
}
