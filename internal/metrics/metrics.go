// Package metrics exposes Prometheus counters for remote requests and page
// merges. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PagesApplied    *prometheus.CounterVec
	DatasetSize     prometheus.Gauge
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tmdb_tui_requests_total",
			Help: "Total number of requests to TMDB",
		}, []string{"endpoint", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tmdb_tui_request_duration_seconds",
			Help:    "Duration of TMDB requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		PagesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tmdb_tui_pages_applied_total",
			Help: "Page results handed to the catalog, by merge mode and outcome",
		}, []string{"mode", "outcome"}),
		DatasetSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tmdb_tui_dataset_size",
			Help: "Number of distinct movies currently loaded",
		}),
	}
}

// ObserveRequest records one HTTP request. status 0 means the request never
// got a response.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObservePage(mode, outcome string) {
	if m == nil {
		return
	}
	m.PagesApplied.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) SetDatasetSize(n int) {
	if m == nil {
		return
	}
	m.DatasetSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
