package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the crawl counters and the optional scrape server.
//
// Design decision: We use a private registry rather than the default
// one because:
// 1. Tests can create many instances without duplicate registration panics
// 2. The scrape endpoint serves exactly our metrics, no Go runtime noise
// 3. Library consumers embedding the crawler keep their registry clean
type Metrics struct {
	registry *prometheus.Registry

	// pagesFetched counts fetch attempts that returned a response.
	pagesFetched prometheus.Counter

	// fetchErrors counts fetch attempts that failed at the network or
	// protocol level.
	fetchErrors prometheus.Counter

	// quotaDrops counts URLs dropped because their host exhausted its
	// page quota.
	quotaDrops prometheus.Counter

	// findingsTotal counts findings by severity and type as the crawl
	// discovers them, before report-level deduplication.
	findingsTotal *prometheus.CounterVec

	// scanDurationSeconds holds the elapsed time of the last scan.
	scanDurationSeconds prometheus.Gauge

	server *http.Server
	mu     sync.Mutex
	closed bool
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ravenx_pages_fetched_total",
			Help: "Total number of pages fetched",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ravenx_fetch_errors_total",
			Help: "Total number of failed fetch attempts",
		}),
		quotaDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ravenx_quota_drops_total",
			Help: "Total number of URLs dropped by per-host page quotas",
		}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ravenx_findings_total",
			Help: "Total number of findings discovered",
		}, []string{"severity", "type"}),
		scanDurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ravenx_scan_duration_seconds",
			Help: "Wall-clock duration of the last scan",
		}),
	}

	m.registry.MustRegister(
		m.pagesFetched,
		m.fetchErrors,
		m.quotaDrops,
		m.findingsTotal,
		m.scanDurationSeconds,
	)
	return m
}

// RecordPage counts a successful fetch.
func (m *Metrics) RecordPage() {
	if m == nil {
		return
	}
	m.pagesFetched.Inc()
}

// RecordFetchError counts a failed fetch.
func (m *Metrics) RecordFetchError() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

// RecordQuotaDrop counts a URL dropped by a host quota.
func (m *Metrics) RecordQuotaDrop() {
	if m == nil {
		return
	}
	m.quotaDrops.Inc()
}

// RecordFinding counts one finding under its severity and type.
func (m *Metrics) RecordFinding(severity, findingType string) {
	if m == nil {
		return
	}
	m.findingsTotal.WithLabelValues(severity, findingType).Inc()
}

// SetScanDuration records the elapsed scan time.
func (m *Metrics) SetScanDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.scanDurationSeconds.Set(d.Seconds())
}

// Handler returns the scrape handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on addr. The server
// runs until Close is called. Startup errors surface on the returned
// channel so callers can log them without blocking.
func (m *Metrics) Serve(addr string) <-chan error {
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	m.mu.Lock()
	m.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	srv := m.server
	m.mu.Unlock()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
		close(errs)
	}()
	return errs
}

// Close shuts down the scrape server if one is running.
func (m *Metrics) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.server == nil {
		m.closed = true
		return nil
	}
	m.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.server.Shutdown(ctx)
}
