// Package health serves the reporter's own Prometheus metrics together
// with liveness and pprof endpoints.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/reporter"
)

const namespace = "seriesreporter"

// Config configures the health metrics server.
type Config struct {
	// Addr is the listen address. Defaults to ":9090". Set Disabled to
	// turn the server off.
	Addr string `yaml:"addr"`

	// Disabled turns the health server off.
	Disabled bool `yaml:"disabled"`
}

// Metrics exposes Prometheus metrics about report cycles.
type Metrics struct {
	log      logrus.FieldLogger
	addr     string
	server   *http.Server
	listener net.Listener
	registry *prometheus.Registry

	CyclesTotal          *prometheus.CounterVec // result
	CycleDuration        prometheus.Histogram   // seconds
	PointsStaged         *prometheus.CounterVec // type
	SendErrors           *prometheus.CounterVec // stage
	LastSuccessTimestamp prometheus.Gauge       // unix seconds
	MetricsReported      prometheus.Gauge       // registry metrics in last cycle
	TransportInfo        *prometheus.GaugeVec   // transport

	running atomic.Bool
}

// New creates the health metrics and their registry. The server is
// started separately with Start.
func New(log logrus.FieldLogger, cfg Config) *Metrics {
	reg := prometheus.NewRegistry()

	h := &Metrics{
		log:      log.WithField("component", "health"),
		addr:     cfg.Addr,
		registry: reg,

		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Total report cycles by result.",
			},
			[]string{"result"},
		),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time to translate and send one report cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, // 1ms-5s
		}),
		PointsStaged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "points_staged_total",
				Help:      "Total series points staged on batches by type.",
			},
			[]string{"type"},
		),
		SendErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "send_errors_total",
				Help:      "Total failed report cycles by the stage that failed.",
			},
			[]string{"stage"},
		),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Timestamp of the last cycle whose batch was sent.",
		}),
		MetricsReported: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "metrics_reported",
			Help:      "Number of registry metrics read in the last cycle.",
		}),
		TransportInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transport_info",
				Help:      "Configured transport (always 1).",
			},
			[]string{"transport"},
		),
	}

	reg.MustRegister(
		h.CyclesTotal,
		h.CycleDuration,
		h.PointsStaged,
		h.SendErrors,
		h.LastSuccessTimestamp,
		h.MetricsReported,
		h.TransportInfo,
	)

	return h
}

// Observe records the outcome of a report cycle.
func (h *Metrics) Observe(res reporter.Result) {
	h.CycleDuration.Observe(res.Duration.Seconds())
	h.MetricsReported.Set(float64(res.Metrics))
	h.PointsStaged.WithLabelValues("gauge").Add(float64(res.Gauges))
	h.PointsStaged.WithLabelValues("count").Add(float64(res.Counters))

	if !res.OK() {
		h.CyclesTotal.WithLabelValues("error").Inc()
		h.SendErrors.WithLabelValues(string(res.Stage)).Inc()

		return
	}

	h.CyclesTotal.WithLabelValues("success").Inc()
	h.LastSuccessTimestamp.Set(float64(res.Timestamp))
}

// Start begins serving /metrics, /healthz and /debug/pprof.
func (h *Metrics) Start(_ context.Context) error {
	if h.addr == "" {
		h.addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		h.registry,
		promhttp.HandlerOpts{},
	))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	h.listener = ln

	h.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	h.running.Store(true)

	go func() {
		h.log.WithField("addr", ln.Addr().String()).
			Info("Health metrics server started")

		if err := h.server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			h.log.WithError(err).
				Error("Health metrics server error")
		}

		h.running.Store(false)
	}()

	return nil
}

// Addr returns the actual listener address. Useful when started
// with ":0" to get the OS-assigned port.
func (h *Metrics) Addr() string {
	if h.listener != nil {
		return h.listener.Addr().String()
	}

	return h.addr
}

// Stop shuts down the server.
func (h *Metrics) Stop() error {
	if h.server == nil {
		return nil
	}

	return h.server.Close()
}
