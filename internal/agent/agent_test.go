package agent

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/seriesreporter/internal/transport/http"
	"github.com/ethpandaops/seriesreporter/internal/transport/statsd"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Interval = time.Second
	cfg.Transport.Type = TransportLog
	cfg.Health.Disabled = true

	return cfg
}

func TestAgent_ReportsOnSchedule(t *testing.T) {
	reg := metrics.NewRegistry()
	metrics.GetOrRegisterCounter("requests", reg).Inc(3)

	a, err := New(testLog(), testConfig(), reg)
	require.NoError(t, err)
	assert.Same(t, reg, a.Registry())

	require.NoError(t, a.Start(context.Background()))

	impl := a.(*agent)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(impl.health.CyclesTotal.WithLabelValues("success")) >= 1
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(impl.health.MetricsReported))
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.health.TransportInfo.WithLabelValues("log")))

	require.NoError(t, a.Stop())
}

func TestAgent_FlushOnStop(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = time.Hour

	a, err := New(testLog(), cfg, metrics.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop())

	impl := a.(*agent)
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.health.CyclesTotal.WithLabelValues("success")))
}

func TestAgent_InvalidInterval(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = 0

	_, err := New(testLog(), cfg, nil)
	assert.Error(t, err)
}

func TestAgent_StartFailsOnBadHost(t *testing.T) {
	cfg := testConfig()
	cfg.Host.Source = "gce"

	a, err := New(testLog(), cfg, metrics.NewRegistry())
	require.NoError(t, err)

	assert.Error(t, a.Start(context.Background()))
	require.NoError(t, a.Stop())
}

func TestNewTransport(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	tests := []struct {
		name     string
		cfg      TransportConfig
		wantName string
		wantErr  bool
	}{
		{name: "log", cfg: TransportConfig{Type: TransportLog}, wantName: "log"},
		{
			name:     "http",
			cfg:      TransportConfig{Type: TransportHTTP, HTTP: httpConfig("key")},
			wantName: "http",
		},
		{
			name:     "statsd",
			cfg:      TransportConfig{Type: TransportStatsd, Statsd: statsdConfig(conn.LocalAddr().String())},
			wantName: "statsd",
		},
		{name: "http without key", cfg: TransportConfig{Type: TransportHTTP}, wantErr: true},
		{name: "unknown", cfg: TransportConfig{Type: "carrier-pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := newTransport(context.Background(), testLog(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, tr.Name())
			assert.NoError(t, tr.Close())
		})
	}
}

func httpConfig(apiKey string) http.Config {
	return http.Config{APIKey: apiKey}
}

func statsdConfig(addr string) statsd.Config {
	return statsd.Config{Address: addr}
}
