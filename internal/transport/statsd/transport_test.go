package statsd

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/seriesreporter/internal/series"
	"github.com/ethpandaops/seriesreporter/internal/transport"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

type gaugeCall struct {
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	gauges   []gaugeCall
	flushes  int
	closed   bool
	gaugeErr error
}

func (f *fakeClient) Gauge(name string, value float64, tags []string, _ float64) error {
	if f.gaugeErr != nil {
		return f.gaugeErr
	}

	f.gauges = append(f.gauges, gaugeCall{name: name, value: value, tags: tags})

	return nil
}

func (f *fakeClient) Flush() error {
	f.flushes++

	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true

	return nil
}

func TestBatch_SendWritesStagedSeries(t *testing.T) {
	fc := &fakeClient{}
	tr := newWithClient(testLog(), fc)

	b, err := tr.Prepare(context.Background())
	require.NoError(t, err)

	require.NoError(t, b.AddGauge(series.Gauge{Name: "latency.p99", Value: 12.5, Tags: []string{"env:prod"}}))
	require.NoError(t, b.AddCounter(series.Counter{Name: "requests", Value: 42}))

	// Nothing is written before Send.
	assert.Empty(t, fc.gauges)

	require.NoError(t, b.Send(context.Background()))

	require.Len(t, fc.gauges, 2)
	assert.Equal(t, gaugeCall{name: "latency.p99", value: 12.5, tags: []string{"env:prod"}}, fc.gauges[0])
	assert.Equal(t, gaugeCall{name: "requests", value: 42}, fc.gauges[1])
	assert.Equal(t, 1, fc.flushes)

	assert.ErrorIs(t, b.Send(context.Background()), transport.ErrBatchSent)
	assert.ErrorIs(t, b.AddGauge(series.Gauge{Name: "x"}), transport.ErrBatchSent)
}

func TestBatch_SendError(t *testing.T) {
	fc := &fakeClient{gaugeErr: errors.New("buffer full")}
	tr := newWithClient(testLog(), fc)

	b, err := tr.Prepare(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.AddGauge(series.Gauge{Name: "g", Value: 1}))

	err = b.Send(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing g")
	assert.Equal(t, 0, fc.flushes)
}

func TestTransport_Close(t *testing.T) {
	fc := &fakeClient{}
	tr := newWithClient(testLog(), fc)

	assert.Equal(t, "statsd", tr.Name())
	require.NoError(t, tr.Close())
	assert.True(t, fc.closed)
}

func TestTransport_UDP(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	tr, err := New(testLog(), Config{Address: conn.LocalAddr().String(), Namespace: "app."})
	require.NoError(t, err)
	defer tr.Close()

	b, err := tr.Prepare(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.AddGauge(series.Gauge{Name: "latency.mean", Value: 3, Tags: []string{"env:prod"}}))
	require.NoError(t, b.Send(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	buf := make([]byte, 1024)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	payload := string(buf[:n])
	assert.True(t, strings.HasPrefix(payload, "app.latency.mean:3|g"), payload)
	assert.Contains(t, payload, "#env:prod")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}, wantErr: false},
		{name: "udp", cfg: Config{Address: "localhost:8125"}, wantErr: false},
		{name: "uds", cfg: Config{Address: "unix:///var/run/datadog/dsd.socket"}, wantErr: false},
		{name: "uds without path", cfg: Config{Address: "unix://"}, wantErr: true},
		{name: "missing port", cfg: Config{Address: "localhost"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
