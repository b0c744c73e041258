package transport

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/series"
)

// LogTransport writes every series to the logger instead of a backend.
// It is meant for dry runs.
type LogTransport struct {
	log logrus.FieldLogger
}

var _ Transport = (*LogTransport)(nil)

// NewLogTransport creates a new LogTransport.
func NewLogTransport(log logrus.FieldLogger) *LogTransport {
	return &LogTransport{log: log.WithField("component", "log_transport")}
}

// Name returns the transport name.
func (t *LogTransport) Name() string { return "log" }

// Prepare opens a new batch.
func (t *LogTransport) Prepare(_ context.Context) (Batch, error) {
	return &logBatch{log: t.log}, nil
}

// Close is a no-op.
func (t *LogTransport) Close() error { return nil }

type logBatch struct {
	log      logrus.FieldLogger
	gauges   []series.Gauge
	counters []series.Counter
	sent     bool
}

func (b *logBatch) AddGauge(g series.Gauge) error {
	if b.sent {
		return ErrBatchSent
	}

	b.gauges = append(b.gauges, g)

	return nil
}

func (b *logBatch) AddCounter(c series.Counter) error {
	if b.sent {
		return ErrBatchSent
	}

	b.counters = append(b.counters, c)

	return nil
}

func (b *logBatch) Send(_ context.Context) error {
	if b.sent {
		return ErrBatchSent
	}

	b.sent = true

	for _, g := range b.gauges {
		b.log.WithFields(logrus.Fields{
			"type":      series.TypeGauge,
			"value":     g.Value,
			"timestamp": g.Timestamp,
			"host":      g.Host,
			"tags":      g.Tags,
		}).Info(g.Name)
	}

	for _, c := range b.counters {
		b.log.WithFields(logrus.Fields{
			"type":      series.TypeCount,
			"value":     c.Value,
			"timestamp": c.Timestamp,
			"host":      c.Host,
			"tags":      c.Tags,
		}).Info(c.Name)
	}

	return nil
}
