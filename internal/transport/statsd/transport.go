// Package statsd sends series batches to a DogStatsD agent.
package statsd

import (
	"context"
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/series"
	"github.com/ethpandaops/seriesreporter/internal/transport"
)

// client is the subset of statsd.ClientInterface the transport uses.
type client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Flush() error
	Close() error
}

var _ client = (*statsd.Client)(nil)

// Transport writes staged series to DogStatsD when a batch is sent. The
// agent stamps series with its own host and arrival time, so Host and
// Timestamp of the points are not transmitted.
type Transport struct {
	log    logrus.FieldLogger
	client client
}

var _ transport.Transport = (*Transport)(nil)

// New creates a DogStatsD transport.
func New(log logrus.FieldLogger, cfg Config) (*Transport, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l := log.WithField("component", "statsd_transport")

	opts := []statsd.Option{
		statsd.WithoutTelemetry(),
		statsd.WithoutClientSideAggregation(),
		statsd.WithWriteTimeout(cfg.WriteTimeout),
		statsd.WithErrorHandler(func(err error) {
			l.WithError(err).Warn("DogStatsD write failed")
		}),
	}

	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}

	c, err := statsd.New(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating statsd client for %s: %w", cfg.Address, err)
	}

	return newWithClient(l, c), nil
}

func newWithClient(log logrus.FieldLogger, c client) *Transport {
	return &Transport{log: log, client: c}
}

// Name returns the transport name.
func (t *Transport) Name() string { return "statsd" }

// Prepare opens a new batch.
func (t *Transport) Prepare(_ context.Context) (transport.Batch, error) {
	return &batch{transport: t}, nil
}

// Close flushes and closes the client.
func (t *Transport) Close() error {
	return t.client.Close()
}

// gaugeLine is one staged DogStatsD gauge.
type gaugeLine struct {
	name  string
	value float64
	tags  []string
}

type batch struct {
	transport *Transport
	lines     []gaugeLine
	sent      bool
}

func (b *batch) AddGauge(g series.Gauge) error {
	if b.sent {
		return transport.ErrBatchSent
	}

	b.lines = append(b.lines, gaugeLine{name: g.Name, value: g.Value, tags: g.Tags})

	return nil
}

// AddCounter stages a counter as a gauge. Counter values are running
// totals while DogStatsD counts are deltas.
func (b *batch) AddCounter(c series.Counter) error {
	if b.sent {
		return transport.ErrBatchSent
	}

	b.lines = append(b.lines, gaugeLine{name: c.Name, value: float64(c.Value), tags: c.Tags})

	return nil
}

func (b *batch) Send(_ context.Context) error {
	if b.sent {
		return transport.ErrBatchSent
	}

	b.sent = true

	for _, l := range b.lines {
		if err := b.transport.client.Gauge(l.name, l.value, l.tags, 1); err != nil {
			return fmt.Errorf("writing %s: %w", l.name, err)
		}
	}

	if err := b.transport.client.Flush(); err != nil {
		return fmt.Errorf("flushing statsd client: %w", err)
	}

	b.transport.log.WithField("series", len(b.lines)).Debug("Sent series via DogStatsD")

	return nil
}
