package reporter

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/seriesreporter/internal/metric"
	"github.com/ethpandaops/seriesreporter/internal/series"
	"github.com/ethpandaops/seriesreporter/internal/transport"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)

	return log
}

type point struct {
	kind      string
	name      string
	value     float64
	timestamp int64
	host      string
	tags      []string
}

type fakeTransport struct {
	prepareErr error
	// sendErrs is consumed one entry per Send.
	sendErrs []error
	batches  []*fakeBatch
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Prepare(context.Context) (transport.Batch, error) {
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}

	b := &fakeBatch{transport: f}
	f.batches = append(f.batches, b)

	return b, nil
}

func (f *fakeTransport) Close() error { return nil }

// sentBatches returns the batches whose Send succeeded.
func (f *fakeTransport) sentBatches() []*fakeBatch {
	var out []*fakeBatch

	for _, b := range f.batches {
		if b.sent && b.sendErr == nil {
			out = append(out, b)
		}
	}

	return out
}

type fakeBatch struct {
	transport *fakeTransport
	points    []point
	sends     int
	sent      bool
	sendErr   error
	addErr    error
}

func (b *fakeBatch) AddGauge(g series.Gauge) error {
	if b.addErr != nil {
		return b.addErr
	}

	b.points = append(b.points, point{
		kind: series.TypeGauge, name: g.Name, value: g.Value,
		timestamp: g.Timestamp, host: g.Host, tags: g.Tags,
	})

	return nil
}

func (b *fakeBatch) AddCounter(c series.Counter) error {
	if b.addErr != nil {
		return b.addErr
	}

	b.points = append(b.points, point{
		kind: series.TypeCount, name: c.Name, value: float64(c.Value),
		timestamp: c.Timestamp, host: c.Host, tags: c.Tags,
	})

	return nil
}

func (b *fakeBatch) Send(context.Context) error {
	b.sends++
	b.sent = true

	if len(b.transport.sendErrs) > 0 {
		b.sendErr = b.transport.sendErrs[0]
		b.transport.sendErrs = b.transport.sendErrs[1:]
	}

	return b.sendErr
}

type gauge struct {
	value any
}

func (g gauge) Value() any { return g.value }

type counter struct {
	count int64
}

func (c counter) Count() int64 { return c.count }

type histogram struct {
	count int64
	stats metric.Stats
}

func (h histogram) Count() int64           { return h.count }
func (h histogram) Snapshot() metric.Stats { return h.stats }

type meter struct {
	count                          int64
	rate1, rate5, rate15, rateMean float64
}

func (m meter) Count() int64      { return m.count }
func (m meter) Rate1() float64    { return m.rate1 }
func (m meter) Rate5() float64    { return m.rate5 }
func (m meter) Rate15() float64   { return m.rate15 }
func (m meter) RateMean() float64 { return m.rateMean }

type timer struct {
	meter
	stats metric.Stats
}

func (t timer) Snapshot() metric.Stats { return t.stats }

type tagged struct {
	name string
	tags []string
}

func (t tagged) Tags() []string      { return t.tags }
func (t tagged) MetricName() string { return t.name }

type taggedGauge struct {
	gauge
	tagged
}

type taggedTimer struct {
	timer
	tagged
}

type panicGauge struct{}

func (panicGauge) Value() any { panic("gauge exploded") }

type fakeSource struct {
	snap    metric.Snapshot
	filters int
}

func (s *fakeSource) Snapshot(filter metric.Filter) metric.Snapshot {
	s.filters++

	var out metric.Snapshot

	for _, c := range s.snap.Counters {
		if filter(c.Name, c.Metric) {
			out.Counters = append(out.Counters, c)
		}
	}

	return out
}
