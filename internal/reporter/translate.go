package reporter

import (
	"math"

	"github.com/ethpandaops/seriesreporter/internal/expansion"
	"github.com/ethpandaops/seriesreporter/internal/metric"
	"github.com/ethpandaops/seriesreporter/internal/naming"
	"github.com/ethpandaops/seriesreporter/internal/series"
	"github.com/ethpandaops/seriesreporter/internal/tags"
	"github.com/ethpandaops/seriesreporter/internal/transport"
)

// emitter stages points for one cycle. It is created by RunCycle and
// handed to every translate call.
type emitter struct {
	batch     transport.Batch
	timestamp int64
	host      string
	gauges    int
	counters  int
}

// gauge stages a gauge point. Non-finite values are dropped.
func (e *emitter) gauge(name string, value float64, t []string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	if err := e.batch.AddGauge(series.Gauge{
		Name:      name,
		Value:     value,
		Timestamp: e.timestamp,
		Host:      e.host,
		Tags:      t,
	}); err != nil {
		return err
	}

	e.gauges++

	return nil
}

func (e *emitter) counter(name string, value int64, t []string) error {
	if err := e.batch.AddCounter(series.Counter{
		Name:      name,
		Value:     value,
		Timestamp: e.timestamp,
		Host:      e.host,
		Tags:      t,
	}); err != nil {
		return err
	}

	e.counters++

	return nil
}

// instanceTags appends the metric's own tags when it carries any.
func instanceTags(m any, global []string) []string {
	if t, ok := m.(metric.Tagged); ok {
		return tags.Merge(global, t.Tags())
	}

	return global
}

func (r *Reporter) translateGauge(e *emitter, name string, g metric.Gauge, global []string) error {
	if t, ok := g.(metric.Tagged); ok && t.MetricName() != "" {
		name = t.MetricName()
	}

	value, ok := toFloat(g.Value())
	if !ok {
		return nil
	}

	return e.gauge(r.prefixed(name), value, instanceTags(g, global))
}

func (r *Reporter) translateCounter(e *emitter, name string, c metric.Counter, global []string) error {
	return e.counter(r.prefixed(name), c.Count(), instanceTags(c, global))
}

func (r *Reporter) translateHistogram(e *emitter, name string, h metric.Histogram, global []string) error {
	base := r.prefixed(name)
	merged := instanceTags(h, global)

	if r.opts.expansions.Contains(expansion.Count) {
		if err := e.counter(base, h.Count(), merged); err != nil {
			return err
		}
	}

	return r.emitStats(e, base, h.Snapshot(), merged, func(v float64) float64 { return v })
}

func (r *Reporter) translateMeter(e *emitter, name string, m metric.Metered, global []string) error {
	return r.emitMetered(e, r.prefixed(name), m, instanceTags(m, global))
}

func (r *Reporter) translateTimer(e *emitter, name string, t metric.Timer, global []string) error {
	base := r.prefixed(name)
	merged := instanceTags(t, global)

	toUnit := func(v float64) float64 { return convertDuration(v, r.opts.durationUnit) }

	if err := r.emitStats(e, base, t.Snapshot(), merged, toUnit); err != nil {
		return err
	}

	return r.emitMetered(e, base, t, merged)
}

// emitMetered stages the count and rate facets of m using tags that are
// already merged.
func (r *Reporter) emitMetered(e *emitter, base string, m metric.Metered, merged []string) error {
	if r.opts.expansions.Contains(expansion.Count) {
		if err := e.counter(base, m.Count(), merged); err != nil {
			return err
		}
	}

	for _, exp := range expansion.Rates {
		if !r.opts.expansions.Contains(exp) {
			continue
		}

		value := convertRate(rateValue(m, exp), r.opts.rateUnit)

		if err := e.gauge(r.opts.formatter.Format(base, exp.String()), value, merged); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reporter) emitStats(
	e *emitter,
	base string,
	stats metric.Stats,
	merged []string,
	convert func(float64) float64,
) error {
	for _, exp := range expansion.Stats {
		if !r.opts.expansions.Contains(exp) {
			continue
		}

		value := convert(statValue(stats, exp))

		if err := e.gauge(r.opts.formatter.Format(base, exp.String()), value, merged); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reporter) prefixed(name string) string {
	return naming.Prefix(r.opts.prefix, name)
}

func statValue(s metric.Stats, e expansion.Expansion) float64 {
	switch e {
	case expansion.Max:
		return s.Max
	case expansion.Mean:
		return s.Mean
	case expansion.Min:
		return s.Min
	case expansion.StdDev:
		return s.StdDev
	case expansion.Median:
		return s.Median
	case expansion.P75:
		return s.P75
	case expansion.P95:
		return s.P95
	case expansion.P98:
		return s.P98
	case expansion.P99:
		return s.P99
	case expansion.P999:
		return s.P999
	default:
		return math.NaN()
	}
}

func rateValue(m metric.Metered, e expansion.Expansion) float64 {
	switch e {
	case expansion.Rate1Minute:
		return m.Rate1()
	case expansion.Rate5Minute:
		return m.Rate5()
	case expansion.Rate15Minute:
		return m.Rate15()
	case expansion.RateMean:
		return m.RateMean()
	default:
		return math.NaN()
	}
}

// toFloat coerces a gauge value to a number. Values of any other type
// are not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
