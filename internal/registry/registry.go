// Package registry exposes a go-metrics registry as a metric.Source.
package registry

import (
	"sort"

	metrics "github.com/rcrowley/go-metrics"

	"github.com/ethpandaops/seriesreporter/internal/metric"
)

// percentiles are the quantiles copied into metric.Stats, in field order.
var percentiles = []float64{0.5, 0.75, 0.95, 0.98, 0.99, 0.999}

// Registry adapts a go-metrics registry. Histogram, meter and timer
// values are read from snapshots taken while the report snapshot is
// built, so one report sees consistent statistics per metric.
type Registry struct {
	registry metrics.Registry
	runtime  bool
}

var _ metric.Source = (*Registry)(nil)

// New wraps r. A nil r uses metrics.DefaultRegistry.
func New(r metrics.Registry) *Registry {
	if r == nil {
		r = metrics.DefaultRegistry
	}

	return &Registry{registry: r}
}

// Registry returns the wrapped registry for metric registration.
func (r *Registry) Registry() metrics.Registry {
	return r.registry
}

// EnableRuntimeStats registers Go runtime memory and GC metrics. They
// are refreshed at the start of every Snapshot.
func (r *Registry) EnableRuntimeStats() {
	if r.runtime {
		return
	}

	metrics.RegisterRuntimeMemStats(r.registry)
	metrics.RegisterDebugGCStats(r.registry)

	r.runtime = true
}

// Snapshot returns every registered metric accepted by filter, grouped
// by kind and sorted by name. The filter sees the go-metrics value.
func (r *Registry) Snapshot(filter metric.Filter) metric.Snapshot {
	if filter == nil {
		filter = metric.All
	}

	if r.runtime {
		metrics.CaptureRuntimeMemStatsOnce(r.registry)
		metrics.CaptureDebugGCStatsOnce(r.registry)
	}

	var snap metric.Snapshot

	r.registry.Each(func(name string, i interface{}) {
		if !filter(name, i) {
			return
		}

		tagged, _ := i.(metric.Tagged)

		switch m := i.(type) {
		case metrics.Gauge:
			var g metric.Gauge = gaugeValue{value: func() any { return m.Value() }}
			if tagged != nil {
				g = taggedGauge{Gauge: g, Tagged: tagged}
			}

			snap.Gauges = append(snap.Gauges, metric.Entry[metric.Gauge]{Name: name, Metric: g})
		case metrics.GaugeFloat64:
			var g metric.Gauge = gaugeValue{value: func() any { return m.Value() }}
			if tagged != nil {
				g = taggedGauge{Gauge: g, Tagged: tagged}
			}

			snap.Gauges = append(snap.Gauges, metric.Entry[metric.Gauge]{Name: name, Metric: g})
		case metrics.Counter:
			var c metric.Counter = counter{count: m.Count()}
			if tagged != nil {
				c = taggedCounter{Counter: c, Tagged: tagged}
			}

			snap.Counters = append(snap.Counters, metric.Entry[metric.Counter]{Name: name, Metric: c})
		case metrics.Histogram:
			var h metric.Histogram = newHistogram(m.Snapshot())
			if tagged != nil {
				h = taggedHistogram{Histogram: h, Tagged: tagged}
			}

			snap.Histograms = append(snap.Histograms, metric.Entry[metric.Histogram]{Name: name, Metric: h})
		case metrics.Meter:
			var mt metric.Metered = newMeter(m.Snapshot())
			if tagged != nil {
				mt = taggedMeter{Metered: mt, Tagged: tagged}
			}

			snap.Meters = append(snap.Meters, metric.Entry[metric.Metered]{Name: name, Metric: mt})
		case metrics.Timer:
			var t metric.Timer = newTimer(m.Snapshot())
			if tagged != nil {
				t = taggedTimer{Timer: t, Tagged: tagged}
			}

			snap.Timers = append(snap.Timers, metric.Entry[metric.Timer]{Name: name, Metric: t})
		}
	})

	sortEntries(snap.Gauges)
	sortEntries(snap.Counters)
	sortEntries(snap.Histograms)
	sortEntries(snap.Meters)
	sortEntries(snap.Timers)

	return snap
}

func sortEntries[M any](entries []metric.Entry[M]) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}

// gaugeValue reads the live gauge when the reporter asks for it.
type gaugeValue struct {
	value func() any
}

func (g gaugeValue) Value() any { return g.value() }

type counter struct {
	count int64
}

func (c counter) Count() int64 { return c.count }

// sampled holds the parts of a go-metrics Histogram or Timer snapshot
// shared by both.
type sampled interface {
	Max() int64
	Mean() float64
	Min() int64
	StdDev() float64
	Percentiles([]float64) []float64
}

func statsOf(s sampled) metric.Stats {
	ps := s.Percentiles(percentiles)

	return metric.Stats{
		Max:    float64(s.Max()),
		Mean:   s.Mean(),
		Min:    float64(s.Min()),
		StdDev: s.StdDev(),
		Median: ps[0],
		P75:    ps[1],
		P95:    ps[2],
		P98:    ps[3],
		P99:    ps[4],
		P999:   ps[5],
	}
}

type histogram struct {
	count int64
	stats metric.Stats
}

func newHistogram(h metrics.Histogram) histogram {
	return histogram{count: h.Count(), stats: statsOf(h)}
}

func (h histogram) Count() int64           { return h.count }
func (h histogram) Snapshot() metric.Stats { return h.stats }

type meter struct {
	count                          int64
	rate1, rate5, rate15, rateMean float64
}

func newMeter(m metrics.Meter) meter {
	return meter{
		count:    m.Count(),
		rate1:    m.Rate1(),
		rate5:    m.Rate5(),
		rate15:   m.Rate15(),
		rateMean: m.RateMean(),
	}
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

func newTimer(t metrics.Timer) timer {
	return timer{
		meter: meter{
			count:    t.Count(),
			rate1:    t.Rate1(),
			rate5:    t.Rate5(),
			rate15:   t.Rate15(),
			rateMean: t.RateMean(),
		},
		stats: statsOf(t),
	}
}

func (t timer) Snapshot() metric.Stats { return t.stats }

type taggedGauge struct {
	metric.Gauge
	metric.Tagged
}

type taggedCounter struct {
	metric.Counter
	metric.Tagged
}

type taggedHistogram struct {
	metric.Histogram
	metric.Tagged
}

type taggedMeter struct {
	metric.Metered
	metric.Tagged
}

type taggedTimer struct {
	metric.Timer
	metric.Tagged
}
