package registry

import (
	"strings"
	"testing"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/seriesreporter/internal/metric"
)

func names[M any](entries []metric.Entry[M]) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}

	return out
}

func TestSnapshot_GroupsAndSortsByKind(t *testing.T) {
	r := metrics.NewRegistry()

	metrics.GetOrRegisterCounter("requests.b", r).Inc(2)
	metrics.GetOrRegisterCounter("requests.a", r).Inc(5)
	metrics.GetOrRegisterGauge("queue.depth", r).Update(7)
	metrics.GetOrRegisterGaugeFloat64("cpu.load", r).Update(0.25)
	metrics.GetOrRegisterMeter("events", r).Mark(3)

	h := metrics.GetOrRegisterHistogram("sizes", r, metrics.NewUniformSample(1028))
	for i := int64(1); i <= 100; i++ {
		h.Update(i)
	}

	tm := metrics.GetOrRegisterTimer("latency", r)
	tm.Update(2 * time.Millisecond)
	tm.Update(4 * time.Millisecond)

	snap := New(r).Snapshot(metric.All)

	assert.Equal(t, 7, snap.Len())
	assert.Equal(t, []string{"cpu.load", "queue.depth"}, names(snap.Gauges))
	assert.Equal(t, []string{"requests.a", "requests.b"}, names(snap.Counters))
	assert.Equal(t, []string{"sizes"}, names(snap.Histograms))
	assert.Equal(t, []string{"events"}, names(snap.Meters))
	assert.Equal(t, []string{"latency"}, names(snap.Timers))

	assert.Equal(t, 0.25, snap.Gauges[0].Metric.Value())
	assert.Equal(t, int64(7), snap.Gauges[1].Metric.Value())
	assert.Equal(t, int64(5), snap.Counters[0].Metric.Count())
	assert.Equal(t, int64(3), snap.Meters[0].Metric.Count())

	hist := snap.Histograms[0].Metric
	assert.Equal(t, int64(100), hist.Count())

	stats := hist.Snapshot()
	assert.Equal(t, 100.0, stats.Max)
	assert.Equal(t, 1.0, stats.Min)
	assert.InDelta(t, 50.5, stats.Mean, 1e-9)
	assert.InDelta(t, 50.5, stats.Median, 1e-9)
	assert.Equal(t, 100.0, stats.P999)

	timer := snap.Timers[0].Metric
	assert.Equal(t, int64(2), timer.Count())
	assert.Equal(t, float64(4*time.Millisecond), timer.Snapshot().Max)
	assert.Equal(t, float64(2*time.Millisecond), timer.Snapshot().Min)
}

func TestSnapshot_Filter(t *testing.T) {
	r := metrics.NewRegistry()
	metrics.GetOrRegisterCounter("http.requests", r)
	metrics.GetOrRegisterCounter("db.queries", r)

	snap := New(r).Snapshot(func(name string, _ any) bool {
		return strings.HasPrefix(name, "http.")
	})

	assert.Equal(t, []string{"http.requests"}, names(snap.Counters))
}

func TestSnapshot_NilFilterAcceptsAll(t *testing.T) {
	r := metrics.NewRegistry()
	metrics.GetOrRegisterCounter("a", r)

	assert.Equal(t, 1, New(r).Snapshot(nil).Len())
}

func TestSnapshot_PreservesTags(t *testing.T) {
	r := metrics.NewRegistry()

	g := NewTaggedGauge("disk.free", "mount:/data")
	g.Update(12.5)
	require.NoError(t, r.Register("disk.free.data", g))

	c := NewTaggedCounter("shard:1")
	c.Inc(4)
	require.NoError(t, r.Register("writes", c))

	snap := New(r).Snapshot(metric.All)
	require.Len(t, snap.Gauges, 1)
	require.Len(t, snap.Counters, 1)

	tg, ok := snap.Gauges[0].Metric.(metric.Tagged)
	require.True(t, ok)
	assert.Equal(t, "disk.free", tg.MetricName())
	assert.Equal(t, []string{"mount:/data"}, tg.Tags())
	assert.Equal(t, 12.5, snap.Gauges[0].Metric.Value())

	tc, ok := snap.Counters[0].Metric.(metric.Tagged)
	require.True(t, ok)
	assert.Equal(t, []string{"shard:1"}, tc.Tags())
	assert.Equal(t, int64(4), snap.Counters[0].Metric.Count())

	_, ok = New(r).Snapshot(func(name string, _ any) bool { return name == "writes" }).Counters[0].Metric.(metric.Tagged)
	assert.True(t, ok)
}

func TestSnapshot_GaugeReadsLiveValue(t *testing.T) {
	r := metrics.NewRegistry()
	g := metrics.GetOrRegisterGauge("depth", r)
	g.Update(1)

	snap := New(r).Snapshot(metric.All)
	g.Update(9)

	assert.Equal(t, int64(9), snap.Gauges[0].Metric.Value())
}

func TestEnableRuntimeStats(t *testing.T) {
	r := New(metrics.NewRegistry())
	r.EnableRuntimeStats()
	r.EnableRuntimeStats()

	snap := r.Snapshot(metric.All)

	assert.Contains(t, names(snap.Gauges), "runtime.MemStats.HeapAlloc")
	assert.Contains(t, names(snap.Gauges), "debug.GCStats.NumGC")
}
