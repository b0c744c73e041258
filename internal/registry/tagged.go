package registry

import (
	metrics "github.com/rcrowley/go-metrics"
)

// TaggedGauge is a float64 gauge that carries its own tags and an
// optional reported name.
type TaggedGauge struct {
	metrics.GaugeFloat64

	name string
	tags []string
}

// NewTaggedGauge returns a gauge reported as name (or as its registry
// key when name is empty) with the given tags.
func NewTaggedGauge(name string, tags ...string) *TaggedGauge {
	return &TaggedGauge{
		GaugeFloat64: metrics.NewGaugeFloat64(),
		name:         name,
		tags:         tags,
	}
}

// Tags returns the gauge's tags.
func (g *TaggedGauge) Tags() []string { return g.tags }

// MetricName returns the reported name.
func (g *TaggedGauge) MetricName() string { return g.name }

// TaggedCounter is a counter that carries its own tags.
type TaggedCounter struct {
	metrics.Counter

	tags []string
}

// NewTaggedCounter returns a counter with the given tags.
func NewTaggedCounter(tags ...string) *TaggedCounter {
	return &TaggedCounter{Counter: metrics.NewCounter(), tags: tags}
}

// Tags returns the counter's tags.
func (c *TaggedCounter) Tags() []string { return c.tags }

// MetricName is empty; counters are reported under their registry key.
func (c *TaggedCounter) MetricName() string { return "" }
