package reporter

import (
	"time"

	"github.com/ethpandaops/seriesreporter/internal/clock"
	"github.com/ethpandaops/seriesreporter/internal/expansion"
	"github.com/ethpandaops/seriesreporter/internal/metric"
	"github.com/ethpandaops/seriesreporter/internal/naming"
	"github.com/ethpandaops/seriesreporter/internal/tags"
	"github.com/ethpandaops/seriesreporter/internal/transport"
)

type options struct {
	host         string
	expansions   expansion.Set
	rateUnit     time.Duration
	durationUnit time.Duration
	tags         []string
	prefix       string
	dynamicTags  tags.Provider
	filter       metric.Filter
	clock        clock.Clock
	formatter    naming.Formatter
	transport    transport.Transport
	source       metric.Source
}

func defaultOptions() options {
	return options{
		expansions:   expansion.All(),
		rateUnit:     time.Second,
		durationUnit: time.Millisecond,
		filter:       metric.All,
		clock:        clock.Real(),
		formatter:    naming.Default,
	}
}

// Option configures a Reporter.
type Option func(*options)

// WithHost sets the host label attached to every series.
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithExpansions sets the facets emitted for histograms, meters and
// timers.
func WithExpansions(set expansion.Set) Option {
	return func(o *options) { o.expansions = set }
}

// WithRateUnit sets the unit meter rates are reported in. Rates are
// per second by default.
func WithRateUnit(unit time.Duration) Option {
	return func(o *options) {
		if unit > 0 {
			o.rateUnit = unit
		}
	}
}

// WithDurationUnit sets the unit timer durations are reported in.
// Durations are in milliseconds by default.
func WithDurationUnit(unit time.Duration) Option {
	return func(o *options) {
		if unit > 0 {
			o.durationUnit = unit
		}
	}
}

// WithTags sets the static tags attached to every series.
func WithTags(t ...string) Option {
	return func(o *options) { o.tags = t }
}

// WithPrefix sets a prefix joined to every registry name with a dot.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithDynamicTags sets a provider queried once per cycle for tags
// appended to the static tags.
func WithDynamicTags(p tags.Provider) Option {
	return func(o *options) { o.dynamicTags = p }
}

// WithFilter restricts the metrics Report reads from the source.
func WithFilter(f metric.Filter) Option {
	return func(o *options) {
		if f != nil {
			o.filter = f
		}
	}
}

// WithClock sets the clock used to timestamp cycles.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithFormatter sets how expansion suffixes are joined to names.
func WithFormatter(f naming.Formatter) Option {
	return func(o *options) {
		if f != nil {
			o.formatter = f
		}
	}
}

// WithTransport sets the transport batches are sent through. Required.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithSource sets the registry Report reads from.
func WithSource(s metric.Source) Option {
	return func(o *options) { o.source = s }
}
