// Package metric defines the read-only view of an in-process metrics
// registry consumed by the reporter.
package metric

// Kind identifies the type of a registry metric.
type Kind uint8

const (
	KindGauge Kind = iota
	KindCounter
	KindHistogram
	KindMeter
	KindTimer
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGauge:
		return "gauge"
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	case KindMeter:
		return "meter"
	case KindTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// Gauge reports an instantaneous value. The value may be of any type;
// values that cannot be coerced to a finite number are not reported.
type Gauge interface {
	Value() any
}

// Counter reports a running count.
type Counter interface {
	Count() int64
}

// Stats is a point-in-time statistical snapshot of a sampled
// distribution. Timer values are in nanoseconds.
type Stats struct {
	Max    float64
	Mean   float64
	Min    float64
	StdDev float64
	Median float64
	P75    float64
	P95    float64
	P98    float64
	P99    float64
	P999   float64
}

// Histogram reports the distribution of sampled values.
type Histogram interface {
	Count() int64
	Snapshot() Stats
}

// Metered reports a count and per-second rates.
type Metered interface {
	Count() int64
	Rate1() float64
	Rate5() float64
	Rate15() float64
	RateMean() float64
}

// Timer is a histogram of durations plus the rate at which they occur.
type Timer interface {
	Metered
	Snapshot() Stats
}

// Tagged is implemented by metrics that carry their own tags. MetricName,
// when non-empty, replaces the registry key of a gauge.
type Tagged interface {
	Tags() []string
	MetricName() string
}

// Entry is a named registry metric.
type Entry[M any] struct {
	Name   string
	Metric M
}

// Snapshot is a point-in-time view of a registry. Each slice is sorted
// by name in ascending order.
type Snapshot struct {
	Gauges     []Entry[Gauge]
	Counters   []Entry[Counter]
	Histograms []Entry[Histogram]
	Meters     []Entry[Metered]
	Timers     []Entry[Timer]
}

// Len returns the total number of metrics in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Gauges) + len(s.Counters) + len(s.Histograms) +
		len(s.Meters) + len(s.Timers)
}

// Filter decides whether a metric is included in a snapshot.
type Filter func(name string, m any) bool

// All is a Filter that accepts every metric.
func All(string, any) bool { return true }

// Source produces registry snapshots.
type Source interface {
	Snapshot(filter Filter) Snapshot
}
