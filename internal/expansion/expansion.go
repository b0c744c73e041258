// Package expansion enumerates the statistical facets a histogram, meter
// or timer can be expanded into.
package expansion

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/seriesreporter/internal/metric"
)

// Expansion identifies one statistical facet of a metric. The String
// value is the series name suffix and must never change.
type Expansion uint8

const (
	Count Expansion = iota
	RateMean
	Rate1Minute
	Rate5Minute
	Rate15Minute
	Min
	Mean
	Max
	StdDev
	Median
	P75
	P95
	P98
	P99
	P999

	numExpansions
)

var suffixes = [numExpansions]string{
	Count:        "count",
	RateMean:     "meanRate",
	Rate1Minute:  "1MinuteRate",
	Rate5Minute:  "5MinuteRate",
	Rate15Minute: "15MinuteRate",
	Min:          "min",
	Mean:         "mean",
	Max:          "max",
	StdDev:       "stddev",
	Median:       "median",
	P75:          "p75",
	P95:          "p95",
	P98:          "p98",
	P99:          "p99",
	P999:         "p999",
}

// Enum-style aliases accepted by Parse in addition to the suffixes.
var aliases = map[string]Expansion{
	"count":          Count,
	"rate_mean":      RateMean,
	"rate_1_minute":  Rate1Minute,
	"rate_5_minute":  Rate5Minute,
	"rate_15_minute": Rate15Minute,
	"min":            Min,
	"mean":           Mean,
	"max":            Max,
	"std_dev":        StdDev,
	"median":         Median,
	"p75":            P75,
	"p95":            P95,
	"p98":            P98,
	"p99":            P99,
	"p999":           P999,
}

// Stats are the expansions of a sampled distribution, in emission order.
var Stats = []Expansion{Max, Mean, Min, StdDev, Median, P75, P95, P98, P99, P999}

// Rates are the expansions of a meter, in emission order.
var Rates = []Expansion{Rate1Minute, Rate5Minute, Rate15Minute, RateMean}

// String returns the series suffix of the expansion.
func (e Expansion) String() string {
	if e >= numExpansions {
		return fmt.Sprintf("expansion(%d)", uint8(e))
	}

	return suffixes[e]
}

// ForKind returns the expansions applicable to a metric kind in the
// order they are emitted. Gauges and counters have none.
func ForKind(kind metric.Kind) []Expansion {
	switch kind {
	case metric.KindHistogram:
		return append([]Expansion{Count}, Stats...)
	case metric.KindMeter:
		return append([]Expansion{Count}, Rates...)
	case metric.KindTimer:
		out := make([]Expansion, 0, len(Stats)+1+len(Rates))
		out = append(out, Stats...)
		out = append(out, Count)

		return append(out, Rates...)
	default:
		return nil
	}
}

// Set is a set of expansions.
type Set uint16

// All returns the set of every defined expansion.
func All() Set {
	return Set(1<<numExpansions - 1)
}

// NewSet returns a set containing the given expansions.
func NewSet(es ...Expansion) Set {
	var s Set
	for _, e := range es {
		s = s.With(e)
	}

	return s
}

// With returns a copy of the set that also contains e.
func (s Set) With(e Expansion) Set {
	if e >= numExpansions {
		return s
	}

	return s | 1<<e
}

// Contains reports whether e is in the set.
func (s Set) Contains(e Expansion) bool {
	return e < numExpansions && s&(1<<e) != 0
}

// Len returns the number of expansions in the set.
func (s Set) Len() int {
	n := 0

	for e := Expansion(0); e < numExpansions; e++ {
		if s.Contains(e) {
			n++
		}
	}

	return n
}

// Expansions returns the members of the set in declaration order.
func (s Set) Expansions() []Expansion {
	out := make([]Expansion, 0, s.Len())

	for e := Expansion(0); e < numExpansions; e++ {
		if s.Contains(e) {
			out = append(out, e)
		}
	}

	return out
}

// String returns the comma separated suffixes of the set.
func (s Set) String() string {
	names := make([]string, 0, s.Len())
	for _, e := range s.Expansions() {
		names = append(names, e.String())
	}

	return strings.Join(names, ",")
}

// Parse builds a set from expansion names. Names are matched case
// insensitively against suffixes ("p99", "1MinuteRate") and enum-style
// names ("P99", "RATE_1_MINUTE"). "all" selects every expansion. An
// empty list yields All.
func Parse(names []string) (Set, error) {
	if len(names) == 0 {
		return All(), nil
	}

	var s Set

	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "all" {
			return All(), nil
		}

		e, ok := lookup(name)
		if !ok {
			return 0, fmt.Errorf("unknown expansion %q", raw)
		}

		s = s.With(e)
	}

	return s, nil
}

func lookup(name string) (Expansion, bool) {
	for e := Expansion(0); e < numExpansions; e++ {
		if strings.ToLower(suffixes[e]) == name {
			return e, true
		}
	}

	e, ok := aliases[name]

	return e, ok
}
