package reporter

import (
	"fmt"
	"strings"
	"time"
)

var units = map[string]time.Duration{
	"ns":           time.Nanosecond,
	"nanoseconds":  time.Nanosecond,
	"us":           time.Microsecond,
	"µs":           time.Microsecond,
	"microseconds": time.Microsecond,
	"ms":           time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"seconds":      time.Second,
	"m":            time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"days":         24 * time.Hour,
}

// ParseUnit parses a time unit name such as "seconds", "ms" or "MINUTES".
func ParseUnit(name string) (time.Duration, error) {
	u, ok := units[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown time unit %q", name)
	}

	return u, nil
}

// convertRate turns a per-second rate into a rate per unit.
func convertRate(perSecond float64, unit time.Duration) float64 {
	return perSecond * unit.Seconds()
}

// convertDuration turns nanoseconds into multiples of unit.
func convertDuration(nanos float64, unit time.Duration) float64 {
	return nanos / float64(unit.Nanoseconds())
}
