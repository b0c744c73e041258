package registry

import (
	"fmt"
	"path"

	"github.com/ethpandaops/seriesreporter/internal/metric"
)

// GlobFilter returns a filter over metric names. A name is kept when it
// matches any include pattern (or include is empty) and no exclude
// pattern. Patterns use path.Match syntax; '*' also matches dots.
func GlobFilter(include, exclude []string) (metric.Filter, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", p, err)
		}
	}

	if len(include) == 0 && len(exclude) == 0 {
		return metric.All, nil
	}

	return func(name string, _ any) bool {
		if len(include) > 0 && !matchAny(include, name) {
			return false
		}

		return !matchAny(exclude, name)
	}, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}

	return false
}
