// Package tags merges tag lists and provides sources of tags that are
// refreshed on every report cycle.
package tags

// Merge returns base followed by extra. When extra is empty base is
// returned as is; otherwise the result is a new slice and neither input
// is modified. Duplicate tags are kept.
func Merge(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}

	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)

	return append(out, extra...)
}
