// Package naming composes series names from registry names, expansion
// suffixes and a global prefix.
package naming

// Formatter joins a metric name and an expansion suffix.
type Formatter interface {
	Format(name, suffix string) string
}

// FormatterFunc adapts a function to a Formatter.
type FormatterFunc func(name, suffix string) string

// Format calls f(name, suffix).
func (f FormatterFunc) Format(name, suffix string) string {
	return f(name, suffix)
}

// Default joins with a dot: "name.suffix".
var Default Formatter = Separator(".")

// Separator returns a Formatter that joins name and suffix with sep. An
// empty suffix leaves the name unchanged.
func Separator(sep string) Formatter {
	return FormatterFunc(func(name, suffix string) string {
		if suffix == "" {
			return name
		}

		return name + sep + suffix
	})
}

// Prefix returns "prefix.name", or name when prefix is empty.
func Prefix(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}
