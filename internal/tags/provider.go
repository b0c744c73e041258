package tags

// Provider supplies tags that may change between report cycles. Tags is
// called at most once per cycle.
type Provider interface {
	Tags() []string
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func() []string

// Tags calls f.
func (f ProviderFunc) Tags() []string {
	return f()
}

// Static returns a Provider that always yields the given tags.
func Static(tags ...string) Provider {
	return ProviderFunc(func() []string {
		return tags
	})
}

// Multi combines providers, concatenating their tags in order. Nil
// providers are skipped.
func Multi(providers ...Provider) Provider {
	return ProviderFunc(func() []string {
		var out []string

		for _, p := range providers {
			if p == nil {
				continue
			}

			out = Merge(out, p.Tags())
		}

		return out
	})
}
