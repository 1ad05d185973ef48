package collector

import (
	"fmt"
	"sort"
)

// SourceYahoo is the source used when an instrument does not name one.
const SourceYahoo = "yahoo"

// Registry resolves an instrument's source name to a Fetcher.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register adds or replaces the fetcher for name.
func (r *Registry) Register(name string, f Fetcher) {
	r.fetchers[name] = f
}

// For returns the fetcher for source; an empty source means yahoo.
func (r *Registry) For(source string) (Fetcher, error) {
	if source == "" {
		source = SourceYahoo
	}
	f, ok := r.fetchers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownSource, source, r.Names())
	}
	return f, nil
}

// Names lists registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
