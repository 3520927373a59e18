package index

import (
	"sort"
	"strings"
)

// Factory produces a freshly parametrized indicator from a comparison
// operator, so the greater/lower/equal variants come from one template
// without duplication.
type Factory func(op Operator) (Indicator, error)

// Catalog maps index identifiers to indicator instances. Lookup matches the
// registration key or the indicator's own short name, case-insensitively.
// Read-mostly: register everything at startup and treat the catalog as
// immutable afterwards.
type Catalog struct {
	entries map[string]Indicator
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Indicator)}
}

// Register adds an indicator under the given name. A later registration with
// the same name wins.
func (c *Catalog) Register(name string, ind Indicator) {
	c.entries[strings.ToLower(name)] = ind
}

// RegisterComparisons instantiates the factory for every comparison operator
// and registers each variant under its operator short name.
func (c *Catalog) RegisterComparisons(f Factory) error {
	for _, op := range []Operator{OpGreater, OpGreaterOrEqual, OpLower, OpLowerOrEqual, OpEqual} {
		ind, err := f(op)
		if err != nil {
			return err
		}
		c.Register(op.ShortName(), ind)
	}
	return nil
}

// Lookup returns the indicator registered under the query, matching either
// the registration key or the indicator's short name. Returns nil when
// nothing matches; the caller decides whether that is fatal.
func (c *Catalog) Lookup(query string) Indicator {
	q := strings.ToLower(strings.TrimSpace(query))
	if ind, ok := c.entries[q]; ok {
		return ind
	}
	for _, ind := range c.entries {
		if strings.EqualFold(ind.ShortName(), q) {
			return ind
		}
	}
	return nil
}

// Names returns the sorted registration keys, for listings.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
