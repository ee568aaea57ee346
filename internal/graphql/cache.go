package graphql

import "sync"

// MergeFunc combines the cached value of a root field with a freshly fetched
// one. Values are decoded JSON: map[string]any, []any or scalars.
type MergeFunc func(existing, incoming any) any

// Replace discards the cached value and keeps the incoming one.
func Replace(_, incoming any) any {
	return incoming
}

// MergeStructural deep-merges objects key by key and lists index by index.
// Keys and trailing list elements missing from incoming are kept from
// existing. Scalars are replaced.
func MergeStructural(existing, incoming any) any {
	switch in := incoming.(type) {
	case map[string]any:
		ex, ok := existing.(map[string]any)
		if !ok {
			return in
		}
		out := make(map[string]any, len(ex)+len(in))
		for k, v := range ex {
			out[k] = v
		}
		for k, v := range in {
			out[k] = MergeStructural(ex[k], v)
		}
		return out
	case []any:
		ex, ok := existing.([]any)
		if !ok {
			return in
		}
		n := len(ex)
		if len(in) > n {
			n = len(in)
		}
		out := make([]any, n)
		for i := range out {
			switch {
			case i < len(in) && i < len(ex):
				out[i] = MergeStructural(ex[i], in[i])
			case i < len(in):
				out[i] = in[i]
			default:
				out[i] = ex[i]
			}
		}
		return out
	default:
		return incoming
	}
}

// MergePolicies maps root field names to their merge function. Fields
// without an entry use MergeStructural.
type MergePolicies map[string]MergeFunc

// DefaultPolicies replaces the list-valued catalog fields on every refetch.
// The single-product field is keyed without its id argument, so it is
// replaced too: one product is never merged into another.
func DefaultPolicies() MergePolicies {
	return MergePolicies{
		"products":   Replace,
		"categories": Replace,
		"product":    Replace,
	}
}

// Cache holds the latest value of each root query field.
type Cache struct {
	mu       sync.RWMutex
	fields   map[string]any
	policies MergePolicies
}

// NewCache creates a cache. A nil policies map means DefaultPolicies.
func NewCache(policies MergePolicies) *Cache {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Cache{fields: make(map[string]any), policies: policies}
}

// Write merges incoming into the cached value of field and returns the
// result.
func (c *Cache) Write(field string, incoming any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	merge, ok := c.policies[field]
	if !ok {
		merge = MergeStructural
	}
	existing, cached := c.fields[field]
	if !cached {
		c.fields[field] = incoming
		return incoming
	}
	merged := merge(existing, incoming)
	c.fields[field] = merged
	return merged
}

// Read returns the cached value of field.
func (c *Cache) Read(field string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.fields[field]
	return v, ok
}

// Evict drops field so the next query refetches it from scratch.
func (c *Cache) Evict(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fields, field)
}

// Reset drops every cached field.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = make(map[string]any)
}
