package liquid

// OrderedMap is an insertion-ordered mapping a Context value can hold,
// mirroring jsonld's omap: plain Go maps carry no program-visible
// insertion order, so callers that need `for x in y` to honour
// spec'd "reverse insertion order" semantics build their mapping
// values with this type instead of a bare map[string]any.
type OrderedMap struct {
	keys []string
	vals map[string]any
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: make(map[string]any)}
}

// Set inserts or replaces key's value, preserving key's original
// position on replace.
func (m *OrderedMap) Set(key string, val any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *OrderedMap) Len() int { return len(m.keys) }

// Keys returns the map's keys in insertion order.
func (m *OrderedMap) Keys() []string { return m.keys }

// valuesReversed returns the map's values in reverse insertion order,
// the order `for x in y` iterates a mapping in.
func (m *OrderedMap) valuesReversed() []any {
	out := make([]any, len(m.keys))
	for i, k := range m.keys {
		out[len(m.keys)-1-i] = m.vals[k]
	}
	return out
}
