package jsonld

import (
	"bytes"
	"encoding/json"
)

// omap is an insertion-ordered JSON object, mirroring the order
// Jansson's JSON_PRESERVE_ORDER flag gives the original's json_t
// trees: "@id"/"@type" lead, followed by predicates in first-seen
// order, which plain map[string]any (alphabetised by encoding/json)
// cannot reproduce.
type omap struct {
	keys []string
	vals map[string]any
}

func newOmap() *omap {
	return &omap{vals: make(map[string]any)}
}

// Set inserts or replaces key's value, preserving key's original
// position on replace.
func (o *omap) Set(key string, val any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = val
}

func (o *omap) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Delete removes key, if present.
func (o *omap) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *omap) Len() int { return len(o.keys) }

// Keys returns the object's keys in insertion order.
func (o *omap) Keys() []string { return o.keys }

func (o *omap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
