// Package recipe implements order resolution: it turns a user-supplied
// order (a package name or an inline property list) into a fully merged
// recipe describing how to fetch one package from source control.
//
// The package provides three layers:
//
//   - Props: an ordered key/value property set with right-biased merging,
//     the foundation recipes are composed from.
//   - Order: the closed set of order shapes a user can submit.
//   - Resolver: consults providers and modification hooks to produce a
//     validated Recipe from an Order.
package recipe

// Prop is a single key/value property.
type Prop struct {
	Key   string
	Value any
}

// Props is an ordered key/value property set. Keys appear at most once;
// order is first-appearance order, which Merge preserves.
type Props []Prop

// Get returns the value for key and whether it is present.
func (p Props) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (p Props) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// With returns a copy of p with key set to value. An existing key is
// overwritten in place; a new key is appended.
func (p Props) With(key string, value any) Props {
	out := make(Props, len(p))
	copy(out, p)
	for i, kv := range out {
		if kv.Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Prop{Key: key, Value: value})
}

// Merge combines property sets into one. Nil sets are ignored. The result
// contains the union of all keys; when a key appears in multiple inputs the
// value from the right-most (last-supplied) input wins. Key order is the
// order of first appearance across the inputs, left to right.
func Merge(sets ...Props) Props {
	var out Props
	index := make(map[string]int)
	for _, set := range sets {
		for _, kv := range set {
			if i, ok := index[kv.Key]; ok {
				out[i].Value = kv.Value
				continue
			}
			index[kv.Key] = len(out)
			out = append(out, kv)
		}
	}
	return out
}
