package kscreen

// Unwrap strips all variant layers off v. Any other value is returned
// unchanged.
func Unwrap(v Value) Value {
	for v.kind == Variant && v.inner != nil {
		v = *v.inner
	}
	return v
}

// record is a Map with its top-level fields unwrapped.
type record map[string]Value

// recordOf unwraps v and, if it's a Map, returns its fields with one level of
// variants removed from each. Nested values stay as they are until looked at.
// If a key occurs twice, the first occurrence wins.
func recordOf(v Value) (record, bool) {
	v = Unwrap(v)
	if v.kind != Map {
		return nil, false
	}
	r := make(record, len(v.fields))
	for _, f := range v.fields {
		if _, dup := r[f.Key]; dup {
			continue
		}
		r[f.Key] = Unwrap(f.Value)
	}
	return r, true
}

// first returns the first of the given keys present in r.
func (r record) first(keys ...string) (Value, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v.kind != Invalid {
			return v, true
		}
	}
	return Value{}, false
}

// listOf turns a List or a Map into the list of its values. Map values are
// taken in field order.
func listOf(v Value) []Value {
	v = Unwrap(v)
	switch v.kind {
	case List:
		return v.list
	case Map:
		items := make([]Value, 0, len(v.fields))
		for _, f := range v.fields {
			items = append(items, f.Value)
		}
		return items
	}
	return nil
}
