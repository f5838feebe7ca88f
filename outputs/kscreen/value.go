package kscreen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Int     // 32 bit and narrower integers
	WideInt // 64 bit integers
	Float
	String
	List
	Map
	Variant
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case WideInt:
		return "wideint"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	case Variant:
		return "variant"
	}
	return "invalid"
}

// Field is a single key of a Map value.
type Field struct {
	Key   string
	Value Value
}

// Value is a dynamically typed value as exchanged with the display
// configuration service. The zero Value is Invalid.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	list   []Value
	fields []Field

	// signature and content of a Variant
	sig   string
	inner *Value
}

func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }
func IntValue(i int32) Value { return Value{kind: Int, i: int64(i)} }
func WideIntValue(i int64) Value { return Value{kind: WideInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }
func StringValue(s string) Value { return Value{kind: String, s: s} }
func ListValue(items ...Value) Value { return Value{kind: List, list: items} }

// MapValue builds a Map from the given fields, keeping their order.
func MapValue(fields ...Field) Value { return Value{kind: Map, fields: fields} }

// VariantValue wraps v into a variant with the given type signature.
func VariantValue(sig string, v Value) Value {
	return Value{kind: Variant, sig: sig, inner: &v}
}

func (v Value) Kind() Kind { return v.kind }

// Signature returns the type signature of a Variant.
func (v Value) Signature() string { return v.sig }

// Items returns the elements of a List.
func (v Value) Items() []Value {
	if v.kind != List {
		return nil
	}
	return v.list
}

// Fields returns the fields of a Map, in order.
func (v Value) Fields() []Field {
	if v.kind != Map {
		return nil
	}
	return v.fields
}

// Get looks up a key in a Map. It doesn't look through variants.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.Fields() {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Inner returns the content of a Variant.
func (v Value) Inner() (Value, bool) {
	if v.kind != Variant || v.inner == nil {
		return Value{}, false
	}
	return *v.inner, true
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%v>", v.kind)
	}
	return string(b)
}

// MarshalJSON encodes the value as plain JSON. Variants are encoded as
// {"signature": ..., "value": ...}, which FromJSON reads back as a variant.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Bool:
		return json.Marshal(v.b)
	case Int, WideInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case Float:
		return json.Marshal(v.f)
	case String:
		return json.Marshal(v.s)
	case List:
		items := v.list
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(items)
	case Map:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Key)
			if err != nil {
				return nil, err
			}
			val, err := f.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case Variant:
		inner, err := v.inner.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Signature string          `json:"signature"`
			Value     json.RawMessage `json:"value"`
		}{v.sig, inner})
	}
	return []byte("null"), nil
}

// FromJSON decodes a JSON document, such as a captured dump of a service
// reply, into a Value. See FromAny for how variants are detected.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("unable to decode json: %w", err)
	}
	return FromAny(raw), nil
}

// sortKeys orders map keys numerically if they're all integers (ordinal
// keys), and lexically otherwise.
func sortKeys(keys []string) {
	ordinal := true
	for _, k := range keys {
		if _, err := strconv.ParseInt(k, 10, 64); err != nil {
			ordinal = false
			break
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if ordinal {
			a, _ := strconv.ParseInt(keys[i], 10, 64)
			b, _ := strconv.ParseInt(keys[j], 10, 64)
			return a < b
		}
		return keys[i] < keys[j]
	})
}
