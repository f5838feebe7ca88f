package kscreen

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/godbus/dbus/v5"
)

// FromAny converts loosely typed data into a Value. It understands the types
// produced by godbus (dbus.Variant, dbus.ObjectPath, ...) as well as the
// output of encoding/json.
//
// Loose data can't distinguish a variant container from a record, so a map
// with a "value" key and no "name" key is taken to be a variant. This is the
// only place that guess is made; everything downstream works on explicit
// Variant values.
func FromAny(x interface{}) Value {
	switch x := x.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case dbus.Variant:
		return VariantValue(x.Signature().String(), FromAny(x.Value()))
	case dbus.ObjectPath:
		return StringValue(string(x))
	case dbus.Signature:
		return StringValue(x.String())
	case bool:
		return BoolValue(x)
	case uint8:
		return IntValue(int32(x))
	case int16:
		return IntValue(int32(x))
	case uint16:
		return IntValue(int32(x))
	case int32:
		return IntValue(x)
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return IntValue(int32(x))
		}
		return WideIntValue(int64(x))
	case uint32:
		return WideIntValue(int64(x))
	case int64:
		return WideIntValue(x)
	case uint64:
		if x > math.MaxInt64 {
			return FloatValue(float64(x))
		}
		return WideIntValue(int64(x))
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return IntValue(int32(i))
			}
			return WideIntValue(i)
		}
		if f, err := x.Float64(); err == nil {
			return FloatValue(f)
		}
		return StringValue(x.String())
	case string:
		return StringValue(x)
	case []interface{}:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, FromAny(item))
		}
		return ListValue(items...)
	case map[string]dbus.Variant:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sortKeys(keys)
		fields := make([]Field, 0, len(x))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: FromAny(x[k])})
		}
		return MapValue(fields...)
	case map[string]interface{}:
		return fromLooseMap(x)
	}

	// other slices and string-keyed maps, such as []map[string]dbus.Variant.
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, FromAny(rv.Index(i).Interface()))
		}
		return ListValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromAny(m)
	}
	return Value{}
}

func fromLooseMap(m map[string]interface{}) Value {
	inner, hasValue := m["value"]
	_, hasName := m["name"]
	if hasValue && !hasName {
		sig, _ := m["signature"].(string)
		return VariantValue(sig, FromAny(inner))
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortKeys(keys)
	fields := make([]Field, 0, len(m))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: FromAny(m[k])})
	}
	return MapValue(fields...)
}

// ToDBus converts a Value into the types godbus marshals: maps become a{sv},
// lists become av.
func ToDBus(v Value) interface{} {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return int32(v.i)
	case WideInt:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	case List:
		items := make([]dbus.Variant, 0, len(v.list))
		for _, item := range v.list {
			if item.kind == Invalid {
				continue
			}
			items = append(items, toVariant(item))
		}
		return items
	case Map:
		m := make(map[string]dbus.Variant, len(v.fields))
		for _, f := range v.fields {
			if f.Value.kind == Invalid {
				continue
			}
			m[f.Key] = toVariant(f.Value)
		}
		return m
	case Variant:
		return toVariant(*v.inner)
	}
	return nil
}

func toVariant(v Value) dbus.Variant {
	if v.kind == Variant {
		return dbus.MakeVariant(ToDBus(*v.inner))
	}
	return dbus.MakeVariant(ToDBus(v))
}
