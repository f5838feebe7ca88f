package kscreen

import (
	"math"
	"strconv"
)

// asBool coerces native booleans and 0/1 integers. Other values aren't
// booleans.
func asBool(v Value) (bool, bool) {
	switch v = Unwrap(v); v.kind {
	case Bool:
		return v.b, true
	case Int, WideInt:
		return v.i == 1, true
	}
	return false, false
}

// asInt coerces integers of any width, finite floats (rounded) and base-10
// numeric strings.
func asInt(v Value) (int64, bool) {
	switch v = Unwrap(v); v.kind {
	case Int, WideInt:
		return v.i, true
	case Float:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, false
		}
		return int64(math.Round(v.f)), true
	case String:
		i, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func asString(v Value) (string, bool) {
	if v = Unwrap(v); v.kind == String {
		return v.s, true
	}
	return "", false
}

// idString renders scalar ids for comparison.
func idString(v Value) (string, bool) {
	switch v = Unwrap(v); v.kind {
	case String:
		return v.s, true
	case Int, WideInt:
		return strconv.FormatInt(v.i, 10), true
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64), true
	}
	return "", false
}

// sameID compares two mode ids both as strings and as numbers, so "5" matches 5.
func sameID(a, b Value) bool {
	as, aok := idString(a)
	bs, bok := idString(b)
	if aok && bok && as == bs {
		return true
	}
	an, aok := asInt(a)
	bn, bok := asInt(b)
	return aok && bok && an == bn
}
