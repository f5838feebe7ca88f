package kscreen

import (
	"github.com/flokli/monprof/outputs"
)

// refresh rate assumed when a mode doesn't report one.
const defaultRefresh = 60

// decodeMode resolves the current mode of an output record to its
// "<width>x<height>@<refresh>" form. Missing or malformed mode data yields
// no mode.
func decodeMode(r record) (string, bool) {
	if current, ok := r["currentMode"]; ok {
		if s, ok := modeString(current); ok {
			return s, true
		}
	}

	id, ok := r["currentModeId"]
	if !ok {
		return "", false
	}
	if entry, ok := findMode(r["modes"], id); ok {
		return modeString(entry)
	}
	return "", false
}

// modeString renders a mode descriptor, preferring its preformatted name.
// Names not in the canonical form are ignored in favour of the size.
func modeString(v Value) (string, bool) {
	m, ok := recordOf(v)
	if !ok {
		return "", false
	}
	if name, ok := asString(m["name"]); ok {
		if _, err := outputs.ParseMode(name); err == nil {
			return name, true
		}
	}

	size, ok := recordOf(m["size"])
	if !ok {
		return "", false
	}
	width, wok := asInt(size["width"])
	height, hok := asInt(size["height"])
	if !wok || !hok || width <= 0 || height <= 0 {
		return "", false
	}

	refresh := int64(defaultRefresh)
	for _, key := range []string{"refreshRate", "refresh"} {
		if r, ok := asInt(m[key]); ok && r > 0 {
			refresh = r
			break
		}
	}

	return outputs.Mode{Width: width, Height: height, Refresh: refresh}.String(), true
}

// findMode looks up the mode with the given id in a mode catalog, which may be
// a list or a map of mode descriptors.
func findMode(catalog Value, id Value) (Value, bool) {
	for _, entry := range listOf(catalog) {
		m, ok := recordOf(entry)
		if !ok {
			continue
		}
		if entryID, ok := m["id"]; ok && sameID(entryID, id) {
			return entry, true
		}
	}
	return Value{}, false
}

// findModeID returns the catalog id of the mode rendering to mode.
func findModeID(catalog Value, mode string) (Value, bool) {
	for _, entry := range listOf(catalog) {
		m, ok := recordOf(entry)
		if !ok {
			continue
		}
		id, ok := m["id"]
		if !ok {
			continue
		}
		if s, ok := modeString(entry); ok && s == mode {
			return id, true
		}
	}
	return Value{}, false
}

// encodeMode returns the mode fields for an output. The catalog, if valid,
// is searched for the real mode id; no id is made up otherwise. Modes not in
// the "<width>x<height>@<refresh>" form produce no fields.
func encodeMode(mode string, catalog Value) []Field {
	m, err := outputs.ParseMode(mode)
	if err != nil {
		return nil
	}

	var fields []Field
	if id, ok := findModeID(catalog, m.String()); ok {
		fields = append(fields, Field{Key: "currentModeId", Value: id})
	}
	fields = append(fields, Field{Key: "currentMode", Value: MapValue(
		Field{Key: "size", Value: MapValue(
			Field{Key: "width", Value: intField(m.Width)},
			Field{Key: "height", Value: intField(m.Height)},
		)},
		Field{Key: "refresh", Value: intField(m.Refresh)},
	)})
	return fields
}

// intField encodes i as a 32 bit integer when it fits.
func intField(i int64) Value {
	if int64(int32(i)) == i {
		return IntValue(int32(i))
	}
	return WideIntValue(i)
}
