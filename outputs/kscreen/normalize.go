package kscreen

import (
	"github.com/flokli/monprof/outputs"
	log "github.com/sirupsen/logrus"
)

// Normalize converts a configuration as reported by KScreen into an
// outputs.Config.
//
// It never fails: records without a usable name or enabled state are dropped,
// and fields that can't be decoded are left unset.
func Normalize(raw Value) *outputs.Config {
	cfg := &outputs.Config{Outputs: []outputs.Output{}}

	root, ok := recordOf(raw)
	if !ok {
		return cfg
	}

	items := listOf(root["outputs"])
	records := make([]record, len(items))
	for i, item := range items {
		if r, ok := recordOf(item); ok {
			records[i] = r
		}
	}

	primary := resolvePrimary(records)
	seen := make(map[string]struct{}, len(records))

	for i, r := range records {
		l := log.WithField("index", i)
		if r == nil {
			l.Debug("skipping output record that isn't a map")
			continue
		}

		name, ok := asString(r["name"])
		if !ok || name == "" {
			l.Debug("skipping output without name")
			continue
		}
		l = l.WithField("outputName", name)

		if _, dup := seen[name]; dup {
			l.Debug("skipping output with duplicate name")
			continue
		}

		enabled, ok := enabledOf(r)
		if !ok {
			l.Debug("skipping output without enabled state")
			continue
		}
		seen[name] = struct{}{}

		output := outputs.Output{
			Name:    name,
			Enabled: enabled,
			Primary: enabled && i == primary,
		}

		if rotation, ok := r["rotation"]; ok {
			if n, ok := asInt(rotation); ok {
				output.Rotation = outputs.RotationPtr(rotationFromWire(n))
			}
		}

		if mode, ok := decodeMode(r); ok {
			output.Mode = outputs.StringPtr(mode)
		}

		output.Position = positionOf(r)

		cfg.Outputs = append(cfg.Outputs, output)
	}

	return cfg
}

// positionOf decodes "pos" or "position", either as a {x, y} map or as a
// pair.
func positionOf(r record) *outputs.Position {
	for _, key := range []string{"pos", "position"} {
		v, ok := r[key]
		if !ok {
			continue
		}

		var x, y Value
		if m, ok := recordOf(v); ok {
			x, y = m["x"], m["y"]
		} else if pair := listOf(v); len(pair) == 2 {
			x, y = pair[0], pair[1]
		}

		xi, xok := asInt(x)
		yi, yok := asInt(y)
		if xok && yok {
			return &outputs.Position{X: xi, Y: yi}
		}
	}
	return nil
}
