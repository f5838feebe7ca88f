package kscreen

import (
	"github.com/flokli/monprof/outputs"
)

// Denormalize converts an outputs.Config into a configuration KScreen
// accepts. See DenormalizeAgainst.
func Denormalize(cfg *outputs.Config) Value {
	return DenormalizeAgainst(cfg, Value{})
}

// DenormalizeAgainst converts an outputs.Config into a configuration KScreen
// accepts, using the mode catalogs of the live configuration to look up mode
// ids.
//
// The primary output gets priority 1. All other outputs get priorities from 2
// upwards, in order, counting only enabled outputs: a disabled output shares
// its priority with the next enabled one.
//
// Modes that aren't in the "<width>x<height>@<refresh>" form are dropped.
func DenormalizeAgainst(cfg *outputs.Config, live Value) Value {
	catalogs := modeCatalogs(live)

	items := make([]Value, 0, len(cfg.Outputs))
	rank := int32(2)

	for _, o := range cfg.Outputs {
		fields := []Field{
			{Key: "name", Value: StringValue(o.Name)},
			{Key: "enabled", Value: BoolValue(o.Enabled)},
		}

		if o.Primary {
			fields = append(fields, Field{Key: "priority", Value: IntValue(1)})
		} else {
			fields = append(fields, Field{Key: "priority", Value: IntValue(rank)})
			if o.Enabled {
				rank++
			}
		}

		if o.Rotation != nil {
			fields = append(fields, Field{Key: "rotation", Value: IntValue(rotationToWire(*o.Rotation))})
		}

		if o.Position != nil {
			fields = append(fields, Field{Key: "position", Value: MapValue(
				Field{Key: "x", Value: intField(o.Position.X)},
				Field{Key: "y", Value: intField(o.Position.Y)},
			)})
		}

		if o.Mode != nil {
			fields = append(fields, encodeMode(*o.Mode, catalogs[o.Name])...)
		}

		items = append(items, MapValue(fields...))
	}

	return MapValue(Field{Key: "outputs", Value: ListValue(items...)})
}

// modeCatalogs returns the "modes" of every named output in a raw config.
func modeCatalogs(raw Value) map[string]Value {
	catalogs := make(map[string]Value)

	root, ok := recordOf(raw)
	if !ok {
		return catalogs
	}
	for _, item := range listOf(root["outputs"]) {
		r, ok := recordOf(item)
		if !ok {
			continue
		}
		name, ok := asString(r["name"])
		if !ok {
			continue
		}
		if modes, ok := r["modes"]; ok {
			catalogs[name] = modes
		}
	}
	return catalogs
}
