package kscreen

import (
	"testing"

	"github.com/flokli/monprof/outputs"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, s string) Value {
	t.Helper()
	v, err := FromJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func field(k string, v Value) Field { return Field{Key: k, Value: v} }

func TestNormalizeEmpty(t *testing.T) {
	for name, raw := range map[string]Value{
		"invalid":       {},
		"missing key":   MapValue(),
		"empty list":    MapValue(field("outputs", ListValue())),
		"empty map":     MapValue(field("outputs", MapValue())),
		"wrapped empty": MapValue(field("outputs", VariantValue("av", ListValue()))),
		"not a map":     StringValue("nope"),
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Normalize(raw)
			require.NotNil(t, cfg)
			require.Empty(t, cfg.Outputs)
		})
	}
}

func TestNormalizeSingleOutput(t *testing.T) {
	raw := mustJSON(t, `{"outputs": [{
		"name": "DP-1",
		"enabled": true,
		"primary": true,
		"rotation": 0,
		"position": {"x": 0, "y": 0},
		"currentMode": {"size": {"width": 2560, "height": 1440}, "refresh": 60}
	}]}`)

	cfg := Normalize(raw)
	require.Equal(t, []outputs.Output{{
		Name:     "DP-1",
		Enabled:  true,
		Primary:  true,
		Rotation: outputs.RotationPtr(outputs.RotationNormal),
		Mode:     outputs.StringPtr("2560x1440@60"),
		Position: &outputs.Position{X: 0, Y: 0},
	}}, cfg.Outputs)
}

func TestNormalizeNegativeModeSize(t *testing.T) {
	raw := mustJSON(t, `{"outputs": [
		{"name": "DP-1", "enabled": true,
		 "currentMode": {"size": {"width": -1920, "height": 1080}, "refresh": 60}},
		{"name": "DP-2", "enabled": true,
		 "currentMode": {"size": {"width": -1920, "height": 1080}},
		 "currentModeId": "7",
		 "modes": [{"id": 7, "size": {"width": 1920, "height": 1080}, "refreshRate": 60}]}
	]}`)

	cfg := Normalize(raw)
	require.Len(t, cfg.Outputs, 2)
	require.Nil(t, cfg.Outputs[0].Mode)
	require.Equal(t, "1920x1080@60", *cfg.Outputs[1].Mode)
	require.NoError(t, cfg.Validate())
}

func TestNormalizeVariantWrappedFields(t *testing.T) {
	raw := MapValue(field("outputs", VariantValue("av", ListValue(
		VariantValue("a{sv}", MapValue(
			field("name", VariantValue("s", StringValue("HDMI-A-1"))),
			field("connected", VariantValue("v", VariantValue("b", BoolValue(true)))),
			field("priority", VariantValue("u", WideIntValue(1))),
			field("rotation", VariantValue("i", IntValue(3))),
			field("pos", VariantValue("a{sv}", MapValue(
				field("x", VariantValue("i", IntValue(1920))),
				field("y", VariantValue("x", WideIntValue(-10))),
			))),
			field("currentMode", VariantValue("a{sv}", MapValue(
				field("size", VariantValue("a{sv}", MapValue(
					field("width", VariantValue("s", StringValue("1280"))),
					field("height", IntValue(1024)),
				))),
				field("refreshRate", VariantValue("d", FloatValue(75.02))),
			))),
		)),
	))))

	cfg := Normalize(raw)
	require.Len(t, cfg.Outputs, 1)
	o := cfg.Outputs[0]
	require.Equal(t, "HDMI-A-1", o.Name)
	require.True(t, o.Enabled)
	require.True(t, o.Primary)
	require.Equal(t, outputs.RotationLeft, *o.Rotation)
	require.Equal(t, "1280x1024@75", *o.Mode)
	require.Equal(t, outputs.Position{X: 1920, Y: -10}, *o.Position)
}

func TestNormalizeEnabledRepresentations(t *testing.T) {
	for name, enabled := range map[string]Value{
		"bool":    BoolValue(true),
		"int":     IntValue(1),
		"wideint": WideIntValue(1),
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Normalize(MapValue(field("outputs", ListValue(MapValue(
				field("name", StringValue("eDP-1")),
				field("enabled", enabled),
			)))))
			require.Equal(t, []outputs.Output{{Name: "eDP-1", Enabled: true}}, cfg.Outputs)
		})
	}

	cfg := Normalize(MapValue(field("outputs", ListValue(MapValue(
		field("name", StringValue("eDP-1")),
		field("enabled", IntValue(0)),
	)))))
	require.Equal(t, []outputs.Output{{Name: "eDP-1", Enabled: false}}, cfg.Outputs)
}

func TestNormalizeDropsUnusableRecords(t *testing.T) {
	raw := mustJSON(t, `{"outputs": [
		{"name": "DP-1", "enabled": true},
		{"id": 7, "enabled": true},
		{"name": "DP-2"},
		{"name": "DP-3", "enabled": "yes"},
		{"name": "", "enabled": true},
		42,
		{"name": "DP-1", "enabled": false},
		{"name": "DP-4", "connected": false}
	]}`)

	cfg := Normalize(raw)
	require.Equal(t, []outputs.Output{
		{Name: "DP-1", Enabled: true},
		{Name: "DP-4", Enabled: false},
	}, cfg.Outputs)
}

func TestNormalizeOutputsAsOrdinalMap(t *testing.T) {
	raw := mustJSON(t, `{"outputs": {
		"10": {"name": "C", "enabled": true},
		"2": {"name": "B", "enabled": true},
		"1": {"name": "A", "enabled": true, "priority": 1}
	}}`)

	cfg := Normalize(raw)
	require.Len(t, cfg.Outputs, 3)
	require.Equal(t, "A", cfg.Outputs[0].Name)
	require.True(t, cfg.Outputs[0].Primary)
	require.Equal(t, "B", cfg.Outputs[1].Name)
	require.Equal(t, "C", cfg.Outputs[2].Name)
}

func TestNormalizePrimaryOnlyOnce(t *testing.T) {
	raw := mustJSON(t, `{"outputs": [
		{"name": "A", "enabled": false, "primary": true},
		{"name": "B", "enabled": true, "priority": 9},
		{"name": "C", "enabled": true, "priority": 12}
	]}`)

	cfg := Normalize(raw)
	require.Len(t, cfg.Outputs, 3)
	require.False(t, cfg.Outputs[0].Primary)
	require.True(t, cfg.Outputs[1].Primary)
	require.False(t, cfg.Outputs[2].Primary)
}

func TestNormalizeRotation(t *testing.T) {
	for input, expected := range map[string]outputs.Rotation{
		"0":  outputs.RotationNormal,
		"1":  outputs.RotationRight,
		"2":  outputs.RotationInverted,
		"3":  outputs.RotationLeft,
		"7":  outputs.RotationNormal,
		"-1": outputs.RotationNormal,
	} {
		cfg := Normalize(mustJSON(t, `{"outputs": [{"name": "DP-1", "enabled": true, "rotation": `+input+`}]}`))
		require.Len(t, cfg.Outputs, 1)
		require.Equal(t, expected, *cfg.Outputs[0].Rotation, "rotation %s", input)
	}

	cfg := Normalize(mustJSON(t, `{"outputs": [{"name": "DP-1", "enabled": true}]}`))
	require.Nil(t, cfg.Outputs[0].Rotation)
}

func TestNormalizePosition(t *testing.T) {
	for name, tc := range map[string]struct {
		json     string
		expected *outputs.Position
	}{
		"pos map":          {`"pos": {"x": 10, "y": 20}`, &outputs.Position{X: 10, Y: 20}},
		"position map":     {`"position": {"x": 10, "y": 20}`, &outputs.Position{X: 10, Y: 20}},
		"pair":             {`"pos": [10, 20]`, &outputs.Position{X: 10, Y: 20}},
		"numeric strings":  {`"pos": {"x": "10", "y": "20"}`, &outputs.Position{X: 10, Y: 20}},
		"fallback":         {`"pos": {"x": 1}, "position": {"x": 3, "y": 4}`, &outputs.Position{X: 3, Y: 4}},
		"missing y":        {`"pos": {"x": 10}`, nil},
		"garbage":          {`"pos": "10,20"`, nil},
		"no position keys": {`"other": 1`, nil},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Normalize(mustJSON(t, `{"outputs": [{"name": "DP-1", "enabled": true, `+tc.json+`}]}`))
			require.Len(t, cfg.Outputs, 1)
			require.Equal(t, tc.expected, cfg.Outputs[0].Position)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	cfg := &outputs.Config{Outputs: []outputs.Output{
		{
			Name:     "eDP-1",
			Enabled:  false,
			Rotation: outputs.RotationPtr(outputs.RotationNormal),
			Mode:     outputs.StringPtr("1920x1200@60"),
		},
		{
			Name:     "DP-1",
			Enabled:  true,
			Rotation: outputs.RotationPtr(outputs.RotationLeft),
			Mode:     outputs.StringPtr("2560x1440@144"),
			Position: &outputs.Position{X: 0, Y: 0},
		},
		{
			Name:     "DP-2",
			Enabled:  true,
			Primary:  true,
			Rotation: outputs.RotationPtr(outputs.RotationInverted),
			Mode:     outputs.StringPtr("3840x2160@60"),
			Position: &outputs.Position{X: 1440, Y: 0},
		},
		{
			Name:     "HDMI-A-1",
			Enabled:  true,
			Rotation: outputs.RotationPtr(outputs.RotationRight),
			Position: &outputs.Position{X: 5280, Y: -200},
		},
	}}

	require.Equal(t, cfg, Normalize(Denormalize(cfg)))

	// the same must hold after a trip through JSON, as done for dumps.
	b, err := Denormalize(cfg).MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, cfg, Normalize(mustJSON(t, string(b))))
}

func TestRoundTripWithoutPrimary(t *testing.T) {
	cfg := &outputs.Config{Outputs: []outputs.Output{
		{Name: "A", Enabled: true},
		{Name: "B", Enabled: true},
	}}

	// without a primary, the first enabled output has the lowest priority.
	roundTripped := Normalize(Denormalize(cfg))
	require.True(t, roundTripped.Outputs[0].Primary)
	require.False(t, roundTripped.Outputs[1].Primary)
}
