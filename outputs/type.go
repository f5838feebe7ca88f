package outputs

import (
	"context"
	"encoding/json"
	"fmt"
)

// Rotation describes how an output is rotated.
type Rotation string

const (
	RotationNormal   Rotation = "normal"
	RotationLeft     Rotation = "left"
	RotationRight    Rotation = "right"
	RotationInverted Rotation = "inverted"
)

func (r Rotation) Valid() bool {
	switch r {
	case RotationNormal, RotationLeft, RotationRight, RotationInverted:
		return true
	}
	return false
}

func (r *Rotation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rotation must be a string: %w", err)
	}
	if !Rotation(s).Valid() {
		return fmt.Errorf("invalid rotation %q", s)
	}
	*r = Rotation(s)
	return nil
}

// Position is the origin of an output in the virtual screen, in pixels.
// It's serialized as a [x, y] pair.
type Position struct {
	X int64
	Y int64
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{p.X, p.Y})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var xy []int64
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("position must be an [x, y] pair: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("position must be an [x, y] pair, got %d values", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Output describes the configuration of a single physical output port.
// Optional fields are nil when unspecified.
type Output struct {
	Name     string    `json:"name"`
	Enabled  bool      `json:"enabled"`
	Primary  bool      `json:"primary,omitempty"`
	Rotation *Rotation `json:"rotation,omitempty"`
	Mode     *string   `json:"mode,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// Equal reports whether both outputs describe the same configuration.
func (o *Output) Equal(other *Output) bool {
	if o.Name != other.Name || o.Enabled != other.Enabled || o.Primary != other.Primary {
		return false
	}
	if (o.Rotation == nil) != (other.Rotation == nil) || (o.Rotation != nil && *o.Rotation != *other.Rotation) {
		return false
	}
	if (o.Mode == nil) != (other.Mode == nil) || (o.Mode != nil && *o.Mode != *other.Mode) {
		return false
	}
	if (o.Position == nil) != (other.Position == nil) || (o.Position != nil && *o.Position != *other.Position) {
		return false
	}
	return true
}

// Config is an ordered list of outputs, as reported by or applied to a
// display configuration service.
type Config struct {
	Outputs []Output `json:"outputs"`
}

// Validate checks the invariants a config needs to hold before it's persisted
// or applied.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Outputs))
	primary := ""
	for i, o := range c.Outputs {
		if o.Name == "" {
			return fmt.Errorf("output %d: name is required", i)
		}
		if _, dup := seen[o.Name]; dup {
			return fmt.Errorf("output %q: duplicate name", o.Name)
		}
		seen[o.Name] = struct{}{}

		if o.Primary {
			if !o.Enabled {
				return fmt.Errorf("output %q: disabled outputs can't be primary", o.Name)
			}
			if primary != "" {
				return fmt.Errorf("output %q: %q is already primary", o.Name, primary)
			}
			primary = o.Name
		}
		if o.Rotation != nil && !o.Rotation.Valid() {
			return fmt.Errorf("output %q: invalid rotation %q", o.Name, *o.Rotation)
		}
		if o.Mode != nil {
			if _, err := ParseMode(*o.Mode); err != nil {
				return fmt.Errorf("output %q: %w", o.Name, err)
			}
		}
	}
	return nil
}

// Display is a display configuration service able to report the current
// layout and apply a new one.
type Display interface {
	GetConfig(ctx context.Context) (*Config, error)

	// Applies the given config. Fields left nil are left up to the service.
	SetConfig(ctx context.Context, cfg *Config) error
}

// Helpers to construct optional fields.
func RotationPtr(r Rotation) *Rotation { return &r }
func StringPtr(s string) *string { return &s }
