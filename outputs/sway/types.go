package sway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/flokli/monprof/outputs"
	log "github.com/sirupsen/logrus"
)

// Sway reads and applies output configuration through swaymsg. It
// implements outputs.Display.
type Sway struct {
	run func(ctx context.Context, args ...string) ([]byte, error)
}

var _ outputs.Display = &Sway{}

func New() *Sway {
	return &Sway{run: swaycmd}
}

// Mode as reported by sway. Refresh is in mHz.
type Mode struct {
	Width   int64 `json:"width"`
	Height  int64 `json:"height"`
	Refresh int64 `json:"refresh"`
}

type Rect struct {
	X      int64 `json:"x"`
	Y      int64 `json:"y"`
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// Output is an output as reported by `swaymsg -t get_outputs`.
type Output struct {
	Active      bool    `json:"active"`
	CurrentMode *Mode   `json:"current_mode"`
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Modes       []*Mode `json:"modes"`
	Name        string  `json:"name"`
	Power       bool    `json:"power"`
	Rect        Rect    `json:"rect"`
	Scale       float64 `json:"scale"`
	Serial      string  `json:"serial"`
	Transform   string  `json:"transform"`
}

var transforms = map[outputs.Rotation]string{
	outputs.RotationNormal:   "normal",
	outputs.RotationRight:    "90",
	outputs.RotationInverted: "180",
	outputs.RotationLeft:     "270",
}

func rotationFromTransform(transform string) *outputs.Rotation {
	for r, t := range transforms {
		if t == transform {
			return outputs.RotationPtr(r)
		}
	}
	// flipped transforms can't be expressed.
	return nil
}

// toOutput converts the sway representation. Sway has no notion of a
// primary output.
func (o *Output) toOutput() outputs.Output {
	out := outputs.Output{
		Name:    o.Name,
		Enabled: o.Active,
	}
	if !o.Active {
		return out
	}

	out.Rotation = rotationFromTransform(o.Transform)
	if o.CurrentMode != nil && o.CurrentMode.Width > 0 && o.CurrentMode.Height > 0 {
		mode := outputs.Mode{
			Width:   o.CurrentMode.Width,
			Height:  o.CurrentMode.Height,
			Refresh: int64(math.Round(float64(o.CurrentMode.Refresh) / 1000)),
		}
		out.Mode = outputs.StringPtr(mode.String())
	}
	out.Position = &outputs.Position{X: o.Rect.X, Y: o.Rect.Y}
	return out
}

// GetConfig implements outputs.Display.
func (s *Sway) GetConfig(ctx context.Context) (*outputs.Config, error) {
	out, err := s.run(ctx, "-t", "get_outputs")
	if err != nil {
		return nil, fmt.Errorf("failed to get outputs: %w", err)
	}

	var swayOutputs []*Output
	if err := json.Unmarshal(out, &swayOutputs); err != nil {
		return nil, fmt.Errorf("failed to parse outputs: %w", err)
	}

	cfg := &outputs.Config{Outputs: make([]outputs.Output, 0, len(swayOutputs))}
	for _, o := range swayOutputs {
		if o.Name == "" {
			continue
		}
		cfg.Outputs = append(cfg.Outputs, o.toOutput())
	}
	return cfg, nil
}

// Command is a single `swaymsg output` invocation.
type Command struct {
	Output string
	Args   []string
}

func (c Command) String() string {
	return "output " + c.Output + " " + strings.Join(c.Args, " ")
}

// Commands returns the output commands that apply cfg, one per output.
func Commands(cfg *outputs.Config) []Command {
	commands := make([]Command, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		l := log.WithField("outputName", o.Name)

		if !o.Enabled {
			commands = append(commands, Command{Output: o.Name, Args: []string{"disable"}})
			continue
		}

		args := []string{"enable"}
		if o.Mode != nil {
			mode, err := outputs.ParseMode(*o.Mode)
			if err != nil {
				l.WithError(err).Warn("ignoring mode")
			} else {
				args = append(args, "mode", fmt.Sprintf("%dx%d@%dHz", mode.Width, mode.Height, mode.Refresh))
			}
		}
		if o.Position != nil {
			args = append(args, "pos", strconv.FormatInt(o.Position.X, 10), strconv.FormatInt(o.Position.Y, 10))
		}
		if o.Rotation != nil {
			if t, ok := transforms[*o.Rotation]; ok {
				args = append(args, "transform", t)
			}
		}
		if o.Primary {
			l.Debug("sway has no primary output, ignoring")
		}
		commands = append(commands, Command{Output: o.Name, Args: args})
	}
	return commands
}

// SetConfig implements outputs.Display.
func (s *Sway) SetConfig(ctx context.Context, cfg *outputs.Config) error {
	for _, c := range Commands(cfg) {
		if err := s.configure(ctx, c.Output, c.Args...); err != nil {
			return fmt.Errorf("failed to configure %s: %w", c.Output, err)
		}
	}
	return nil
}
