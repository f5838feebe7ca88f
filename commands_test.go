package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/flokli/monprof/outputs"
	"github.com/flokli/monprof/outputs/kscreen"
	"github.com/flokli/monprof/outputs/sway"
	"github.com/flokli/monprof/profiles"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	mu  sync.Mutex
	cfg *outputs.Config
}

func (d *fakeDisplay) GetConfig(context.Context) (*outputs.Config, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg, nil
}

func (d *fakeDisplay) SetConfig(_ context.Context, cfg *outputs.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	return nil
}

// rawDisplay additionally exposes a wire configuration, like the KScreen
// client does.
type rawDisplay struct {
	*fakeDisplay
	raw string
}

func (d *rawDisplay) FetchRawConfig(context.Context) (kscreen.Value, error) {
	return kscreen.FromJSON([]byte(d.raw))
}

type testEnv struct {
	dir     string
	display outputs.Display
	closed  int
}

func newTestEnv(t *testing.T, display outputs.Display) *testEnv {
	return &testEnv{dir: t.TempDir(), display: display}
}

func (e *testEnv) run(args ...string) (string, error) {
	a := &app{
		openDisplay: func(string) (outputs.Display, func() error, error) {
			closeFn := func() error {
				e.closed++
				return nil
			}
			return e.display, closeFn, nil
		},
	}
	root := newRootCmd(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--config", filepath.Join(e.dir, "config.yaml"),
		"--profiles", filepath.Join(e.dir, "profiles.json"),
	}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

var laptop = &outputs.Config{Outputs: []outputs.Output{
	{Name: "eDP-1", Enabled: true, Primary: true, Mode: outputs.StringPtr("1920x1200@60")},
}}

const dockedJSON = `{"outputs": [
	{"name": "eDP-1", "enabled": false},
	{"name": "DP-1", "enabled": true, "primary": true, "mode": "2560x1440@144", "position": [0, 0]}
]}`

func writeLayout(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "docked.json")
	require.NoError(t, os.WriteFile(path, []byte(dockedJSON), 0644))
	return path
}

func TestListEmpty(t *testing.T) {
	e := newTestEnv(t, &fakeDisplay{})
	out, err := e.run("list")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSaveFromFileShowListDelete(t *testing.T) {
	e := newTestEnv(t, &fakeDisplay{})

	out, err := e.run("save", "docked", "--from", writeLayout(t, e.dir))
	require.NoError(t, err)
	require.Equal(t, "Saved profile \"docked\" with 2 outputs\n", out)
	require.Zero(t, e.closed, "saving from a file doesn't need the display")

	out, err = e.run("list")
	require.NoError(t, err)
	require.Equal(t, "docked\n", out)

	out, err = e.run("show", "docked")
	require.NoError(t, err)
	require.JSONEq(t, dockedJSON, out)

	out, err = e.run("delete", "docked")
	require.NoError(t, err)
	require.Equal(t, "Deleted profile \"docked\"\n", out)

	_, err = e.run("delete", "docked")
	require.ErrorIs(t, err, profiles.ErrNotFound)
}

func TestSaveCurrentAndApply(t *testing.T) {
	display := &fakeDisplay{cfg: laptop}
	e := newTestEnv(t, display)

	_, err := e.run("save", "laptop")
	require.NoError(t, err)

	display.cfg = &outputs.Config{Outputs: []outputs.Output{{Name: "eDP-1", Enabled: false}}}

	out, err := e.run("apply", "laptop")
	require.NoError(t, err)
	require.Equal(t, "Applied profile \"laptop\"\n", out)
	require.Equal(t, laptop, display.cfg)
	require.Equal(t, 2, e.closed)
}

func TestApplyUnknown(t *testing.T) {
	e := newTestEnv(t, &fakeDisplay{cfg: laptop})
	_, err := e.run("apply", "nope")
	require.ErrorIs(t, err, profiles.ErrNotFound)
}

func TestCurrent(t *testing.T) {
	e := newTestEnv(t, &fakeDisplay{cfg: laptop})
	out, err := e.run("current")
	require.NoError(t, err)
	require.JSONEq(t, `{"outputs": [{"name": "eDP-1", "enabled": true, "primary": true, "mode": "1920x1200@60"}]}`, out)

	_, err = e.run("current", "--raw")
	require.ErrorContains(t, err, "no raw configuration")
}

const liveJSON = `{"outputs": [
	{"name": "DP-1", "enabled": true, "priority": 1, "currentModeId": "21", "modes": [
		{"id": "21", "size": {"width": 2560, "height": 1440}, "refreshRate": 143.97}
	]}
]}`

func TestCurrentRaw(t *testing.T) {
	e := newTestEnv(t, &rawDisplay{fakeDisplay: &fakeDisplay{}, raw: liveJSON})
	out, err := e.run("current", "--raw")
	require.NoError(t, err)
	require.JSONEq(t, liveJSON, out)
}

func TestApplyDryRunKScreen(t *testing.T) {
	display := &rawDisplay{fakeDisplay: &fakeDisplay{}, raw: liveJSON}
	e := newTestEnv(t, display)

	_, err := e.run("save", "docked", "--from", writeLayout(t, e.dir))
	require.NoError(t, err)

	out, err := e.run("apply", "docked", "--dry-run")
	require.NoError(t, err)
	require.JSONEq(t, `{"outputs": [
		{"name": "eDP-1", "enabled": false, "priority": 2},
		{"name": "DP-1", "enabled": true, "priority": 1,
		 "position": {"x": 0, "y": 0},
		 "currentModeId": "21",
		 "currentMode": {"size": {"width": 2560, "height": 1440}, "refresh": 144}}
	]}`, out)
	require.Nil(t, display.cfg, "dry run must not apply")
}

func TestApplyDryRunSway(t *testing.T) {
	e := newTestEnv(t, sway.New())

	_, err := e.run("save", "docked", "--from", writeLayout(t, e.dir))
	require.NoError(t, err)

	out, err := e.run("--backend", "sway", "apply", "docked", "--dry-run")
	require.NoError(t, err)
	require.Equal(t, "swaymsg output eDP-1 disable\nswaymsg output DP-1 enable mode 2560x1440@144Hz pos 0 0\n", out)
}

func TestApplyDryRunUnsupported(t *testing.T) {
	e := newTestEnv(t, &fakeDisplay{})

	_, err := e.run("save", "docked", "--from", writeLayout(t, e.dir))
	require.NoError(t, err)

	_, err = e.run("apply", "docked", "--dry-run")
	require.ErrorContains(t, err, "not supported")
}

func TestInvalidFlags(t *testing.T) {
	e := newTestEnv(t, &fakeDisplay{})

	_, err := e.run("--backend", "wayfire", "list")
	require.ErrorContains(t, err, "unknown backend")

	_, err = e.run("show")
	require.Error(t, err)

	_, err = e.run("save", "docked", "--from", filepath.Join(e.dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadMachineID(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "machine-id")
	require.NoError(t, os.WriteFile(path, []byte("4f1e0d3c2b1a49a8b7c6d5e4f3a2b1c0\n"), 0444))
	id, err := readMachineID(path)
	require.NoError(t, err)
	require.Equal(t, "4f1e0d3c2b1a49a8b7c6d5e4f3a2b1c0", id)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0444))
	_, err = readMachineID(empty)
	require.Error(t, err)

	_, err = readMachineID(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
