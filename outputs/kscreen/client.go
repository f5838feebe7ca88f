package kscreen

import (
	"context"
	"fmt"

	"github.com/flokli/monprof/outputs"
	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"
)

const (
	serviceName      = "org.kde.KScreen"
	mainInterface    = "org.kde.KScreen"
	backendInterface = "org.kde.kscreen.Backend"
	mainPath         = dbus.ObjectPath("/")
	backendPath      = dbus.ObjectPath("/backend")
)

// ServiceError is returned when talking to KScreen fails.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("kscreen %s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Bus is the part of a D-Bus connection the client needs. *dbus.Conn
// implements it.
type Bus interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// Client talks to the KScreen service over D-Bus. It implements
// outputs.Display.
type Client struct {
	bus  Bus
	conn *dbus.Conn
}

var _ outputs.Display = &Client{}

// Connect connects to the session bus.
func Connect() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, &ServiceError{Op: "connect", Err: err}
	}
	return &Client{bus: conn, conn: conn}, nil
}

func NewClient(bus Bus) *Client {
	return &Client{bus: bus}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	log.Debug("closing session bus connection")
	return c.conn.Close()
}

// ensureBackend asks KScreen to load its backend. Failures are ignored, the
// backend is usually already running.
func (c *Client) ensureBackend(ctx context.Context) {
	call := c.bus.Object(serviceName, mainPath).CallWithContext(ctx, mainInterface+".requestBackend", 0, "", map[string]dbus.Variant{})
	if call.Err != nil {
		log.WithError(call.Err).Debug("requestBackend failed, assuming backend is available")
	}
}

// FetchRawConfig returns the current configuration, as reported by KScreen.
func (c *Client) FetchRawConfig(ctx context.Context) (Value, error) {
	c.ensureBackend(ctx)

	var raw map[string]dbus.Variant
	call := c.bus.Object(serviceName, backendPath).CallWithContext(ctx, backendInterface+".getConfig", 0)
	if call.Err != nil {
		return Value{}, &ServiceError{Op: "getConfig", Err: call.Err}
	}
	if err := call.Store(&raw); err != nil {
		return Value{}, &ServiceError{Op: "getConfig", Err: fmt.Errorf("unexpected reply: %w", err)}
	}

	return FromAny(raw), nil
}

// ApplyRawConfig sends a configuration to KScreen.
func (c *Client) ApplyRawConfig(ctx context.Context, raw Value) error {
	payload, ok := ToDBus(Unwrap(raw)).(map[string]dbus.Variant)
	if !ok {
		return &ServiceError{Op: "setConfig", Err: fmt.Errorf("config must be a map, got %v", Unwrap(raw).Kind())}
	}

	c.ensureBackend(ctx)

	call := c.bus.Object(serviceName, backendPath).CallWithContext(ctx, backendInterface+".setConfig", 0, payload)
	if call.Err != nil {
		return &ServiceError{Op: "setConfig", Err: call.Err}
	}
	return nil
}

// GetConfig implements outputs.Display.
func (c *Client) GetConfig(ctx context.Context) (*outputs.Config, error) {
	raw, err := c.FetchRawConfig(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}

// SetConfig implements outputs.Display. The live configuration is fetched
// first, so mode ids can be taken from the real mode catalog.
func (c *Client) SetConfig(ctx context.Context, cfg *outputs.Config) error {
	live, err := c.FetchRawConfig(ctx)
	if err != nil {
		return err
	}

	raw := DenormalizeAgainst(cfg, live)
	log.WithField("config", raw.String()).Debug("applying config")

	return c.ApplyRawConfig(ctx, raw)
}
