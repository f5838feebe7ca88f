package profiles

import (
	"context"
	"fmt"

	"github.com/flokli/monprof/outputs"
	log "github.com/sirupsen/logrus"
)

// Manager implements the profile commands on top of a Store and the live
// display configuration.
type Manager struct {
	store   *Store
	display outputs.Display
}

func NewManager(store *Store, display outputs.Display) *Manager {
	return &Manager{
		store:   store,
		display: display,
	}
}

func (m *Manager) List() ([]string, error) {
	return m.store.List()
}

func (m *Manager) Get(name string) (*outputs.Config, error) {
	return m.store.Get(name)
}

func (m *Manager) Save(name string, cfg *outputs.Config) error {
	if err := m.store.Save(name, cfg); err != nil {
		return err
	}
	log.WithField("profile", name).Info("saved profile")
	return nil
}

func (m *Manager) Delete(name string) (bool, error) {
	deleted, err := m.store.Delete(name)
	if err != nil {
		return false, err
	}
	if deleted {
		log.WithField("profile", name).Info("deleted profile")
	}
	return deleted, nil
}

// Current returns the live display configuration.
func (m *Manager) Current(ctx context.Context) (*outputs.Config, error) {
	cfg, err := m.display.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get current layout: %w", err)
	}
	return cfg, nil
}

// SaveCurrent stores the live display configuration as a profile.
func (m *Manager) SaveCurrent(ctx context.Context, name string) (*outputs.Config, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	cfg, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.Save(name, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply applies a stored profile to the display.
func (m *Manager) Apply(ctx context.Context, name string) error {
	cfg, err := m.store.Get(name)
	if err != nil {
		return err
	}

	l := log.WithFields(log.Fields{
		"profile": name,
		"outputs": len(cfg.Outputs),
	})
	l.Debug("applying profile")

	if err := m.display.SetConfig(ctx, cfg); err != nil {
		return fmt.Errorf("unable to apply profile %q: %w", name, err)
	}
	l.Info("applied profile")
	return nil
}
