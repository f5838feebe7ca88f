package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/flokli/monprof/outputs"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a profile doesn't exist.
var ErrNotFound = errors.New("profile not found")

// Document is the on-disk representation of all profiles.
type Document struct {
	Profiles map[string]*outputs.Config `json:"profiles"`
}

// Store persists profiles in a single JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// ValidateName checks a profile name is usable as a key.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if name != strings.TrimSpace(name) {
		return fmt.Errorf("invalid profile name %q: leading or trailing whitespace", name)
	}
	return nil
}

// read loads and validates the document. A missing file is an empty document.
func (s *Store) read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", s.path).Debug("profiles file doesn't exist yet")
		return &Document{Profiles: map[string]*outputs.Config{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("failed to read profiles from %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse profiles from %s: %w", s.path, err)
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]*outputs.Config{}
	}
	return &doc, nil
}

// write atomically replaces the document on disk.
func (s *Store) write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	// run the written document through the same checks as when reading it.
	if err := validateDocument(data); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*.json")
	if err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}

	log.WithFields(log.Fields{
		"path":     s.path,
		"profiles": len(doc.Profiles),
	}).Debug("wrote profiles")
	return nil
}

// List returns all profile names, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Profiles))
	for name := range doc.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns a profile, or ErrNotFound.
func (s *Store) Get(name string) (*outputs.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	cfg, ok := doc.Profiles[name]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return cfg, nil
}

// Save creates or replaces a profile.
func (s *Store) Save(name string, cfg *outputs.Config) error {
	if err := ValidateName(name); err != nil {
		return &ValidationError{Profile: name, Reason: err.Error()}
	}
	if cfg == nil {
		return &ValidationError{Profile: name, Reason: "profile is empty"}
	}
	if err := cfg.Validate(); err != nil {
		return &ValidationError{Profile: name, Field: "outputs", Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if cfg.Outputs == nil {
		cfg = &outputs.Config{Outputs: []outputs.Output{}}
	}
	doc.Profiles[name] = cfg
	return s.write(doc)
}

// Delete removes a profile. It returns false if there was no such profile.
func (s *Store) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, err
	}
	if _, ok := doc.Profiles[name]; !ok {
		return false, nil
	}
	delete(doc.Profiles, name)
	return true, s.write(doc)
}
