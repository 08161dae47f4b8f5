package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgnsrekt/tabexport/internal/tabs"
)

// Prefs are the persisted export toggles. Missing values read as false.
type Prefs struct {
	Window bool `json:"window"`
	Stack  bool `json:"stack"`
	Host   bool `json:"host"`
	Indent bool `json:"indent"`
}

// Dimensions returns the grouping levels selected by p.
func (p Prefs) Dimensions() tabs.Dimensions {
	return tabs.Dimensions{Window: p.Window, Stack: p.Stack, Host: p.Host}
}

// Store keeps preferences in a single JSON file.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a Store and ensures the parent directory exists.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prefs store: mkdir %s: %w", filepath.Dir(path), err)
	}
	return &Store{path: path}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads preferences. A missing file yields the zero value.
func (s *Store) Load() (Prefs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("prefs file missing, using defaults", "path", s.path)
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("prefs store: read: %w", err)
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("prefs store: unmarshal: %w", err)
	}
	return p, nil
}

// Save replaces the stored preferences atomically.
func (s *Store) Save(p Prefs) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("prefs store: marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("prefs store: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			slog.Debug("prefs temp cleanup failed", "path", tmp, "error", rmErr)
		}
		return fmt.Errorf("prefs store: rename: %w", err)
	}
	return nil
}

// Update applies fn to the stored preferences and saves the result.
func (s *Store) Update(fn func(*Prefs)) (Prefs, error) {
	p, err := s.Load()
	if err != nil {
		return Prefs{}, err
	}
	fn(&p)
	if err := s.Save(p); err != nil {
		return Prefs{}, err
	}
	return p, nil
}
