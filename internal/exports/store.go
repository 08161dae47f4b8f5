package exports

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no export exists for an ID.
var ErrNotFound = errors.New("export not found")

// Meta describes a stored export.
type Meta struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	Locale      string    `json:"locale"`
	Source      string    `json:"source"`
	TabCount    int       `json:"tab_count"`
	WindowCount int       `json:"window_count"`
	ByWindow    bool      `json:"by_window"`
	ByStack     bool      `json:"by_stack"`
	ByHost      bool      `json:"by_host"`
	Indent      bool      `json:"indent"`
	SizeBytes   int       `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	Notice      string    `json:"notice,omitempty"`
}

// Store manages exported pages on disk: <id>.html plus an <id>.json sidecar.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// NewID returns a fresh export ID.
func NewID() string {
	return uuid.NewString()
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return fmt.Errorf("invalid export id: %q", id)
	}
	return nil
}

// HTMLPath returns where the page for id is stored.
func (s *Store) HTMLPath(id string) string {
	return filepath.Join(s.dir, id+".html")
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the page and its metadata sidecar. SizeBytes is filled in.
func (s *Store) Save(meta Meta, page []byte) (Meta, error) {
	if err := validateID(meta.ID); err != nil {
		return Meta{}, err
	}
	meta.SizeBytes = len(page)

	s.mu.Lock()
	defer s.mu.Unlock()

	htmlPath := s.HTMLPath(meta.ID)
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
		return Meta{}, fmt.Errorf("export store: write page: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		s.removeQuiet(htmlPath)
		return Meta{}, fmt.Errorf("export store: marshal meta: %w", err)
	}
	if err := os.WriteFile(s.metaPath(meta.ID), data, 0o644); err != nil {
		s.removeQuiet(htmlPath)
		return Meta{}, fmt.Errorf("export store: write meta: %w", err)
	}
	return meta, nil
}

// Get reads export metadata by ID.
func (s *Store) Get(id string) (Meta, error) {
	if err := validateID(id); err != nil {
		return Meta{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readMeta(s.metaPath(id))
}

func (s *Store) readMeta(path string) (Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return Meta{}, fmt.Errorf("export store: read meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("export store: unmarshal meta: %w", err)
	}
	return meta, nil
}

// List returns all exports, newest first.
func (s *Store) List() ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("export store: glob: %w", err)
	}

	metas := make([]Meta, 0, len(matches))
	for _, path := range matches {
		meta, err := s.readMeta(path)
		if err != nil {
			slog.Debug("skipping unreadable export meta", "path", path, "error", err)
			continue
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// ReadHTML returns the stored page and its metadata.
func (s *Store) ReadHTML(id string) ([]byte, Meta, error) {
	meta, err := s.Get(id)
	if err != nil {
		return nil, Meta{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.HTMLPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Meta{}, fmt.Errorf("%w: page %s", ErrNotFound, id)
		}
		return nil, Meta{}, fmt.Errorf("export store: read page: %w", err)
	}
	return data, meta, nil
}

// Delete removes the page and its metadata.
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.HTMLPath(id)); err != nil {
		slog.Debug("export page cleanup failed", "id", id, "error", err)
	}
	if err := os.Remove(s.metaPath(id)); err != nil {
		return fmt.Errorf("export store: remove meta: %w", err)
	}
	return nil
}

func (s *Store) removeQuiet(path string) {
	if err := os.Remove(path); err != nil {
		slog.Debug("export cleanup failed", "path", path, "error", err)
	}
}
