// Package config implements the persisted key-value configuration store.
// Values are kept in a TOML file under the user's config directory and
// written back on every Set, so OCR tool paths survive restarts.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"docsearch/observe"
)

// Store is a file-backed key-value store using TOML. A load failure is not
// fatal: the store starts empty and the failure is reported on the sink.
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
	sink     observe.Sink
}

// NewStore creates a store rooted at dir. If dir is empty it defaults to
// ~/.docsearch. The directory is created if missing.
func NewStore(dir string, sink observe.Sink) (*Store, error) {
	if sink == nil {
		sink = observe.Discard()
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".docsearch")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	s := &Store{
		filePath: filepath.Join(dir, "config.toml"),
		data:     make(map[string]any),
		sink:     sink,
	}
	s.load()
	return s, nil
}

// load reads the TOML file if present. Corrupt or unreadable files leave the
// store empty.
func (s *Store) load() {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.sink.Warnf("config: cannot read %s: %v", s.filePath, err)
		}
		return
	}
	if err := toml.Unmarshal(raw, &s.data); err != nil {
		s.sink.Warnf("config: cannot parse %s: %v (starting empty)", s.filePath, err)
		s.data = make(map[string]any)
	}
}

// GetString retrieves a string value, or "" when unset or of another type.
func (s *Store) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return ""
	}
	str, _ := val.(string)
	return str
}

// Set stores a value and persists immediately.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// save writes the TOML file (caller must hold the lock).
func (s *Store) save() error {
	raw, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, raw, 0o600)
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.filePath
}
