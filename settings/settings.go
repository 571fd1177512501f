package settings

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Store persists a single named parameter blob. The blob format belongs
// to the caller; a Store only moves bytes.
type Store interface {
	Load() (string, error)
	Save(blob string) error
}

// PersistenceError reports a failed load or save. Callers treat it as
// non-fatal and continue with defaults or in-memory values.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("settings %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrNotFound is wrapped by Load when nothing has been saved yet.
var ErrNotFound = errors.New("no saved settings")

// FileStore keeps the blob in a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns ~/.config/gothermal/settings.json, creating the directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(homeDir, ".config", "gothermal")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "settings.json"), nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &PersistenceError{Op: "load", Path: s.path, Err: ErrNotFound}
		}
		return "", &PersistenceError{Op: "load", Path: s.path, Err: err}
	}
	return string(data), nil
}

// Save writes the blob through a temporary file so a crash never leaves
// a truncated settings file behind.
func (s *FileStore) Save(blob string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(blob), 0644); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// MemoryStore is an in-process Store, used when no settings file is wanted.
type MemoryStore struct {
	blob  string
	saved bool
	Saves int
}

func (m *MemoryStore) Load() (string, error) {
	if !m.saved {
		return "", &PersistenceError{Op: "load", Path: "memory", Err: ErrNotFound}
	}
	return m.blob, nil
}

func (m *MemoryStore) Save(blob string) error {
	m.blob = blob
	m.saved = true
	m.Saves++
	return nil
}

// Open returns a FileStore at path, or at DefaultPath when path is empty.
// If no path can be resolved it falls back to a MemoryStore.
func Open(path string) Store {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			log.Printf("Warning: no settings directory, parameters will not persist: %v", err)
			return &MemoryStore{}
		}
		path = p
	}
	log.Printf("Using settings file %s", path)
	return NewFileStore(path)
}
