package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// StoreVersion is the current version of the preference file format.
const StoreVersion = 1

// Errors.
var (
	ErrInvalidValue = errors.New("invalid preference value")
	ErrTypeMismatch = errors.New("preference has unexpected type")
	ErrUnknownItem  = errors.New("unknown control strip item")
)

// Store is a domain/key preference store.
type Store interface {
	// Get returns the value stored under domain and key. ok is false when
	// nothing is stored.
	Get(domain, key string) (value any, ok bool, err error)

	// Set stores value under domain and key.
	Set(domain, key string, value any) error
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	domains map[string]map[string]any
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{domains: make(map[string]map[string]any)}
}

// Get implements Store.
func (s *MemoryStore) Get(domain, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.domains[domain][key]
	return v, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(domain, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	setValue(s.domains, domain, key, value)
	return nil
}

// Keys returns the keys stored in domain, sorted.
func (s *MemoryStore) Keys(domain string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.domains[domain]))
}

func setValue(domains map[string]map[string]any, domain, key string, value any) {
	d, ok := domains[domain]
	if !ok {
		d = make(map[string]any)
		domains[domain] = d
	}
	d[key] = value
}

// fileState is the on-disk layout of a FileStore.
type fileState struct {
	Version int                       `json:"version"`
	SavedAt time.Time                 `json:"saved_at"`
	Domains map[string]map[string]any `json:"domains"`
}

// FileStore is a Store persisted to a JSON file. Every Set rewrites the
// file. Numbers read back from disk are float64.
type FileStore struct {
	mu      sync.Mutex
	path    string
	loaded  bool
	domains map[string]map[string]any
}

// NewFileStore creates a store backed by path. The file is read on first
// access; a missing file is an empty store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(domain, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, false, err
	}
	v, ok := s.domains[domain][key]
	return v, ok, nil
}

// Set implements Store.
func (s *FileStore) Set(domain, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	setValue(s.domains, domain, key, value)
	return s.saveLocked()
}

// Reload discards cached values and rereads the file on next access.
func (s *FileStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.domains = nil
}

// Clear removes the backing file and all cached values.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.domains = make(map[string]map[string]any)

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.domains = make(map[string]map[string]any)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return err
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if st.Domains != nil {
		s.domains = st.Domains
	}
	s.loaded = true
	return nil
}

func (s *FileStore) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileState{
		Version: StoreVersion,
		SavedAt: time.Now(),
		Domains: s.domains,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// getFloat reads a number. JSON round trips turn every number into float64.
func getFloat(s Store, domain, key string, def float32) (float32, error) {
	v, ok, err := s.Get(domain, key)
	if err != nil || !ok {
		return def, err
	}
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	case int:
		return float32(n), nil
	}
	return def, fmt.Errorf("%w: %s/%s is %T", ErrTypeMismatch, domain, key, v)
}

func getInt(s Store, domain, key string, def int) (int, error) {
	v, ok, err := s.Get(domain, key)
	if err != nil || !ok {
		return def, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case float32:
		return int(n), nil
	}
	return def, fmt.Errorf("%w: %s/%s is %T", ErrTypeMismatch, domain, key, v)
}

func getBool(s Store, domain, key string, def bool) (bool, error) {
	v, ok, err := s.Get(domain, key)
	if err != nil || !ok {
		return def, err
	}
	b, isBool := v.(bool)
	if !isBool {
		return def, fmt.Errorf("%w: %s/%s is %T", ErrTypeMismatch, domain, key, v)
	}
	return b, nil
}
