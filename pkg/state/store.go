package state

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Store loads and saves the persisted record.
type Store interface {
	Load(ctx context.Context) (Persisted, error)
	Save(ctx context.Context, p Persisted, opts ...SaveOption) error
}

// SaveOptions controls what a save writes.
type SaveOptions struct {
	IncludeVenues bool
}

// SaveOption configures a save.
type SaveOption func(*SaveOptions)

// WithVenueCache writes the venue collection as a warm-start cache.
func WithVenueCache(include bool) SaveOption {
	return func(o *SaveOptions) {
		o.IncludeVenues = include
	}
}

func saveOptions(opts ...SaveOption) SaveOptions {
	o := SaveOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Compile-time interface checks.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// FileStore keeps the record as YAML at a path. The file can hold a session
// token so it is created owner-readable only.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore. A leading ~ expands to the home directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = constants.DefaultStatePath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: expanded}, nil
}

// Path returns the resolved file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record. A missing file yields Default with no error.
func (s *FileStore) Load(ctx context.Context) (Persisted, error) {
	if err := ctx.Err(); err != nil {
		return Persisted{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Persisted{}, errors.WrapIO("read", s.path, err)
	}
	var p Persisted
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persisted{}, errors.WrapParse("yaml", s.path, err)
	}
	return p.Normalize(), nil
}

// Save writes the record atomically through a temp file and rename.
func (s *FileStore) Save(ctx context.Context, p Persisted, opts ...SaveOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = prepare(p, saveOptions(opts...))
	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.WrapParse("yaml", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(s.path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.yaml")
	if err != nil {
		return errors.WrapIO("create", s.path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.SecureFilePermissions); err != nil {
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.WrapIO("write", s.path, err)
	}
	return nil
}

// Reset removes the file.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("delete", s.path, err)
	}
	return nil
}

// MemoryStore keeps the record in memory.
type MemoryStore struct {
	mu    sync.Mutex
	saved *Persisted
	saves int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the last saved record or Default.
func (m *MemoryStore) Load(context.Context) (Persisted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return Default(), nil
	}
	out := *m.saved
	out.Venues = venues.CloneAll(m.saved.Venues)
	return out.Normalize(), nil
}

// Save stores a copy of p.
func (m *MemoryStore) Save(_ context.Context, p Persisted, opts ...SaveOption) error {
	p = prepare(p, saveOptions(opts...))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &p
	m.saves++
	return nil
}

// Saves returns how many times Save ran.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func prepare(p Persisted, o SaveOptions) Persisted {
	p.Version = Version
	if p.SavedAt.IsZero() {
		p.SavedAt = time.Now().UTC()
	}
	if o.IncludeVenues {
		p.Venues = venues.CloneAll(p.Venues)
	} else {
		p.Venues = nil
	}
	if p.Session != nil {
		s := *p.Session
		p.Session = &s
	}
	return p
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewConfigError("state", "cannot resolve home directory", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
