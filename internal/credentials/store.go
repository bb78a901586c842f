package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/netmgr/internal/fault"
	"github.com/muurk/netmgr/internal/logging"
)

// Credentials is the network name/passphrase pair the station connects with.
type Credentials struct {
	NetworkName string `yaml:"ssid"`
	Passphrase  string `yaml:"password"`
}

// DefaultCredentials is returned when no usable record exists.
var DefaultCredentials = Credentials{}

// Store persists a single Credentials record in a YAML file.
type Store struct {
	path     string
	fallback Credentials
	mu       sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path, fallback: DefaultCredentials}
}

// WithFallback sets the value Load returns when the record is missing or corrupt.
func (s *Store) WithFallback(c Credentials) *Store {
	s.fallback = c
	return s
}

// Path returns the record location
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored credentials. It never fails: a missing, unreadable
// or corrupt record yields the fallback value.
func (s *Store) Load() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Credential record unreadable, using defaults",
				zap.String("path", s.path),
				zap.Error(err),
			)
		}
		return s.fallback
	}

	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		logging.Warn("Credential record corrupt, using defaults",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return s.fallback
	}

	return c
}

// Save replaces the stored record. The write is durable when Save returns:
// the data is written to a temporary file, synced, renamed over the record and
// the directory is synced. Failures are reported as fault.KindPersistence.
func (s *Store) Save(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(&c)
	if err != nil {
		return fault.NewPersistence("credentials.save", fmt.Errorf("failed to marshal record: %w", err))
	}

	header := []byte(`# netmgr network credentials
# Edit by hand or delete this file to factory-reset.

`)
	data = append(header, data...)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fault.NewPersistence("credentials.save", fmt.Errorf("failed to create directory: %w", err))
	}

	tmpPath := s.path + ".tmp"
	if err := writeSynced(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return fault.NewPersistence("credentials.save", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fault.NewPersistence("credentials.save", fmt.Errorf("failed to replace record: %w", err))
	}

	if err := syncDir(dir); err != nil {
		return fault.NewPersistence("credentials.save", err)
	}

	logging.Info("Credentials saved",
		zap.String("path", s.path),
		zap.String("ssid", c.NetworkName),
	)
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open temporary record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temporary record: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync temporary record: %w", err)
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory for sync: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}
