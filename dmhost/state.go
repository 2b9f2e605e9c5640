// Package dmhost persists host-managed state: a flat key/value store that
// holds the connection registry between runs.
package dmhost

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.etcd.io/bbolt"
)

// State is the host key/value store. Implementations serialise their own
// reads and writes; callers do read-modify-write without further locking.
type State interface {
	// Get returns the value for key, or nil if it is not set.
	Get(key string) ([]byte, error)

	// Put stores value under key.
	Put(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

var bucketState = []byte("state")

// BoltState implements State on a bbolt database file.
type BoltState struct {
	db *bbolt.DB
}

var _ State = (*BoltState)(nil)

// Config configures OpenBoltState.
type Config struct {
	// AppName is used in the default data directory.
	AppName string

	// DataDir overrides the default data directory.
	DataDir string
}

// OpenBoltState opens (creating if needed) <DataDir>/state.db.
func OpenBoltState(cfg Config) (*BoltState, error) {
	dir := cfg.DataDir
	if dir == "" {
		if err := validateAppName(cfg.AppName); err != nil {
			return nil, err
		}
		var err error
		if dir, err = DefaultDataDir(cfg.AppName); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "state.db"), 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltState{db: db}, nil
}

func (s *BoltState) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketState).Get([]byte(key)); v != nil {
			// bbolt values are only valid inside the transaction.
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *BoltState) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put([]byte(key), value)
	})
}

func (s *BoltState) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Delete([]byte(key))
	})
}

// Path returns the database file path.
func (s *BoltState) Path() string {
	return s.db.Path()
}

// Close closes the database.
func (s *BoltState) Close() error {
	return s.db.Close()
}

// DefaultDataDir returns the per-user data directory for appName.
func DefaultDataDir(appName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// validAppNameRegex allows alphanumerics, hyphens and underscores, 1-64
// characters, starting with an alphanumeric.
var validAppNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

func validateAppName(appName string) error {
	if appName == "" {
		return fmt.Errorf("app name cannot be empty")
	}
	if !validAppNameRegex.MatchString(appName) {
		return fmt.Errorf("invalid app name %q: must contain only alphanumeric characters, hyphens, and underscores, start with alphanumeric, and be 1-64 characters", appName)
	}
	return nil
}
