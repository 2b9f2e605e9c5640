package dmstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileDataStore implements DataStore with one file per key in a directory.
type FileDataStore struct {
	dir string
	mu  sync.RWMutex
}

var _ DataStore = (*FileDataStore)(nil)

// NewFileDataStore creates the directory if needed and returns a store over it.
func NewFileDataStore(dir string) (*FileDataStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory is required")
	}
	dir = ExpandPath(dir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data store directory: %w", err)
	}
	return &FileDataStore{dir: dir}, nil
}

func (s *FileDataStore) file(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *FileDataStore) Get(key string, decrypt bool) ([]byte, error) {
	path, err := s.file(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if decrypt && len(data) > 0 {
		plain, err := unseal(data)
		if err != nil {
			return nil, fmt.Errorf("unseal %s: %w", key, err)
		}
		return plain, nil
	}
	return data, nil
}

func (s *FileDataStore) Set(key string, encrypt bool, value []byte) error {
	path, err := s.file(key)
	if err != nil {
		return err
	}

	data := value
	if encrypt {
		if data, err = seal(value); err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return atomicWriteFile(path, data, 0600)
}

func (s *FileDataStore) Delete(key string) error {
	path, err := s.file(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileDataStore) Path() string {
	return s.dir
}

// atomicWriteFile writes data to a temp file and renames it to the target path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(name)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
