package dmstore

import "fmt"

// Backend names a DataStore implementation.
type Backend string

const (
	// BackendDefault is the platform store: a config file on Unix, the
	// registry on Windows.
	BackendDefault Backend = ""
	// BackendConfig keeps every secret in one config file.
	BackendConfig Backend = "config"
	// BackendFile keeps one file per secret in a directory.
	BackendFile Backend = "file"
)

// ParseBackend validates a backend name from configuration.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendDefault, BackendConfig, BackendFile:
		return b, nil
	default:
		return "", fmt.Errorf("dmstore: unknown backend %q (want config or file)", name)
	}
}

// Open opens backend b at path. An empty path selects the backend's default
// location.
func Open(b Backend, path string) (DataStore, error) {
	switch b {
	case BackendDefault:
		if path == "" {
			path = DefaultSecretPath
		}
		return OpenDefault(path)
	case BackendConfig:
		if path == "" {
			path = DefaultConfigPath
		}
		return NewConfigDataStore(path)
	case BackendFile:
		if path == "" {
			path = DefaultFileDir
		}
		return NewFileDataStore(path)
	default:
		return nil, fmt.Errorf("dmstore: unknown backend %q", b)
	}
}
