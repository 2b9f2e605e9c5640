//go:build !windows

package dmstore

const (
	// DefaultSecretPath is where the default backend keeps access keys.
	DefaultSecretPath = DefaultConfigPath

	// DefaultConfigPath is the file used by BackendConfig.
	DefaultConfigPath = "$HOME/.config/dmtree/secrets"

	// DefaultFileDir is the directory used by BackendFile.
	DefaultFileDir = "$HOME/.config/dmtree/secrets.d"
)

// OpenDefault opens the platform secret backend at path.
// On Unix this is an encrypted config file.
func OpenDefault(path string) (DataStore, error) {
	return NewConfigDataStore(path)
}
