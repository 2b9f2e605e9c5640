//go:build windows

package dmstore

const (
	// DefaultSecretPath is where the default backend keeps access keys.
	DefaultSecretPath = `CU\SOFTWARE\dmtree\secrets`

	// DefaultConfigPath is the file used by BackendConfig.
	DefaultConfigPath = `$APPDATA\dmtree\secrets`

	// DefaultFileDir is the directory used by BackendFile.
	DefaultFileDir = `$APPDATA\dmtree\secrets.d`
)

// OpenDefault opens the platform secret backend at path.
// On Windows this is a DPAPI-protected registry key.
func OpenDefault(path string) (DataStore, error) {
	return NewRegistryDataStore(path)
}
