// Package dmstore provides the key-value backends used to keep connection
// access keys at rest, and the Keyring that addresses secrets by service and
// entry.
//
// Values written with encrypt set are sealed before they reach the backend:
// nacl/secretbox with an embedded key on Unix, DPAPI on Windows. Each sealed
// value starts with a byte naming which of the two produced it. The embedded
// key keeps secrets out of plain text; it is not a defence against someone
// holding the binary.
package dmstore

// DataStore provides simple key-value storage for secrets.
// Platform-specific implementations can use files, Windows registry with DPAPI, etc.
type DataStore interface {
	// Get retrieves a value by key. Returns nil, nil if not found.
	// If decrypt is true, the value is decrypted before returning.
	Get(key string, decrypt bool) ([]byte, error)

	// Set stores a value by key.
	// If encrypt is true, the value is encrypted before storing.
	Set(key string, encrypt bool, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error

	// Path returns the storage location for display purposes.
	Path() string
}
