package dmstore

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrSecretNotFound is returned by Keyring.Get when no secret is stored.
var ErrSecretNotFound = errors.New("dmstore: secret not found")

// validName restricts service and entry ids to characters that are safe as
// file names, config keys and registry value names.
var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,127}$`)

// Keyring addresses secrets by (service, entry) on top of a DataStore.
// Every value is sealed before it reaches the backend. A value the current
// platform cannot open is reported as ErrUnsealable from Get.
type Keyring struct {
	store DataStore
}

// NewKeyring returns a Keyring backed by store.
func NewKeyring(store DataStore) *Keyring {
	return &Keyring{store: store}
}

func keyringKey(service, entry string) (string, error) {
	if !validName.MatchString(service) {
		return "", fmt.Errorf("dmstore: invalid service id %q", service)
	}
	if !validName.MatchString(entry) {
		return "", fmt.Errorf("dmstore: invalid entry id %q", entry)
	}
	return service + "." + entry, nil
}

// Get returns the secret for (service, entry) or ErrSecretNotFound.
func (k *Keyring) Get(service, entry string) (string, error) {
	key, err := keyringKey(service, entry)
	if err != nil {
		return "", err
	}
	data, err := k.store.Get(key, true)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", key, err)
	}
	if data == nil {
		return "", ErrSecretNotFound
	}
	return string(data), nil
}

// Set stores secret under (service, entry), replacing any previous value.
func (k *Keyring) Set(service, entry, secret string) error {
	key, err := keyringKey(service, entry)
	if err != nil {
		return err
	}
	if err := k.store.Set(key, true, []byte(secret)); err != nil {
		return fmt.Errorf("write secret %s: %w", key, err)
	}
	return nil
}

// Delete removes the secret for (service, entry). Missing secrets are ignored.
func (k *Keyring) Delete(service, entry string) error {
	key, err := keyringKey(service, entry)
	if err != nil {
		return err
	}
	return k.store.Delete(key)
}

// Path reports where the backing store lives.
func (k *Keyring) Path() string {
	return k.store.Path()
}
