package dmtree

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/kardianos/dmtree/dmdef"
	"github.com/kardianos/dmtree/dmhost"
	"github.com/kardianos/dmtree/dmstore"
)

// SecretStore stores secrets addressed by service and entry id.
// Get returns dmstore.ErrSecretNotFound when nothing is stored.
// *dmstore.Keyring implements it.
type SecretStore interface {
	Get(service, entry string) (string, error)
	Set(service, entry, secret string) error
	Delete(service, entry string) error
}

var _ SecretStore = (*dmstore.Keyring)(nil)

// Registry maps connection ids to labels in host state and keeps each
// connection's access key in the secret store.
//
// Every mutation reads, modifies and writes the whole mapping. Concurrent
// writers race and the last one wins.
type Registry struct {
	state   dmhost.State
	secrets SecretStore
	now     func() time.Time
	newID   func() (string, error)
}

// NewRegistry returns a registry over state and secrets.
func NewRegistry(state dmhost.State, secrets SecretStore) *Registry {
	return &Registry{
		state:   state,
		secrets: secrets,
		now:     time.Now,
		newID:   newConnectionID,
	}
}

// newConnectionID returns a time-ordered unique id.
func newConnectionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *Registry) load() (map[string]dmdef.ConnectionInfo, error) {
	data, err := r.state.Get(dmdef.GlobalStateKey)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	m := make(map[string]dmdef.ConnectionInfo)
	if len(data) == 0 {
		return m, nil
	}
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return m, nil
}

func (r *Registry) save(m map[string]dmdef.ConnectionInfo) error {
	if len(m) == 0 {
		if err := r.state.Delete(dmdef.GlobalStateKey); err != nil {
			return fmt.Errorf("write registry: %w", err)
		}
		return nil
	}
	data, err := cbor.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := r.state.Put(dmdef.GlobalStateKey, data); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// List returns every registered connection. It is empty, not nil, when none exist.
func (r *Registry) List() (map[string]dmdef.ConnectionInfo, error) {
	return r.load()
}

// IDs returns the registered connection ids in creation order.
func (r *Registry) IDs() ([]string, error) {
	m, err := r.load()
	if err != nil {
		return nil, err
	}
	return sortedIDs(m), nil
}

func sortedIDs(m map[string]dmdef.ConnectionInfo) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveSecret returns the access key stored for id, or a
// *dmdef.SecretMissingError.
func (r *Registry) ResolveSecret(id string) (string, error) {
	key, err := r.secrets.Get(dmdef.ServiceID, id)
	if errors.Is(err, dmstore.ErrSecretNotFound) {
		return "", &dmdef.SecretMissingError{ID: id}
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

// Resolve returns the full connection for id, access key included.
func (r *Registry) Resolve(id string) (dmdef.Connection, error) {
	m, err := r.load()
	if err != nil {
		return dmdef.Connection{}, err
	}
	info, ok := m[id]
	if !ok {
		return dmdef.Connection{}, fmt.Errorf("%w: %s", dmdef.ErrConnectionNotFound, id)
	}
	key, err := r.ResolveSecret(id)
	if err != nil {
		return dmdef.Connection{}, err
	}
	return dmdef.Connection{ID: id, Label: info.Label, AccessKey: key}, nil
}

// Set registers a new connection and returns its generated id. The access
// key goes to the secret store only.
func (r *Registry) Set(label, accessKey string) (string, error) {
	if accessKey == "" {
		return "", dmdef.ErrAccessKeyEmpty
	}
	if label == "" {
		label = dmdef.DefaultLabel
	}
	id, err := r.newID()
	if err != nil {
		return "", fmt.Errorf("generate connection id: %w", err)
	}

	m, err := r.load()
	if err != nil {
		return "", err
	}
	if err := r.secrets.Set(dmdef.ServiceID, id, accessKey); err != nil {
		return "", fmt.Errorf("store access key: %w", err)
	}
	m[id] = dmdef.ConnectionInfo{Label: label, CreatedAt: r.now().UTC()}
	if err := r.save(m); err != nil {
		if delErr := r.secrets.Delete(dmdef.ServiceID, id); delErr != nil {
			return "", errors.Join(err, fmt.Errorf("remove orphaned access key %s: %w", id, delErr))
		}
		return "", err
	}
	return id, nil
}

// Delete removes one connection from the registry and the secret store.
func (r *Registry) Delete(id string) error {
	m, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := m[id]; !ok {
		return fmt.Errorf("%w: %s", dmdef.ErrConnectionNotFound, id)
	}
	delete(m, id)
	if err := r.save(m); err != nil {
		return err
	}
	if err := r.secrets.Delete(dmdef.ServiceID, id); err != nil {
		return fmt.Errorf("delete access key: %w", err)
	}
	return nil
}

// DeleteAll removes every connection and returns the ids that were removed.
func (r *Registry) DeleteAll() ([]string, error) {
	m, err := r.load()
	if err != nil {
		return nil, err
	}
	ids := sortedIDs(m)
	for _, id := range ids {
		if err := r.secrets.Delete(dmdef.ServiceID, id); err != nil {
			return nil, fmt.Errorf("delete access key %s: %w", id, err)
		}
	}
	if err := r.save(nil); err != nil {
		return nil, err
	}
	return ids, nil
}
