package dmtree

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kardianos/dmtree/dmdef"
	"github.com/kardianos/dmtree/dmhost"
	"github.com/kardianos/dmtree/dmmock"
	"github.com/kardianos/dmtree/dmstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySetThenList(t *testing.T) {
	secrets := dmmock.NewSecrets()
	reg := NewRegistry(dmmock.NewState(), secrets)

	id, err := reg.Set("prod", "ABC123")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	conns, err := reg.List()
	require.NoError(t, err)
	require.Contains(t, conns, id)
	assert.Equal(t, "prod", conns[id].Label)

	key, err := reg.ResolveSecret(id)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", key)
}

func TestRegistryNeverStoresAccessKeyInState(t *testing.T) {
	state := dmmock.NewState()
	reg := NewRegistry(state, dmmock.NewSecrets())

	_, err := reg.Set("prod", "SUPER-SECRET-KEY")
	require.NoError(t, err)

	raw, err := state.Get(dmdef.GlobalStateKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "SUPER-SECRET-KEY")
}

func TestRegistrySetRollsBackSecret(t *testing.T) {
	state := dmmock.NewState()
	secrets := dmmock.NewSecrets()
	reg := NewRegistry(state, secrets)
	diskFull := errors.New("disk full")
	state.PutErr = diskFull

	_, err := reg.Set("prod", "ABC123")
	assert.ErrorIs(t, err, diskFull)
	assert.Zero(t, secrets.Len(), "secret left behind after a failed registry write")

	locked := errors.New("keyring locked")
	secrets.DeleteErr = locked
	_, err = reg.Set("prod", "ABC123")
	assert.ErrorIs(t, err, diskFull)
	assert.ErrorIs(t, err, locked, "a failed rollback must be reported")
	assert.Equal(t, 1, secrets.Len())
}

func TestRegistryEmpty(t *testing.T) {
	reg := NewRegistry(dmmock.NewState(), dmmock.NewSecrets())
	conns, err := reg.List()
	require.NoError(t, err)
	assert.NotNil(t, conns)
	assert.Empty(t, conns)
}

func TestRegistrySetValidation(t *testing.T) {
	reg := NewRegistry(dmmock.NewState(), dmmock.NewSecrets())

	_, err := reg.Set("prod", "")
	assert.ErrorIs(t, err, dmdef.ErrAccessKeyEmpty)

	id, err := reg.Set("", "KEY")
	require.NoError(t, err)
	conns, err := reg.List()
	require.NoError(t, err)
	assert.Equal(t, dmdef.DefaultLabel, conns[id].Label)
}

func TestRegistryIDsAreTimeOrdered(t *testing.T) {
	reg := NewRegistry(dmmock.NewState(), dmmock.NewSecrets())

	var want []string
	for i := range 5 {
		id, err := reg.Set(fmt.Sprint("c", i), "KEY")
		require.NoError(t, err)
		want = append(want, id)
		time.Sleep(2 * time.Millisecond)
	}
	got, err := reg.IDs()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRegistryResolveSecretMissing(t *testing.T) {
	reg := NewRegistry(dmmock.NewState(), dmmock.NewSecrets())
	_, err := reg.ResolveSecret("nope")
	var sm *dmdef.SecretMissingError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "nope", sm.ID)
}

func TestRegistryDelete(t *testing.T) {
	secrets := dmmock.NewSecrets()
	reg := NewRegistry(dmmock.NewState(), secrets)

	keep, err := reg.Set("keep", "K1")
	require.NoError(t, err)
	drop, err := reg.Set("drop", "K2")
	require.NoError(t, err)

	require.NoError(t, reg.Delete(drop))
	assert.ErrorIs(t, reg.Delete(drop), dmdef.ErrConnectionNotFound)

	conns, err := reg.List()
	require.NoError(t, err)
	assert.Len(t, conns, 1)
	assert.Contains(t, conns, keep)
	_, err = secrets.Get(dmdef.ServiceID, drop)
	assert.ErrorIs(t, err, dmstore.ErrSecretNotFound)
}

func TestRegistryDeleteAll(t *testing.T) {
	state := dmmock.NewState()
	secrets := dmmock.NewSecrets()
	reg := NewRegistry(state, secrets)

	for i := range 3 {
		_, err := reg.Set(fmt.Sprint("c", i), "KEY")
		require.NoError(t, err)
	}
	ids, err := reg.DeleteAll()
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Zero(t, secrets.Len())

	conns, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry(dmmock.NewState(), dmmock.NewSecrets())
	id, err := reg.Set("prod", "ABC123")
	require.NoError(t, err)

	conn, err := reg.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, dmdef.Connection{ID: id, Label: "prod", AccessKey: "ABC123"}, conn)

	_, err = reg.Resolve("missing")
	assert.ErrorIs(t, err, dmdef.ErrConnectionNotFound)
}

func TestRegistryIDGenerationFailure(t *testing.T) {
	secrets := dmmock.NewSecrets()
	reg := NewRegistry(dmmock.NewState(), secrets)
	reg.newID = func() (string, error) { return "", errors.New("no entropy") }

	_, err := reg.Set("prod", "KEY")
	assert.Error(t, err)
	assert.Zero(t, secrets.Len())
}

func TestRegistryPersistsThroughBoltAndKeyring(t *testing.T) {
	dir := t.TempDir()
	state, err := dmhost.OpenBoltState(dmhost.Config{DataDir: dir})
	require.NoError(t, err)
	store, err := dmstore.NewConfigDataStore(dir + "/secrets")
	require.NoError(t, err)

	id, err := NewRegistry(state, dmstore.NewKeyring(store)).Set("prod", "ABC123")
	require.NoError(t, err)
	require.NoError(t, state.Close())

	state, err = dmhost.OpenBoltState(dmhost.Config{DataDir: dir})
	require.NoError(t, err)
	defer state.Close()
	store, err = dmstore.NewConfigDataStore(dir + "/secrets")
	require.NoError(t, err)

	conn, err := NewRegistry(state, dmstore.NewKeyring(store)).Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, "prod", conn.Label)
	assert.Equal(t, "ABC123", conn.AccessKey)
}
