package dmstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyring(t *testing.T) {
	backends := map[string]func(t *testing.T) DataStore{
		"config": func(t *testing.T) DataStore {
			s, err := NewConfigDataStore(filepath.Join(t.TempDir(), "secrets"))
			require.NoError(t, err)
			return s
		},
		"file": func(t *testing.T) DataStore {
			s, err := NewFileDataStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			kr := NewKeyring(open(t))

			_, err := kr.Get("dmtree", "id1")
			require.ErrorIs(t, err, ErrSecretNotFound)

			require.NoError(t, kr.Set("dmtree", "id1", "ABC123"))
			require.NoError(t, kr.Set("other", "id1", "XYZ"))

			got, err := kr.Get("dmtree", "id1")
			require.NoError(t, err)
			assert.Equal(t, "ABC123", got)

			require.NoError(t, kr.Delete("dmtree", "id1"))
			_, err = kr.Get("dmtree", "id1")
			assert.ErrorIs(t, err, ErrSecretNotFound)

			got, err = kr.Get("other", "id1")
			require.NoError(t, err)
			assert.Equal(t, "XYZ", got, "other service untouched")
		})
	}
}

func TestKeyringRejectsInvalidNames(t *testing.T) {
	kr := NewKeyring(nil)
	tests := []struct{ service, entry string }{
		{"", "id"},
		{"dmtree", ""},
		{"dmtree", "../id"},
		{"dm tree", "id"},
		{"dmtree", "a=b"},
	}
	for _, tt := range tests {
		assert.Error(t, kr.Set(tt.service, tt.entry, "x"), "Set(%q, %q)", tt.service, tt.entry)
	}
}

func TestKeyringReportsForeignValue(t *testing.T) {
	store, err := NewFileDataStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("dmtree.id1", false, []byte("plaintext")))

	_, err = NewKeyring(store).Get("dmtree", "id1")
	assert.ErrorIs(t, err, ErrUnsealable)
}
