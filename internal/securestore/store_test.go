package securestore

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	file, err := Open(filepath.Join(t.TempDir(), "store"), "")
	require.NoError(t, err)

	return map[string]Store{
		"file":   file,
		"memory": NewMemory(),
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(KeyAuthToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(KeyAuthToken, "access"))
			require.NoError(t, s.Set(KeyUserData, `{"id":"u1"}`))
			require.NoError(t, s.Set(KeyAuthToken, "rotated"))

			v, err := s.Get(KeyAuthToken)
			require.NoError(t, err)
			assert.Equal(t, "rotated", v)

			require.NoError(t, s.Delete(KeyAuthToken))
			assert.ErrorIs(t, s.Delete(KeyAuthToken), ErrNotFound)

			v, err = s.Get(KeyUserData)
			require.NoError(t, err)
			assert.Equal(t, `{"id":"u1"}`, v)
		})
	}
}

func TestClear_IgnoresMissingKeys(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set(KeyAuthToken, "a"))

	require.NoError(t, Clear(s, KeyAuthToken, KeyRefreshToken, KeyUserData))

	_, err := s.Get(KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_EncryptedAtRestWithPrivateMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store")
	s, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAuthToken, "super-secret-token"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret-token")

	for _, p := range []string{path, path + ".key"} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), p)
	}

	reopened, err := Open(path, "")
	require.NoError(t, err)
	v, err := reopened.Get(KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "super-secret-token", v)
}

func TestFile_ExplicitKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")
	key := hex.EncodeToString([]byte(strings.Repeat("k", 32)))

	s, err := Open(path, key)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyUserData, "blob"))

	_, err = os.Stat(path + ".key")
	assert.True(t, os.IsNotExist(err))

	other, err := Open(path, hex.EncodeToString([]byte(strings.Repeat("x", 32))))
	require.NoError(t, err)
	_, err = other.Get(KeyUserData)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestOpen_InvalidKey(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "store"), "abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
