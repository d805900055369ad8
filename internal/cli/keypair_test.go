package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/testutil"
)

func TestKeypair_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice.json")
	key := testutil.Keypair("alice")

	require.NoError(t, WriteKeypair(path, key))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, key, loaded)
	assert.Equal(t, testutil.Address("alice"), AddressOf(loaded))
}

func TestWriteKeypair_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice.json")
	require.NoError(t, WriteKeypair(path, testutil.Keypair("alice")))

	err := WriteKeypair(path, testutil.Keypair("bob"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrExist)

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.Keypair("alice"), loaded)
}

func TestLoadKeypair_Invalid(t *testing.T) {
	key := testutil.Keypair("alice")
	mismatched := make([]int, 64)
	for i := range mismatched {
		mismatched[i] = int(key[i])
	}
	mismatched[63] ^= 1

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"not json", "hello", "parse keypair"},
		{"short", "[1,2,3]", "3 bytes, want 64"},
		{"out of range", "[" + strings.Repeat("0,", 63) + "256]", "byte 63 out of range"},
		{"mismatched public key", string(mustJSON(t, mismatched)), "public key does not match seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "key.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := LoadKeypair(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadKeypair(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read keypair")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
