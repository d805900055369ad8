package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeypair_Deterministic(t *testing.T) {
	assert.Equal(t, Keypair("alice"), Keypair("alice"))
	assert.NotEqual(t, Address("alice"), Address("bob"))
}

func TestAddress_IsPublicKey(t *testing.T) {
	key := Keypair("alice")
	addr := Address("alice")

	msg := []byte("signed by alice")
	sig := ed25519.Sign(key, msg)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(addr.Bytes()), msg, sig))
}

func TestSequentialRequestIDs(t *testing.T) {
	gen := NewSequentialRequestIDs("scenario")
	assert.Equal(t, "scenario-1", gen.Generate())
	assert.Equal(t, "scenario-2", gen.Generate())

	assert.Equal(t, "req-1", NewSequentialRequestIDs("").Generate())
}
