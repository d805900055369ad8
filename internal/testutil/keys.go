package testutil

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/roach88/memorychain/internal/ir"
)

// Keypair returns a deterministic Ed25519 key for a test identity name.
// The same name always yields the same key, so scenarios can refer to
// signers by alias.
func Keypair(name string) ed25519.PrivateKey {
	seed := sha256.Sum256([]byte("memorychain-test/" + name))
	return ed25519.NewKeyFromSeed(seed[:])
}

// Address returns the address (public key) of the named test identity.
func Address(name string) ir.Address {
	return ir.Address(Keypair(name).Public().(ed25519.PublicKey))
}

// SequentialRequestIDs generates "<prefix>-1", "<prefix>-2", ...
//
// Implements engine.RequestIDGenerator.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialRequestIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRequestIDs creates a generator. An empty prefix means "req".
func NewSequentialRequestIDs(prefix string) *SequentialRequestIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialRequestIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialRequestIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
