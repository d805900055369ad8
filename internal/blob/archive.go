package blob

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/memorychain/internal/ir"
)

var (
	// ErrNotFound is returned when no content is archived under a hash.
	ErrNotFound = errors.New("blob not found")

	// ErrHashMismatch is returned when content does not hash to its key.
	ErrHashMismatch = errors.New("content does not match hash")
)

// Archive stores content addressed by its SHA-256 hash.
type Archive interface {
	Put(ctx context.Context, h ir.Hash, data []byte) error
	Get(ctx context.Context, h ir.Hash) ([]byte, error)
	Has(ctx context.Context, h ir.Hash) (bool, error)
}

// checkContent verifies that data hashes to h.
func checkContent(h ir.Hash, data []byte) error {
	if got := ir.SumHash(data); got != h {
		return fmt.Errorf("%w: key %s, content %s", ErrHashMismatch, h, got)
	}
	return nil
}

// MemoryArchive is an in-process Archive.
//
// Thread-safety: safe for concurrent use via internal mutex.
type MemoryArchive struct {
	mu    sync.RWMutex
	blobs map[ir.Hash][]byte
}

// NewMemoryArchive returns an empty in-process archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{blobs: make(map[ir.Hash][]byte)}
}

// Put stores a copy of data under h.
func (a *MemoryArchive) Put(_ context.Context, h ir.Hash, data []byte) error {
	if err := checkContent(h, data); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[h] = append([]byte(nil), data...)
	return nil
}

// Get returns a copy of the content stored under h.
func (a *MemoryArchive) Get(_ context.Context, h ir.Hash) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.blobs[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	return append([]byte(nil), data...), nil
}

// Has reports whether content is stored under h.
func (a *MemoryArchive) Has(_ context.Context, h ir.Hash) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.blobs[h]
	return ok, nil
}
