package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/memorychain/internal/ir"
)

// errObjectMissing is returned by objectStore implementations for an absent key.
var errObjectMissing = errors.New("object missing")

// objectStore is the key/value surface of an object storage bucket.
type objectStore interface {
	PutObject(ctx context.Context, key string, data []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	StatObject(ctx context.Context, key string) (bool, error)
}

// ObjectArchive is an Archive over an object storage bucket.
type ObjectArchive struct {
	objects objectStore
	prefix  string
	logger  *slog.Logger
}

func newObjectArchive(objects objectStore, prefix string, logger *slog.Logger) *ObjectArchive {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObjectArchive{objects: objects, prefix: prefix, logger: logger}
}

// Key returns the object key for content hash h.
func (a *ObjectArchive) Key(h ir.Hash) string {
	return a.prefix + h.String()
}

// Put uploads data under h after checking it hashes to h.
// Uploading the same content twice is harmless.
func (a *ObjectArchive) Put(ctx context.Context, h ir.Hash, data []byte) error {
	if err := checkContent(h, data); err != nil {
		return err
	}
	key := a.Key(h)
	if err := a.objects.PutObject(ctx, key, data); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	a.logger.Debug("archived content", "key", key, "size", len(data))
	return nil
}

// Get downloads the content for h and re-checks its hash.
func (a *ObjectArchive) Get(ctx context.Context, h ir.Hash) ([]byte, error) {
	key := a.Key(h)
	data, err := a.objects.GetObject(ctx, key)
	if errors.Is(err, errObjectMissing) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	if err := checkContent(h, data); err != nil {
		a.logger.Error("archived content corrupted", "key", key, "error", err)
		return nil, err
	}
	return data, nil
}

// Has reports whether the bucket holds content for h.
func (a *ObjectArchive) Has(ctx context.Context, h ir.Hash) (bool, error) {
	ok, err := a.objects.StatObject(ctx, a.Key(h))
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", a.Key(h), err)
	}
	return ok, nil
}
