package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/ir"
)

func TestMemoryArchive(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryArchive()
	content := []byte("hello")
	h := ir.SumHash(content)

	ok, err := a.Has(ctx, h)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Get(ctx, h)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, a.Put(ctx, h, content))
	content[0] = 'j' // Archive keeps its own copy

	got, err := a.Get(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	ok, err = a.Has(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryArchive_RejectsWrongKey(t *testing.T) {
	a := NewMemoryArchive()

	err := a.Put(context.Background(), ir.SumHash([]byte("hello")), []byte("jello"))
	assert.ErrorIs(t, err, ErrHashMismatch)
}
