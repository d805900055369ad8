package blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/ir"
)

// MockObjectStore is a mock for objectStore.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	ret := args.Get(0)
	if ret == nil {
		return nil, args.Error(1)
	}
	return ret.([]byte), args.Error(1)
}

func (m *MockObjectStore) StatObject(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func newTestArchive(objects objectStore) *ObjectArchive {
	return newObjectArchive(objects, DefaultPrefix, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var (
	content    = []byte("hello")
	contentKey = "memories/2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
)

func TestObjectArchive_Key(t *testing.T) {
	a := newTestArchive(new(MockObjectStore))
	assert.Equal(t, contentKey, a.Key(ir.SumHash(content)))
}

func TestObjectArchive_Put(t *testing.T) {
	ctx := context.Background()
	objects := new(MockObjectStore)
	objects.On("PutObject", ctx, contentKey, content).Return(nil).Once()

	a := newTestArchive(objects)
	require.NoError(t, a.Put(ctx, ir.SumHash(content), content))
	objects.AssertExpectations(t)
}

func TestObjectArchive_PutMismatchNeverUploads(t *testing.T) {
	objects := new(MockObjectStore)
	a := newTestArchive(objects)

	err := a.Put(context.Background(), ir.SumHash(content), []byte("other"))
	assert.ErrorIs(t, err, ErrHashMismatch)
	objects.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything)
}

func TestObjectArchive_Get(t *testing.T) {
	ctx := context.Background()
	h := ir.SumHash(content)

	tests := []struct {
		name    string
		data    any
		err     error
		wantErr error
	}{
		{"found", content, nil, nil},
		{"missing", nil, errObjectMissing, ErrNotFound},
		{"corrupted", []byte("jello"), nil, ErrHashMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := new(MockObjectStore)
			objects.On("GetObject", ctx, contentKey).Return(tt.data, tt.err)

			got, err := newTestArchive(objects).Get(ctx, h)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, content, got)
		})
	}
}

func TestObjectArchive_GetTransportError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	objects := new(MockObjectStore)
	objects.On("GetObject", ctx, contentKey).Return(nil, boom)

	_, err := newTestArchive(objects).Get(ctx, ir.SumHash(content))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestObjectArchive_Has(t *testing.T) {
	ctx := context.Background()
	objects := new(MockObjectStore)
	objects.On("StatObject", ctx, contentKey).Return(true, nil)

	ok, err := newTestArchive(objects).Has(ctx, ir.SumHash(content))
	require.NoError(t, err)
	assert.True(t, ok)
}
