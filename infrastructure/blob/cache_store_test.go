package blob

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "readaloud-api/core/errors"
	"readaloud-api/infrastructure/cache/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBlobStore_StoreAndLoad(t *testing.T) {
	store := NewCacheBlobStore(memory.NewMemoryCache(), "https://listen.example.com/")
	ctx := context.Background()
	audio := []byte{0x49, 0x44, 0x33, 0x04, 0x00}

	ref, err := store.Store(ctx, audio)
	require.NoError(t, err)
	_, err = uuid.Parse(ref)
	assert.NoError(t, err, "reference should be a uuid")

	got, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, audio, got)

	assert.Equal(t, "https://listen.example.com/audio/"+ref, store.ResolveURL(ref))
}

func TestCacheBlobStore_DistinctReferences(t *testing.T) {
	store := NewCacheBlobStore(memory.NewMemoryCache(), "http://localhost:8000")
	ctx := context.Background()

	a, err := store.Store(ctx, []byte("a"))
	require.NoError(t, err)
	b, err := store.Store(ctx, []byte("a"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCacheBlobStore_LoadUnknown(t *testing.T) {
	store := NewCacheBlobStore(memory.NewMemoryCache(), "http://localhost:8000")

	for _, ref := range []string{uuid.NewString(), "../etc/passwd", ""} {
		_, err := store.Load(context.Background(), ref)
		assert.True(t, apperrors.IsNotFound(err), "ref %q: %v", ref, err)
	}
}

func TestCacheBlobStore_RejectsEmpty(t *testing.T) {
	store := NewCacheBlobStore(memory.NewMemoryCache(), "http://localhost:8000")

	_, err := store.Store(context.Background(), nil)

	assert.Error(t, err)
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f failingCache) Delete(context.Context, string) error { return f.err }

func TestCacheBlobStore_BackendErrors(t *testing.T) {
	backendErr := errors.New("disk full")
	store := NewCacheBlobStore(failingCache{err: backendErr}, "http://localhost:8000")

	_, err := store.Store(context.Background(), []byte("a"))
	assert.ErrorIs(t, err, backendErr)

	_, err = store.Load(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, backendErr)
	assert.False(t, apperrors.IsNotFound(err))
}
