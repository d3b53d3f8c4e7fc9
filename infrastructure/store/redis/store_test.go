package redis

import (
	"context"
	"testing"

	"readaloud-api/core/domain"
	"readaloud-api/core/interfaces"
	"readaloud-api/infrastructure/store/storetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) interfaces.ArticleStore {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_ClearedFieldsAreRemoved(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	a, err := domain.NewArticle("https://example.com/fields")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.SaveExtraction(ctx, a.ID, 1, "T", "C"))
	require.NoError(t, s.MarkError(ctx, a.ID, 1, "boom"))

	_, err = s.Reset(ctx, a.ID)
	require.NoError(t, err)

	key := articleKey(a.ID)
	for _, field := range []string{fieldTitle, fieldContent, fieldErrorMessage, fieldAudioRef} {
		assert.Equal(t, "", mr.HGet(key, field), "field %s should be gone", field)
	}
	assert.Equal(t, "2", mr.HGet(key, fieldAttempt))
	assert.Equal(t, "processing", mr.HGet(key, fieldStatus))
}

func TestStore_URLClaimIsPersistent(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	a, err := domain.NewArticle("https://example.com/claim")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, a))

	got, err := mr.Get(urlKey(a.URL))
	require.NoError(t, err)
	assert.Equal(t, a.ID, got)
	assert.Zero(t, mr.TTL(urlKey(a.URL)))
}

func TestStore_ListEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	list, err := s.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_ConnectionLost(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "any")

	assert.Error(t, err)
}
