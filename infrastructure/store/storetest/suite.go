// ABOUTME: Shared behaviour tests every ArticleStore implementation must pass
// ABOUTME: Covers uniqueness, ordering, reset and attempt fencing of run writes

package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"readaloud-api/core/domain"
	apperrors "readaloud-api/core/errors"
	"readaloud-api/core/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store
type Factory func(t *testing.T) interfaces.ArticleStore

func newArticle(t *testing.T, url string) *domain.Article {
	t.Helper()
	a, err := domain.NewArticle(url)
	require.NoError(t, err)
	return a
}

// Run runs the suite against stores produced by factory
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s interfaces.ArticleStore)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"DuplicateURL", testDuplicateURL},
		{"GetUnknown", testGetUnknown},
		{"ListNewestFirst", testListNewestFirst},
		{"CompletedRun", testCompletedRun},
		{"CompletionRequiresExtraction", testCompletionRequiresExtraction},
		{"ErrorKeepsExtraction", testErrorKeepsExtraction},
		{"Reset", testReset},
		{"StaleAttemptRejected", testStaleAttemptRejected},
		{"TerminalStatusRejectsWrites", testTerminalStatusRejectsWrites},
		{"UnknownIDWrites", testUnknownIDWrites},
		{"ConcurrentDuplicateCreate", testConcurrentDuplicateCreate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, factory(t))
		})
	}
}

func testCreateAndGet(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	a := newArticle(t, "https://example.com/one")

	require.NoError(t, s.Create(ctx, a))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.URL, got.URL)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Equal(t, 1, got.Attempt)
	assert.Nil(t, got.Title)
	assert.Nil(t, got.Content)
	assert.Nil(t, got.AudioRef)
	assert.Nil(t, got.ErrorMessage)
	assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Millisecond)
}

func testDuplicateURL(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newArticle(t, "https://example.com/dup")))

	err := s.Create(ctx, newArticle(t, "https://example.com/dup"))

	assert.True(t, apperrors.IsDuplicate(err), "got %v", err)
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testGetUnknown(t *testing.T, s interfaces.ArticleStore) {
	_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")

	assert.True(t, apperrors.IsNotFound(err), "got %v", err)
}

func testListNewestFirst(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	var ids []string
	for i := 0; i < 3; i++ {
		a := newArticle(t, fmt.Sprintf("https://example.com/%d", i))
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		a.UpdatedAt = a.CreatedAt
		require.NoError(t, s.Create(ctx, a))
		ids = append(ids, a.ID)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func testCompletedRun(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	a := newArticle(t, "https://example.com/done")
	require.NoError(t, s.Create(ctx, a))

	require.NoError(t, s.SaveExtraction(ctx, a.ID, 1, "Title", "Body text"))
	mid, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, mid.Status)
	assert.Equal(t, "Title", domain.StringValue(mid.Title))

	require.NoError(t, s.MarkCompleted(ctx, a.ID, 1, "ref-1"))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "Title", domain.StringValue(got.Title))
	assert.Equal(t, "Body text", domain.StringValue(got.Content))
	assert.Equal(t, "ref-1", domain.StringValue(got.AudioRef))
	assert.Nil(t, got.ErrorMessage)
	assert.NoError(t, got.Validate())
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func testCompletionRequiresExtraction(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	a := newArticle(t, "https://example.com/noextract")
	require.NoError(t, s.Create(ctx, a))

	err := s.MarkCompleted(ctx, a.ID, 1, "ref")

	require.Error(t, err)
	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Nil(t, got.AudioRef)
}

func testErrorKeepsExtraction(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	a := newArticle(t, "https://example.com/fails")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.SaveExtraction(ctx, a.ID, 1, "T", "C"))

	require.NoError(t, s.MarkError(ctx, a.ID, 1, "synthesize timed out after 2m0s"))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "synthesize timed out after 2m0s", domain.StringValue(got.ErrorMessage))
	assert.Equal(t, "T", domain.StringValue(got.Title))
	assert.Nil(t, got.AudioRef)
	assert.NoError(t, got.Validate())
}

func testReset(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	a := newArticle(t, "https://example.com/retry")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.SaveExtraction(ctx, a.ID, 1, "T", "C"))
	require.NoError(t, s.MarkError(ctx, a.ID, 1, "boom"))

	reset, err := s.Reset(ctx, a.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, reset.Attempt)
	assert.Equal(t, domain.StatusProcessing, reset.Status)
	assert.Nil(t, reset.Title)
	assert.Nil(t, reset.Content)
	assert.Nil(t, reset.AudioRef)
	assert.Nil(t, reset.ErrorMessage)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempt)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Nil(t, got.ErrorMessage)
	assert.Equal(t, a.URL, got.URL)

	_, err = s.Reset(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)
}

func testStaleAttemptRejected(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	a := newArticle(t, "https://example.com/stale")
	require.NoError(t, s.Create(ctx, a))
	_, err := s.Reset(ctx, a.ID)
	require.NoError(t, err)

	assert.True(t, errors.Is(s.SaveExtraction(ctx, a.ID, 1, "old", "old"), apperrors.ErrStaleRun))
	assert.True(t, errors.Is(s.MarkCompleted(ctx, a.ID, 1, "old"), apperrors.ErrStaleRun))
	assert.True(t, errors.Is(s.MarkError(ctx, a.ID, 1, "old"), apperrors.ErrStaleRun))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Nil(t, got.Title)
	assert.Nil(t, got.ErrorMessage)

	// the current attempt still owns the record
	require.NoError(t, s.SaveExtraction(ctx, a.ID, 2, "new", "new"))
}

func testTerminalStatusRejectsWrites(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	a := newArticle(t, "https://example.com/terminal")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.MarkError(ctx, a.ID, 1, "first"))

	assert.True(t, errors.Is(s.MarkError(ctx, a.ID, 1, "second"), apperrors.ErrStaleRun))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", domain.StringValue(got.ErrorMessage))
}

func testUnknownIDWrites(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()

	assert.True(t, apperrors.IsNotFound(s.SaveExtraction(ctx, "nope", 1, "t", "c")))
	assert.True(t, apperrors.IsNotFound(s.MarkCompleted(ctx, "nope", 1, "r")))
	assert.True(t, apperrors.IsNotFound(s.MarkError(ctx, "nope", 1, "m")))
}

func testConcurrentDuplicateCreate(t *testing.T, s interfaces.ArticleStore) {
	ctx := context.Background()
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := domain.NewArticle("https://example.com/race")
			if err != nil {
				errs <- err
				return
			}
			errs <- s.Create(ctx, a)
		}()
	}
	wg.Wait()
	close(errs)

	created, duplicates := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case apperrors.IsDuplicate(err):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, duplicates)
}
