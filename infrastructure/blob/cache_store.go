// ABOUTME: Blob store for synthesized audio built on any interfaces.Cache backend
// ABOUTME: References are random UUIDs resolved to URLs under the public base URL

package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "readaloud-api/core/errors"
	"readaloud-api/core/interfaces"

	"github.com/google/uuid"
)

const keyPrefix = "audio:"

// CacheBlobStore implements interfaces.BlobStore. Blobs never expire.
type CacheBlobStore struct {
	cache   interfaces.Cache
	baseURL string
}

// NewCacheBlobStore creates a blob store; baseURL is the public server root
func NewCacheBlobStore(cache interfaces.Cache, baseURL string) *CacheBlobStore {
	return &CacheBlobStore{
		cache:   cache,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Store implements interfaces.BlobStore
func (s *CacheBlobStore) Store(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("refusing to store empty blob")
	}

	ref := uuid.NewString()
	if err := s.cache.Set(ctx, keyPrefix+ref, data, 0); err != nil {
		return "", fmt.Errorf("store audio blob: %w", err)
	}
	return ref, nil
}

// Load implements interfaces.BlobStore
func (s *CacheBlobStore) Load(ctx context.Context, ref string) ([]byte, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, &apperrors.NotFoundError{Resource: "audio", ID: ref}
	}

	data, err := s.cache.Get(ctx, keyPrefix+ref)
	if errors.Is(err, interfaces.ErrCacheMiss) {
		return nil, &apperrors.NotFoundError{Resource: "audio", ID: ref}
	}
	if err != nil {
		return nil, fmt.Errorf("load audio blob: %w", err)
	}
	return data, nil
}

// ResolveURL implements interfaces.BlobStore
func (s *CacheBlobStore) ResolveURL(ref string) string {
	return s.baseURL + "/audio/" + ref
}
