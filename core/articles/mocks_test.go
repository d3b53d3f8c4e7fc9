package articles

import (
	"context"
	"sync"
	"testing"
	"time"

	"readaloud-api/core/domain"
	"readaloud-api/core/interfaces"
	"readaloud-api/infrastructure/blob"
	"readaloud-api/infrastructure/cache/memory"
	memstore "readaloud-api/infrastructure/store/memory"
)

const testBaseURL = "http://localhost:8080"

type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) record(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) { m.record(msg) }
func (m *mockLogger) Info(msg string, fields map[string]interface{})  { m.record(msg) }
func (m *mockLogger) Warn(msg string, fields map[string]interface{})  { m.record(msg) }
func (m *mockLogger) Error(msg string, fields map[string]interface{}) { m.record(msg) }

func (m *mockLogger) has(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, got := range m.messages {
		if got == msg {
			return true
		}
	}
	return false
}

type mockFetcher struct {
	fetchFunc func(ctx context.Context, url string) (*interfaces.FetchResult, error)
	calls     int
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*interfaces.FetchResult, error) {
	m.calls++
	return m.fetchFunc(ctx, url)
}

func okPage(body string) func(context.Context, string) (*interfaces.FetchResult, error) {
	return func(context.Context, string) (*interfaces.FetchResult, error) {
		return &interfaces.FetchResult{OK: true, StatusCode: 200, StatusText: "200 OK", Body: body}, nil
	}
}

type mockExtractor struct {
	extractFunc func(ctx context.Context, markup, sourceURL string) (domain.Extraction, error)
}

func (m *mockExtractor) Extract(ctx context.Context, markup, sourceURL string) (domain.Extraction, error) {
	return m.extractFunc(ctx, markup, sourceURL)
}

type mockSynthesizer struct {
	synthesizeFunc func(ctx context.Context, text string) ([]byte, error)
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return m.synthesizeFunc(ctx, text)
}

type scheduleCall struct {
	articleID string
	attempt   int
}

type mockScheduler struct {
	scheduleFunc func(articleID string, attempt int) error
	calls        []scheduleCall
}

func (m *mockScheduler) Schedule(articleID string, attempt int) error {
	m.calls = append(m.calls, scheduleCall{articleID, attempt})
	if m.scheduleFunc != nil {
		return m.scheduleFunc(articleID, attempt)
	}
	return nil
}

type mockMetrics struct {
	mu       sync.Mutex
	stages   []string
	outcomes []string
}

func (m *mockMetrics) ObserveStage(stage string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.stages = append(m.stages, stage+":"+result)
}

func (m *mockMetrics) RunFinished(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockMetrics) ExtractionTier(string) {}

type failingBlobs struct {
	interfaces.BlobStore
	err error
}

func (f failingBlobs) Store(context.Context, []byte) (string, error) {
	return "", f.err
}

type fixture struct {
	store   *memstore.Store
	blobs   interfaces.BlobStore
	fetcher *mockFetcher
	logger  *mockLogger
	metrics *mockMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		store:   memstore.NewStore(),
		blobs:   blob.NewCacheBlobStore(memory.NewMemoryCache(), testBaseURL),
		fetcher: &mockFetcher{fetchFunc: okPage("<html></html>")},
		logger:  &mockLogger{},
		metrics: &mockMetrics{},
	}
}

func (f *fixture) deps() interfaces.Dependencies {
	return interfaces.Dependencies{
		Articles: f.store,
		Blobs:    f.blobs,
		Fetcher:  f.fetcher,
		Logger:   f.logger,
		Metrics:  f.metrics,
	}
}

func (f *fixture) createArticle(t *testing.T, url string) *domain.Article {
	t.Helper()
	a, err := domain.NewArticle(url)
	if err != nil {
		t.Fatalf("NewArticle: %v", err)
	}
	if err := f.store.Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return a
}
