package handlers

import (
	"context"

	"readaloud-api/core/domain"
)

// mockArticleService is a func-field mock of interfaces.ArticleService
type mockArticleService struct {
	submitFunc func(ctx context.Context, url string) (string, error)
	retryFunc  func(ctx context.Context, id string) (string, error)
	listFunc   func(ctx context.Context) ([]domain.ArticleView, error)
	getFunc    func(ctx context.Context, id string) (domain.ArticleView, error)
	audioFunc  func(ctx context.Context, ref string) ([]byte, error)
}

func (m *mockArticleService) Submit(ctx context.Context, url string) (string, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, url)
	}
	return "", nil
}

func (m *mockArticleService) Retry(ctx context.Context, id string) (string, error) {
	if m.retryFunc != nil {
		return m.retryFunc(ctx, id)
	}
	return id, nil
}

func (m *mockArticleService) List(ctx context.Context) ([]domain.ArticleView, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockArticleService) Get(ctx context.Context, id string) (domain.ArticleView, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domain.ArticleView{}, nil
}

func (m *mockArticleService) Audio(ctx context.Context, ref string) ([]byte, error) {
	if m.audioFunc != nil {
		return m.audioFunc(ctx, ref)
	}
	return nil, nil
}
