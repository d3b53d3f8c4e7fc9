// ABOUTME: SQLite article store for single-node deployments
// ABOUTME: Run writes are read-check-write transactions fenced on the attempt column

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"readaloud-api/core/domain"
	apperrors "readaloud-api/core/errors"
	"readaloud-api/pkg/utils/sqlquery"

	"github.com/mattn/go-sqlite3"
)

const table = "articles"

var columns = []string{
	"id", "url", "title", "content", "audio_ref", "status",
	"error_message", "attempt", "created_at", "updated_at",
}

var (
	getQuery  = sqlquery.New().Select(table, columns...).Where("id", "=", nil).MustBuild()
	listQuery = sqlquery.New().Select(table, columns...).OrderBy("created_at", true).MustBuild()
)

// Store implements interfaces.ArticleStore on SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the database at path
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one connection serializes writers; fencing reads happen inside the
	// same transaction as the write
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT,
			content TEXT,
			audio_ref TEXT,
			status TEXT NOT NULL,
			error_message TEXT,
			attempt INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
	`)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Create implements interfaces.ArticleStore
func (s *Store) Create(ctx context.Context, article *domain.Article) error {
	query, params, err := sqlquery.New().Insert(table, columns, rowValues(article)).Build()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return &apperrors.DuplicateError{Resource: "article", Field: "url", Value: article.URL}
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// Get implements interfaces.ArticleStore
func (s *Store) Get(ctx context.Context, id string) (*domain.Article, error) {
	return getArticle(ctx, s.db, id)
}

// List implements interfaces.ArticleStore
func (s *Store) List(ctx context.Context) ([]*domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Reset implements interfaces.ArticleStore
func (s *Store) Reset(ctx context.Context, id string) (*domain.Article, error) {
	var reset *domain.Article
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getArticle(ctx, tx, id)
		if err != nil {
			return err
		}
		previous := current.Attempt
		current.Reset(s.now())
		if err := writeArticle(ctx, tx, current, previous); err != nil {
			return err
		}
		reset = current
		return nil
	})
	return reset, err
}

// SaveExtraction implements interfaces.ArticleStore
func (s *Store) SaveExtraction(ctx context.Context, id string, attempt int, title, content string) error {
	return s.update(ctx, id, attempt, func(a *domain.Article) error {
		a.Title = domain.StringPtr(title)
		a.Content = domain.StringPtr(content)
		return nil
	})
}

// MarkCompleted implements interfaces.ArticleStore
func (s *Store) MarkCompleted(ctx context.Context, id string, attempt int, audioRef string) error {
	return s.update(ctx, id, attempt, func(a *domain.Article) error {
		a.AudioRef = domain.StringPtr(audioRef)
		a.ErrorMessage = nil
		a.Status = domain.StatusCompleted
		return a.Validate()
	})
}

// MarkError implements interfaces.ArticleStore
func (s *Store) MarkError(ctx context.Context, id string, attempt int, message string) error {
	return s.update(ctx, id, attempt, func(a *domain.Article) error {
		a.AudioRef = nil
		a.ErrorMessage = domain.StringPtr(message)
		a.Status = domain.StatusError
		return nil
	})
}

func (s *Store) update(ctx context.Context, id string, attempt int, mutate func(*domain.Article) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getArticle(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Attempt != attempt || current.Status != domain.StatusProcessing {
			return apperrors.ErrStaleRun
		}
		if err := mutate(current); err != nil {
			return err
		}
		current.UpdatedAt = s.now()
		return writeArticle(ctx, tx, current, attempt)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getArticle(ctx context.Context, q queryer, id string) (*domain.Article, error) {
	a, err := scanArticle(q.QueryRowContext(ctx, getQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "article", ID: id}
	}
	return a, err
}

// writeArticle stores every mutable column, fenced on the attempt the
// caller read
func writeArticle(ctx context.Context, tx *sql.Tx, a *domain.Article, expectedAttempt int) error {
	query, params, err := sqlquery.New().
		Update(table).
		Set("title", nullable(a.Title)).
		Set("content", nullable(a.Content)).
		Set("audio_ref", nullable(a.AudioRef)).
		Set("status", string(a.Status)).
		Set("error_message", nullable(a.ErrorMessage)).
		Set("attempt", a.Attempt).
		Set("updated_at", a.UpdatedAt.UnixNano()).
		Where("id", "=", a.ID).
		Where("attempt", "=", expectedAttempt).
		Build()
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrStaleRun
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row scanner) (*domain.Article, error) {
	var (
		a                                  domain.Article
		title, content, audioRef, errorMsg sql.NullString
		status                             string
		createdAt, updatedAt               int64
	)
	if err := row.Scan(&a.ID, &a.URL, &title, &content, &audioRef, &status,
		&errorMsg, &a.Attempt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.Title = fromNullable(title)
	a.Content = fromNullable(content)
	a.AudioRef = fromNullable(audioRef)
	a.ErrorMessage = fromNullable(errorMsg)
	a.Status = domain.Status(status)
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	a.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &a, nil
}

func rowValues(a *domain.Article) []interface{} {
	return []interface{}{
		a.ID, a.URL, nullable(a.Title), nullable(a.Content), nullable(a.AudioRef),
		string(a.Status), nullable(a.ErrorMessage), a.Attempt,
		a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano(),
	}
}

func nullable(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullable(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return domain.StringPtr(n.String)
}
