// ABOUTME: SQLite-based cache implementation for persistent caching
// ABOUTME: Provides a file-based cache that survives application restarts

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"readaloud-api/core/interfaces"
	"readaloud-api/pkg/utils/sqlquery"

	_ "github.com/mattn/go-sqlite3"
)

const (
	table = "cache"

	// neverExpires is stored for a zero TTL
	neverExpires = int64(math.MaxInt64)

	cleanupInterval = 5 * time.Minute
)

var (
	getQuery    = sqlquery.New().Select(table, "value").Where("key", "=", nil).Where("expiry", ">", nil).MustBuild()
	setQuery    = sqlquery.New().Upsert(table, "key", []string{"key", "value", "expiry"}, []interface{}{nil, nil, nil}).MustBuild()
	deleteQuery = sqlquery.New().Delete(table).Where("key", "=", nil).MustBuild()
	purgeQuery  = sqlquery.New().Delete(table).Where("expiry", "<=", nil).MustBuild()
)

// Client implements the Cache interface using SQLite
type Client struct {
	db       *sql.DB
	filePath string
	logger   Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSQLiteCache creates a new SQLite cache client
func NewSQLiteCache(filePath string) (*Client, error) {
	return NewSQLiteCacheWithLogger(filePath, nil)
}

// NewSQLiteCacheWithLogger creates a client that warns about suspicious keys
func NewSQLiteCacheWithLogger(filePath string, logger Logger) (*Client, error) {
	if filePath == "" {
		filePath = "cache.db"
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if filePath == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	client := &Client{
		db:       db,
		filePath: filePath,
		logger:   logger,
		stop:     make(chan struct{}),
	}

	if err := client.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	go client.cleanupRoutine()

	return client, nil
}

// initSchema creates the cache table if it doesn't exist
func (c *Client) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expiry INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_expiry ON cache(expiry);
	`)
	return err
}

// Get retrieves a value from the cache
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key, c.logger); err != nil {
		return nil, err
	}

	var value []byte
	err := c.db.QueryRowContext(ctx, getQuery, key, time.Now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}

	return value, nil
}

// Set stores a value in the cache with TTL. A zero TTL never expires.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key, c.logger); err != nil {
		return err
	}
	if err := ValidateValue(value); err != nil {
		return err
	}

	expiry := neverExpires
	if ttl > 0 {
		expiry = time.Now().Add(ttl).Unix()
	}

	if _, err := c.db.ExecContext(ctx, setQuery, key, value, expiry); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	return nil
}

// Delete removes a value from the cache
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key, c.logger); err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}

// cleanupRoutine periodically removes expired entries until Close
func (c *Client) cleanupRoutine() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stop:
			return
		}
	}
}

// purgeExpired removes expired entries and returns how many were removed
func (c *Client) purgeExpired() int64 {
	res, err := c.db.Exec(purgeQuery, time.Now().Unix())
	if err != nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}

// Close stops the cleanup routine and closes the database connection
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return c.db.Close()
}

// Stats returns cache statistics
func (c *Client) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM cache").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_entries"] = count

	var expired int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM cache WHERE expiry <= ?", time.Now().Unix()).Scan(&expired); err != nil {
		return nil, err
	}
	stats["expired_entries"] = expired

	var pageCount, pageSize int
	if err := c.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := c.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err == nil {
			stats["db_size_bytes"] = pageCount * pageSize
		}
	}

	stats["file_path"] = c.filePath

	return stats, nil
}
