package blobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

var (
	ErrQuotaExceeded = errors.New("blobs: quota exceeded")
	ErrClosed        = errors.New("blobs: adapter closed")
)

// State is the lifecycle of the lazily opened database connection.
type State int

const (
	StateUnopened State = iota
	StateOpening
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// migrations[i] upgrades the schema from user_version i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS images (
    id TEXT PRIMARY KEY,
    blob BLOB NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    size INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);`,
}

// Blob is a stored payload.
type Blob struct {
	ID          string
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// Adapter stores binary payloads in a local SQLite database keyed by
// caller-chosen identifiers. The database is opened on first use.
type Adapter struct {
	path   string
	quota  int64
	urls   *ObjectURLs
	logger *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	state State
	db    *sql.DB
	opens int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithQuota caps the total payload bytes. Zero means unlimited.
func WithQuota(bytes int64) Option {
	return func(a *Adapter) { a.quota = bytes }
}

// WithObjectURLs sets the registry DisplayURL hands URLs out of.
func WithObjectURLs(urls *ObjectURLs) Option {
	return func(a *Adapter) { a.urls = urls }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// NewAdapter returns an unopened adapter for the database file at path.
func NewAdapter(path string, opts ...Option) *Adapter {
	a := &Adapter{path: path}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.urls == nil {
		a.urls = NewObjectURLs("")
	}
	return a
}

// State reports where the connection is in its lifecycle.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// URLs returns the registry used by DisplayURL.
func (a *Adapter) URLs() *ObjectURLs {
	return a.urls
}

func (a *Adapter) conn(ctx context.Context) (*sql.DB, error) {
	a.mu.Lock()
	switch a.state {
	case StateOpen:
		db := a.db
		a.mu.Unlock()
		return db, nil
	case StateClosed:
		a.mu.Unlock()
		return nil, ErrClosed
	}
	a.state = StateOpening
	a.mu.Unlock()

	v, err, _ := a.group.Do("open", func() (any, error) {
		a.mu.Lock()
		if a.state == StateOpen {
			db := a.db
			a.mu.Unlock()
			return db, nil
		}
		a.mu.Unlock()

		db, err := openDatabase(ctx, a.path)

		a.mu.Lock()
		defer a.mu.Unlock()
		if err != nil {
			if a.state == StateOpening {
				a.state = StateUnopened
			}
			return nil, err
		}
		if a.state == StateClosed {
			db.Close()
			return nil, ErrClosed
		}
		a.db = db
		a.state = StateOpen
		a.opens++
		a.logger.Debug("blob database open", "path", a.path)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create blob directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure blob database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	for ; version < len(migrations); version++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[version]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to migrate blob schema to v%d: %w", version+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, version+1)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Put stores data under id, replacing any previous payload.
func (a *Adapter) Put(ctx context.Context, id string, data []byte, contentType string) (string, error) {
	db, err := a.conn(ctx)
	if err != nil {
		return "", err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if a.quota > 0 {
		var used int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM images WHERE id != ?`, id).Scan(&used); err != nil {
			return "", fmt.Errorf("failed to measure blob usage: %w", err)
		}
		if used+int64(len(data)) > a.quota {
			return "", fmt.Errorf("failed to store %s (%d of %d bytes): %w", id, used+int64(len(data)), a.quota, ErrQuotaExceeded)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO images (id, blob, content_type, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, data, contentType, len(data), time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", id, err)
	}
	return id, nil
}

// Get returns the payload stored under id, or nil when there is none.
func (a *Adapter) Get(ctx context.Context, id string) (*Blob, error) {
	db, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	var (
		b       Blob
		created int64
	)
	err = db.QueryRowContext(ctx, `SELECT id, blob, content_type, created_at FROM images WHERE id = ?`, id).
		Scan(&b.ID, &b.Data, &b.ContentType, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}
	b.CreatedAt = time.UnixMilli(created)
	return &b, nil
}

// Delete removes id. Missing ids are ignored.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	db, err := a.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// DeletePrefix removes every id starting with prefix and reports how many
// were removed.
func (a *Adapter) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, errors.New("blobs: empty prefix")
	}
	db, err := a.conn(ctx)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM images WHERE substr(id, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s*: %w", prefix, err)
	}
	return res.RowsAffected()
}

// Usage reports the payload bytes currently stored.
func (a *Adapter) Usage(ctx context.Context) (int64, error) {
	db, err := a.conn(ctx)
	if err != nil {
		return 0, err
	}
	var used int64
	err = db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM images`).Scan(&used)
	return used, err
}

// DisplayURL resolves id to a transient URL usable as an image source, or ""
// when nothing is stored. The caller revokes the URL through URLs().
func (a *Adapter) DisplayURL(ctx context.Context, id string) (string, error) {
	b, err := a.Get(ctx, id)
	if err != nil || b == nil {
		return "", err
	}
	return a.urls.Create(b.Data, b.ContentType), nil
}

// Close releases the database. Further calls fail with ErrClosed.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	db := a.db
	a.db = nil
	a.state = StateClosed
	if db == nil {
		return nil
	}
	return db.Close()
}
