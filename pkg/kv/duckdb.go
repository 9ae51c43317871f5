package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// InitDuckDB opens the DuckDB file at path, creating parent directories and
// the kv table when missing.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key VARCHAR PRIMARY KEY, value VARCHAR NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return db, nil
}

// DuckDB stores keys in a single DuckDB table.
type DuckDB struct {
	db *sql.DB
}

func NewDuckDB(path string) (*DuckDB, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &DuckDB{db: db}, nil
}

func (d *DuckDB) Get(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (d *DuckDB) Set(key, value string) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (d *DuckDB) Delete(key string) error {
	_, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (d *DuckDB) Usage() (int64, error) {
	var n int64
	err := d.db.QueryRow(`SELECT CAST(COALESCE(SUM(strlen(key) + strlen(value)), 0) AS BIGINT) FROM kv`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (d *DuckDB) Close() error {
	return d.db.Close()
}
