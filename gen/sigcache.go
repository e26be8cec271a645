package gen

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SigCache persists class signatures between generator runs, so
// unchanged classes can be skipped and changed ones reported.
type SigCache struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSigCache opens (or creates) the signature database at path,
// creating parent directories as needed.
func OpenSigCache(path string) (*SigCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening signature cache: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS class_signatures (
		name      TEXT PRIMARY KEY,
		signature TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &SigCache{db: db}, nil
}

// Close closes the database connection.
func (c *SigCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Lookup returns the stored signature for a class, with ok reporting
// whether one exists.
func (c *SigCache) Lookup(name string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sig string
	err := c.db.QueryRow("SELECT signature FROM class_signatures WHERE name = ?", name).Scan(&sig)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying signature: %w", err)
	}
	return sig, true, nil
}

// Store records (or replaces) a class signature.
func (c *SigCache) Store(name, signature string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO class_signatures (name, signature) VALUES (?, ?)",
		name, signature,
	)
	if err != nil {
		return fmt.Errorf("storing signature: %w", err)
	}
	return nil
}

// NeedsRegeneration reports whether a class is new or its signature
// differs from the stored one.
func (c *SigCache) NeedsRegeneration(name, signature string) (bool, error) {
	stored, ok, err := c.Lookup(name)
	if err != nil {
		return false, err
	}
	return !ok || stored != signature, nil
}
