// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides a SQLite-backed response cache keyed by
// model and prompt, so repeated identical chat requests do not spend
// API credits twice. Entries expire after a configurable TTL.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Schema is the response cache database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS responses (
    key TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    response TEXT NOT NULL,
    created_at INTEGER NOT NULL  -- Unix timestamp
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_responses_created_at ON responses(created_at);
`

// ErrClosed is returned when the cache is used after Close.
var ErrClosed = errors.New("response cache closed")

// Cache is a TTL-bounded response cache.
type Cache struct {
	db      *sql.DB
	ttl     time.Duration
	maxSize int
}

// Open creates or opens the cache database at path. maxSize caps the
// number of stored entries (0 = unlimited).
func Open(path string, ttl time.Duration, maxSize int) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}

	return &Cache{db: db, ttl: ttl, maxSize: maxSize}, nil
}

// key derives the cache key for a model/prompt pair.
func key(model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for a model/prompt pair, if present
// and not expired.
func (c *Cache) Get(model, prompt string) (string, bool, error) {
	if c.db == nil {
		return "", false, ErrClosed
	}

	var response string
	var createdAt int64
	err := c.db.QueryRow(
		`SELECT response, created_at FROM responses WHERE key = ?`,
		key(model, prompt),
	).Scan(&response, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if c.ttl > 0 && time.Since(time.Unix(createdAt, 0)) > c.ttl {
		// Expired entries are deleted lazily on read.
		_, _ = c.db.Exec(`DELETE FROM responses WHERE key = ?`, key(model, prompt))
		return "", false, nil
	}

	return response, true, nil
}

// Put stores a response, replacing any previous entry for the same
// model/prompt pair, and prunes oldest entries over the size cap.
func (c *Cache) Put(model, prompt, response string) error {
	if c.db == nil {
		return ErrClosed
	}

	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO responses (key, model, response, created_at) VALUES (?, ?, ?, ?)`,
		key(model, prompt), model, response, time.Now().Unix(),
	)
	if err != nil {
		return err
	}

	if c.maxSize > 0 {
		_, _ = c.db.Exec(
			`DELETE FROM responses WHERE key IN (
				SELECT key FROM responses ORDER BY created_at DESC LIMIT -1 OFFSET ?
			)`, c.maxSize,
		)
	}
	return nil
}

// Purge deletes all expired entries and returns how many were removed.
func (c *Cache) Purge() (int64, error) {
	if c.db == nil {
		return 0, ErrClosed
	}
	if c.ttl <= 0 {
		return 0, nil
	}

	// Timestamps have second granularity, so the cutoff is inclusive.
	res, err := c.db.Exec(
		`DELETE FROM responses WHERE created_at <= ?`,
		time.Now().Add(-c.ttl).Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() (int, error) {
	if c.db == nil {
		return 0, ErrClosed
	}

	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
