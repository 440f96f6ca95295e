// Package sqlite implements a persistent vector store on an embedded SQLite
// database. Similarity search is a brute-force cosine scan of the collection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"unirag/internal/domain"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Storage owns the database handle shared by all collections.
type Storage struct {
	db *sql.DB
	// writes are serialized; modernc.org/sqlite allows one writer at a time
	mu sync.Mutex
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) GetOrCreateCollection(ctx context.Context, name string) (domain.Collection, error) {
	if name == "" {
		return nil, errors.New("sqlite: collection name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO collections(name) VALUES(?)`, name); err != nil {
		return nil, fmt.Errorf("sqlite: create collection %s: %w", name, err)
	}
	return &Collection{store: s, name: name}, nil
}

func (s *Storage) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Storage) Close() error { return s.db.Close() }

// Collection is a named partition of the records table.
type Collection struct {
	store *Storage
	name  string
}

func (c *Collection) Name() string { return c.name }

// Add writes rec, replacing any record with the same ID.
func (c *Collection) Add(ctx context.Context, rec domain.Record) error {
	if rec.ID == "" {
		return errors.New("sqlite: record id is required")
	}
	if len(rec.Vector) == 0 {
		return errors.New("sqlite: record vector is empty")
	}
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var dim int
	err = tx.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, c.name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: collection %s was deleted", c.name)
	}
	if err != nil {
		return err
	}
	switch {
	case dim == 0:
		if _, err := tx.ExecContext(ctx, `UPDATE collections SET dimension = ? WHERE name = ?`, len(rec.Vector), c.name); err != nil {
			return err
		}
	case dim != len(rec.Vector):
		return fmt.Errorf("sqlite: vector dimension %d does not match collection dimension %d", len(rec.Vector), dim)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO records(collection, id, content, meta, embedding) VALUES(?, ?, ?, ?, ?)`,
		c.name, rec.ID, rec.Text, string(meta), encodeVector(rec.Vector)); err != nil {
		return err
	}
	return tx.Commit()
}

// Query scans the collection and returns the k records closest to vector.
func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT content, meta, embedding FROM records WHERE collection = ? ORDER BY rowid`, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			text, meta string
			blob       []byte
		)
		if err := rows.Scan(&text, &meta, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		if len(vec) != len(vector) {
			return nil, fmt.Errorf("sqlite: query vector dimension %d does not match stored %d", len(vector), len(vec))
		}
		m := domain.Match{Text: text, Distance: domain.CosineDistance(vec, vector)}
		if err := json.Unmarshal([]byte(meta), &m.Metadata); err != nil {
			return nil, fmt.Errorf("sqlite: decode metadata: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.TopK(matches, k), nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, c.name).Scan(&n)
	return n, err
}

var (
	_ domain.Storage    = (*Storage)(nil)
	_ domain.Collection = (*Collection)(nil)
)
