package memory

import (
	"context"
	"errors"
	"sync"

	"unirag/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine distance.
type Storage struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

func NewStorage() *Storage { return &Storage{collections: make(map[string]*Collection)} }

func (s *Storage) GetOrCreateCollection(_ context.Context, name string) (domain.Collection, error) {
	if name == "" {
		return nil, errors.New("collection name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &Collection{name: name, byID: make(map[string]int)}
		s.collections[name] = c
	}
	return c, nil
}

func (s *Storage) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Storage) Close() error { return nil }

// Collection holds records in insertion order. Adding an existing ID
// replaces the record in place.
type Collection struct {
	name string

	mu        sync.RWMutex
	dimension int
	records   []domain.Record
	byID      map[string]int
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Add(_ context.Context, rec domain.Record) error {
	if rec.ID == "" {
		return errors.New("record id is required")
	}
	if len(rec.Vector) == 0 {
		return errors.New("record vector is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimension == 0 {
		c.dimension = len(rec.Vector)
	}
	if len(rec.Vector) != c.dimension {
		return errors.New("vector dimension mismatch")
	}
	rec.Vector = append([]float32(nil), rec.Vector...)
	if i, ok := c.byID[rec.ID]; ok {
		c.records[i] = rec
		return nil
	}
	c.byID[rec.ID] = len(c.records)
	c.records = append(c.records, rec)
	return nil
}

func (c *Collection) Query(_ context.Context, vector []float32, k int) ([]domain.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dimension != 0 && len(vector) != c.dimension {
		return nil, errors.New("query vector dimension mismatch")
	}
	matches := make([]domain.Match, 0, len(c.records))
	for _, r := range c.records {
		matches = append(matches, domain.Match{
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: domain.CosineDistance(r.Vector, vector),
		})
	}
	return domain.TopK(matches, k), nil
}

func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}
