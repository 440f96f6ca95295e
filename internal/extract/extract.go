// Package extract turns source documents into per-page text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"unirag/internal/domain"
)

// Manager dispatches to the first extractor that supports a path.
type Manager struct {
	extractors []domain.PageExtractor
}

// NewManager returns a manager for PDF and plain-text documents.
func NewManager() *Manager {
	return &Manager{extractors: []domain.PageExtractor{NewPDF(), &Text{}}}
}

func (m *Manager) Supports(path string) bool {
	return m.find(path) != nil
}

// Extract returns the pages of path that yielded text.
// Failures wrap domain.ErrExtraction.
func (m *Manager) Extract(path string) ([]domain.Page, error) {
	e := m.find(path)
	if e == nil {
		return nil, fmt.Errorf("%w: unsupported file format %s", domain.ErrExtraction, filepath.Ext(path))
	}
	return e.Extract(path)
}

func (m *Manager) CountPages(path string) (int, error) {
	e := m.find(path)
	if e == nil {
		return 0, fmt.Errorf("%w: unsupported file format %s", domain.ErrExtraction, filepath.Ext(path))
	}
	return e.CountPages(path)
}

func (m *Manager) find(path string) domain.PageExtractor {
	for _, e := range m.extractors {
		if e.Supports(path) {
			return e
		}
	}
	return nil
}

// Text reads plain-text files. Form feeds separate pages.
type Text struct{}

func (t *Text) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".md"
}

func (t *Text) Extract(path string) ([]domain.Page, error) {
	raw, err := t.read(path)
	if err != nil {
		return nil, err
	}
	var pages []domain.Page
	for i, p := range raw {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pages = append(pages, domain.Page{Text: p, Number: i + 1})
	}
	return pages, nil
}

func (t *Text) CountPages(path string) (int, error) {
	raw, err := t.read(path)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

func (t *Text) read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, path, err)
	}
	return strings.Split(string(data), "\f"), nil
}
