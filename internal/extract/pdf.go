package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"unirag/internal/domain"
)

// LicenseEnv names the variable holding a UniDoc metered license key.
const LicenseEnv = "UNIDOC_LICENSE_API_KEY"

var licenseOnce sync.Once

// PDF extracts page text with unipdf.
type PDF struct {
	pageText func(*model.PdfPage) (string, error)
}

// NewPDF returns a PDF extractor, registering the metered license key from
// the environment the first time it is called.
func NewPDF() *PDF {
	licenseOnce.Do(func() {
		if key := os.Getenv(LicenseEnv); key != "" {
			_ = license.SetMeteredKey(key)
		}
	})
	return &PDF{pageText: extractPageText}
}

func (p *PDF) Supports(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// Extract returns one Page per page with non-blank text. Pages that fail to
// extract are skipped as long as another page yields text. A document that
// cannot be opened, or whose every page fails, is an ErrExtraction.
func (p *PDF) Extract(path string) ([]domain.Page, error) {
	reader, n, err := open(path)
	if err != nil {
		return nil, err
	}
	var (
		pages    []domain.Page
		firstErr error
	)
	for i := 1; i <= n; i++ {
		text, err := p.page(reader, i)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", i, err)
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{Text: text, Number: i})
	}
	if len(pages) == 0 && firstErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, path, firstErr)
	}
	return pages, nil
}

func (p *PDF) page(reader *model.PdfReader, i int) (string, error) {
	page, err := reader.GetPage(i)
	if err != nil {
		return "", err
	}
	return p.pageText(page)
}

func extractPageText(page *model.PdfPage) (string, error) {
	ex, err := extractor.New(page)
	if err != nil {
		return "", err
	}
	return ex.ExtractText()
}

func (p *PDF) CountPages(path string) (int, error) {
	_, n, err := open(path)
	return n, err
}

func open(path string) (*model.PdfReader, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, path, err)
	}
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: parse %s: %v", domain.ErrExtraction, path, err)
	}
	n, err := reader.GetNumPages()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: page count %s: %v", domain.ErrExtraction, path, err)
	}
	return reader, n, nil
}
