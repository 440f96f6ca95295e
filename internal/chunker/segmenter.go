package chunker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"unirag/internal/domain"
)

const (
	// WholeDocumentTitle names the single section of a page without headings.
	WholeDocumentTitle = "Whole document"
	// FallbackTitle names text that precedes the first heading of a page.
	FallbackTitle = "Section"
	// DefaultMinWords is the word count a section body must exceed to be kept.
	DefaultMinWords = 10

	maxHeadingTail = 80
)

// SegmenterConfig configures heading detection.
type SegmenterConfig struct {
	Headings []string
	MinWords int
}

// Segmenter splits normalized page text into titled sections.
type Segmenter struct {
	pattern  *regexp.Regexp
	minWords int
}

// NewSegmenter compiles the heading keywords into a single matcher.
//
// A heading is a keyword at the start of a line or of a sentence,
// followed by a short run on the same line without sentence punctuation and
// a colon, e.g. "Dauer:" or "Modulname Datenbanksysteme:". A keyword in the
// middle of a sentence never starts a section.
func NewSegmenter(cfg SegmenterConfig) (*Segmenter, error) {
	keywords := make([]string, 0, len(cfg.Headings))
	for _, h := range cfg.Headings {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		keywords = append(keywords, regexp.QuoteMeta(h))
	}
	if len(keywords) == 0 {
		return nil, domain.NewConfigError("headings", "mindestens ein Überschriften-Schlüsselwort ist erforderlich")
	}
	// longer keywords first so "Modulname" wins over "Modul"
	sort.SliceStable(keywords, func(i, j int) bool { return len(keywords[i]) > len(keywords[j]) })
	expr := fmt.Sprintf(`(?im)(?:^[ \t]*|[.!?:;][ \t\r\n]+)(%s)[^:.!?\r\n]{0,%d}:`, strings.Join(keywords, "|"), maxHeadingTail)
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, domain.NewConfigError("headings", "ungültiges Muster: %v", err)
	}
	minWords := cfg.MinWords
	if minWords < 0 {
		minWords = DefaultMinWords
	}
	return &Segmenter{pattern: pattern, minWords: minWords}, nil
}

type headingSpan struct {
	title      string
	start, end int
}

// Segment splits raw page text into sections and normalizes each body.
// Line breaks must still be present so headings can be anchored to line
// starts. Sections whose body has no more than the minimum number of words
// are dropped.
func (s *Segmenter) Segment(text string, pageNumber int) []domain.Section {
	spans := s.locate(text)
	if len(spans) == 0 {
		return s.keep(nil, domain.Section{Title: WholeDocumentTitle, Body: Normalize(text), PageNumber: pageNumber})
	}
	var sections []domain.Section
	sections = s.keep(sections, domain.Section{Title: FallbackTitle, Body: Normalize(text[:spans[0].start]), PageNumber: pageNumber})
	for i, span := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1].start
		}
		title := span.title
		if title == "" {
			title = FallbackTitle
		}
		sections = s.keep(sections, domain.Section{Title: title, Body: Normalize(text[span.end:end]), PageNumber: pageNumber})
	}
	return sections
}

func (s *Segmenter) locate(text string) []headingSpan {
	matches := s.pattern.FindAllStringSubmatchIndex(text, -1)
	spans := make([]headingSpan, 0, len(matches))
	for _, m := range matches {
		// m[0] may include the preceding punctuation; the keyword group starts at m[2]
		spans = append(spans, headingSpan{title: text[m[2]:m[3]], start: m[2], end: m[1]})
	}
	return spans
}

func (s *Segmenter) keep(out []domain.Section, sec domain.Section) []domain.Section {
	if len(Words(sec.Body)) <= s.minWords {
		return out
	}
	return append(out, sec)
}
