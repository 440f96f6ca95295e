package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unirag/internal/domain"
)

func germanSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	seg, err := NewSegmenter(SegmenterConfig{
		Headings: []string{"Modulname", "Modul", "Ziele", "Dauer", "Empfohlene Literatur", "Prüfungen"},
		MinWords: DefaultMinWords,
	})
	require.NoError(t, err)
	return seg
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                         "",
		"   ":                      "",
		"a  b":                     "a b",
		"\tline one\nline\r\ntwo ": "line one line two",
		"a  b\f c":                 "a b c",
	}
	for in, want := range cases {
		got := Normalize(in)
		assert.Equal(t, want, got, "input %q", in)
		assert.Equal(t, got, Normalize(got), "not idempotent for %q", in)
	}
}

func TestNewSegmenter_RequiresKeywords(t *testing.T) {
	_, err := NewSegmenter(SegmenterConfig{Headings: []string{" ", ""}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestSegment_NoHeadingsYieldsWholeDocument(t *testing.T) {
	seg := germanSegmenter(t)
	text := Normalize(words("x", 20))

	sections := seg.Segment(text, 4)

	require.Len(t, sections, 1)
	assert.Equal(t, WholeDocumentTitle, sections[0].Title)
	assert.Equal(t, text, sections[0].Body)
	assert.Equal(t, 4, sections[0].PageNumber)
}

func TestSegment_ShortPageWithoutHeadingsIsDropped(t *testing.T) {
	seg := germanSegmenter(t)
	assert.Empty(t, seg.Segment(Normalize(words("x", 10)), 1))
}

func TestSegment_LoneHeadingYieldsNothing(t *testing.T) {
	seg := germanSegmenter(t)
	assert.Empty(t, seg.Segment("Dauer:", 1))
}

func TestSegment_PreambleAndHeadings(t *testing.T) {
	seg := germanSegmenter(t)
	text := words("intro", 12) + "\nZiele: " + words("ziel", 15) + "\n  Dauer: " + words("dauer", 11)

	sections := seg.Segment(text, 2)

	require.Len(t, sections, 3)
	assert.Equal(t, FallbackTitle, sections[0].Title)
	assert.Equal(t, words("intro", 12), sections[0].Body)
	assert.Equal(t, "Ziele", sections[1].Title)
	assert.Equal(t, words("ziel", 15), sections[1].Body)
	assert.Equal(t, "Dauer", sections[2].Title)
	assert.Equal(t, words("dauer", 11), sections[2].Body)
}

func TestSegment_CaseInsensitiveAndLongestKeyword(t *testing.T) {
	seg := germanSegmenter(t)
	text := "MODULNAME Datenbanksysteme: " + words("m", 12) + "\nempfohlene literatur: " + words("lit", 12)

	sections := seg.Segment(text, 1)

	require.Len(t, sections, 2)
	assert.Equal(t, "MODULNAME", sections[0].Title)
	assert.Equal(t, "empfohlene literatur", sections[1].Title)
}

func TestSegment_DropsShortBodiesButKeepsOthers(t *testing.T) {
	seg := germanSegmenter(t)
	text := "Ziele: too short here. Prüfungen: " + words("p", 11)

	sections := seg.Segment(text, 1)

	require.Len(t, sections, 1)
	assert.Equal(t, "Prüfungen", sections[0].Title)
}

func TestSegment_KeywordInsideWordIsNotAHeading(t *testing.T) {
	seg := germanSegmenter(t)
	// "Modul" only counts at a word start
	text := "Das Teilmodul: " + words("t", 12)

	sections := seg.Segment(text, 1)

	require.Len(t, sections, 1)
	assert.Equal(t, WholeDocumentTitle, sections[0].Title)
}

func TestSegment_KeywordMidSentenceIsNotAHeading(t *testing.T) {
	seg := germanSegmenter(t)
	text := "Dauer: Das Studium umfasst vier Semester und vermittelt vertiefte Kenntnisse in allen Bereichen. " +
		"Die Note im Modul ergibt sich wie folgt: aus dem gewichteten Mittel der Teilprüfungen und der Projektarbeit."

	sections := seg.Segment(text, 1)

	require.Len(t, sections, 1)
	assert.Equal(t, "Dauer", sections[0].Title)
	assert.True(t, strings.HasSuffix(sections[0].Body, "der Teilprüfungen und der Projektarbeit."))
	assert.Contains(t, sections[0].Body, "Die Note im Modul ergibt sich wie folgt: aus dem")
}

func TestSegment_HeadingAfterSentenceEnd(t *testing.T) {
	seg := germanSegmenter(t)
	text := "Ziele: " + words("z", 12) + ". Dauer: " + words("d", 12)

	sections := seg.Segment(text, 1)

	require.Len(t, sections, 2)
	assert.Equal(t, "Ziele", sections[0].Title)
	assert.Equal(t, words("z", 12)+".", sections[0].Body)
	assert.Equal(t, "Dauer", sections[1].Title)
}

func TestSegment_HeadingTailStaysOnOneLine(t *testing.T) {
	seg := germanSegmenter(t)
	// the colon on the next line does not belong to a "Ziele" heading
	text := "Ziele des Studiengangs\nsind folgende: " + words("x", 12)

	sections := seg.Segment(text, 1)

	require.Len(t, sections, 1)
	assert.Equal(t, WholeDocumentTitle, sections[0].Title)
}
