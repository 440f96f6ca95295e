package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unirag/internal/domain"
)

func words(prefix string, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(out, " ")
}

// reconstruct joins chunk windows back together, dropping the overlap
// each window repeats from its predecessor.
func reconstruct(chunks []domain.Chunk, overlap int) []string {
	var out []string
	for i, ch := range chunks {
		w := Words(ch.Text)
		if i > 0 {
			w = w[overlap:]
		}
		out = append(out, w...)
	}
	return out
}

func TestNewWindowChunker_RejectsDegenerateGeometry(t *testing.T) {
	cases := []struct{ size, overlap int }{
		{50, 50}, {50, 60}, {0, 0}, {-1, 0}, {10, -1},
	}
	for _, c := range cases {
		_, err := NewWindowChunker(c.size, c.overlap)
		require.Error(t, err, "size=%d overlap=%d", c.size, c.overlap)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	}
}

func TestWindowChunker_ReconstructsSection(t *testing.T) {
	for _, n := range []int{1, 7, 49, 50, 51, 90, 123} {
		for _, geom := range [][2]int{{50, 10}, {10, 0}, {5, 4}, {1, 0}, {3, 1}} {
			c, err := NewWindowChunker(geom[0], geom[1])
			require.NoError(t, err)
			body := words("w", n)
			chunks := c.Chunk([]domain.Section{{Title: "T", Body: body, PageNumber: 1}}, "f.pdf", "/f.pdf")
			require.NotEmpty(t, chunks)
			assert.Equal(t, Words(body), reconstruct(chunks, geom[1]), "n=%d geom=%v", n, geom)
			for _, ch := range chunks {
				assert.LessOrEqual(t, len(Words(ch.Text)), geom[0])
			}
		}
	}
}

func TestWindowChunker_NoTrailingRedundantWindow(t *testing.T) {
	c, err := NewWindowChunker(50, 10)
	require.NoError(t, err)

	chunks := c.Chunk([]domain.Section{{Title: "Objectives", Body: words("o", 90), PageNumber: 1}}, "a.pdf", "/a.pdf")

	require.Len(t, chunks, 2)
	assert.Equal(t, words("o", 50), chunks[0].Text)
	assert.Equal(t, Words(words("o", 90))[40:], Words(chunks[1].Text))
}

func TestWindowChunker_IndexSharedAcrossSections(t *testing.T) {
	c, err := NewWindowChunker(5, 1)
	require.NoError(t, err)
	sections := []domain.Section{
		{Title: "A", Body: words("a", 12), PageNumber: 1},
		{Title: "B", Body: words("b", 3), PageNumber: 2},
		{Title: "C", Body: words("c", 9), PageNumber: 2},
	}

	chunks := c.Chunk(sections, "doc.pdf", "/data/doc.pdf")

	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i+1, ch.Metadata.ChunkIndex)
		assert.Equal(t, "doc.pdf", ch.Metadata.Filename)
		assert.Equal(t, "/data/doc.pdf", ch.Metadata.SourcePath)
	}
	assert.Equal(t, "B", chunks[3].Metadata.Title)
	assert.Equal(t, 2, chunks[3].Metadata.PageNumber)
}

func TestWindowChunker_EmptySection(t *testing.T) {
	c, err := NewWindowChunker(5, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Chunk([]domain.Section{{Title: "A", Body: "   "}}, "f", "p"))
}

func TestScenario_TwoHeadedSections(t *testing.T) {
	seg, err := NewSegmenter(SegmenterConfig{Headings: []string{"Objectives", "Duration"}, MinWords: DefaultMinWords})
	require.NoError(t, err)
	c, err := NewWindowChunker(50, 10)
	require.NoError(t, err)

	page := "Objectives:\n" + words("obj", 90) + "\nDuration:  " + words("dur", 40)
	sections := seg.Segment(page, 1)
	require.Len(t, sections, 2)

	chunks := c.Chunk(sections, "handbook.pdf", "/pdfs/handbook.pdf")

	require.Len(t, chunks, 3)
	assert.Equal(t, "Objectives", chunks[0].Metadata.Title)
	assert.Equal(t, "Objectives", chunks[1].Metadata.Title)
	assert.Equal(t, "Duration", chunks[2].Metadata.Title)
	assert.Equal(t, "obj0", Words(chunks[0].Text)[0])
	assert.Equal(t, "obj49", Words(chunks[0].Text)[49])
	assert.Equal(t, "obj40", Words(chunks[1].Text)[0])
	assert.Equal(t, "obj89", Words(chunks[1].Text)[49])
	for i, ch := range chunks {
		assert.Equal(t, i+1, ch.Metadata.ChunkIndex)
	}
}
