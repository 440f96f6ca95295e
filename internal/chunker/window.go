package chunker

import (
	"strings"

	"unirag/internal/domain"
)

// WindowChunker splits section bodies into overlapping word windows.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker validates the window geometry. The stride size-overlap
// must be at least one word.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size < 1 {
		return nil, domain.NewConfigError("chunk_size", "muss positiv sein, ist %d", size)
	}
	if overlap < 0 {
		return nil, domain.NewConfigError("chunk_overlap", "darf nicht negativ sein, ist %d", overlap)
	}
	if overlap >= size {
		return nil, domain.NewConfigError("chunk_overlap", "muss kleiner als chunk_size sein (%d >= %d)", overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Size returns the window length in words.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the number of words shared by consecutive windows.
func (c *WindowChunker) Overlap() int { return c.overlap }

// Chunk emits one chunk per window position across all sections. Chunk
// indexes start at 1 and continue across sections, so one call should cover
// one document.
func (c *WindowChunker) Chunk(sections []domain.Section, filename, path string) []domain.Chunk {
	var chunks []domain.Chunk
	idx := 0
	stride := c.size - c.overlap
	for _, sec := range sections {
		words := Words(sec.Body)
		for start := 0; start < len(words); start += stride {
			end := start + c.size
			if end > len(words) {
				end = len(words)
			}
			idx++
			chunks = append(chunks, domain.Chunk{
				Text: strings.Join(words[start:end], " "),
				Metadata: domain.ChunkMetadata{
					Title:      sec.Title,
					Filename:   filename,
					PageNumber: sec.PageNumber,
					ChunkIndex: idx,
					SourcePath: path,
				},
			})
			if end == len(words) {
				break
			}
		}
	}
	return chunks
}
