package domain

import (
	"context"
	"math"
)

// Page is the extracted text of one physical document page.
type Page struct {
	Text   string
	Number int
}

// Document is a source file together with its extracted pages.
type Document struct {
	Filename string
	Path     string
	Pages    []Page
}

// Section is a titled logical division of a page.
type Section struct {
	Title      string
	Body       string
	PageNumber int
}

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	Title      string `json:"title"`
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
	SourcePath string `json:"source_path"`
}

// TitleOr returns the section title or def when it is empty.
func (m ChunkMetadata) TitleOr(def string) string {
	if m.Title == "" {
		return def
	}
	return m.Title
}

// FilenameOr returns the filename or def when it is empty.
func (m ChunkMetadata) FilenameOr(def string) string {
	if m.Filename == "" {
		return def
	}
	return m.Filename
}

// Chunk is a bounded word window of a section, the unit stored and retrieved.
type Chunk struct {
	Text     string
	Metadata ChunkMetadata
}

// Embedding is a vector together with its degeneracy flag.
// A degenerate embedding has zero magnitude and carries no usable meaning.
type Embedding struct {
	Vector     []float32
	Degenerate bool
}

// NewEmbedding wraps vec and flags it as degenerate when its norm is zero.
func NewEmbedding(vec []float32) Embedding {
	return Embedding{Vector: vec, Degenerate: Norm(vec) == 0}
}

// Norm returns the L2 norm of vec.
func Norm(vec []float32) float64 {
	sum := 0.0
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Record is a single entry written to a vector store collection.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata ChunkMetadata
}

// Match is a record returned by a similarity query. Lower distance ranks first.
type Match struct {
	Text     string
	Metadata ChunkMetadata
	Distance float64
}

// Source identifies a passage used to answer a query.
type Source struct {
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
	Path       string `json:"path"`
}

// QueryResult is the outcome of a single question.
type QueryResult struct {
	Answer       string      `json:"answer"`
	Sources      []Source    `json:"sources"`
	Query        string      `json:"query"`
	Success      bool        `json:"success"`
	ContextCount int         `json:"context_count"`
	Failure      FailureKind `json:"failure,omitempty"`
}

// Status reports the health of the three collaborators.
type Status struct {
	VectorStore bool `json:"vector_store"`
	Embedder    bool `json:"embedder"`
	Generator   bool `json:"generator"`
	RecordCount int  `json:"record_count"`
}

// Healthy reports whether every probe succeeded.
func (s Status) Healthy() bool { return s.VectorStore && s.Embedder && s.Generator }

// Generation is the outcome of a generation call. Text is always set,
// either to the model answer or to a user-facing failure message.
type Generation struct {
	Text    string
	Failure FailureKind
	Err     error
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) (Embedding, error)
}

// Collection is a named set of records supporting nearest-neighbour queries.
// Implementations must be safe for concurrent use.
type Collection interface {
	Name() string
	Add(ctx context.Context, rec Record) error
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	Count(ctx context.Context) (int, error)
}

// Storage owns collections.
type Storage interface {
	GetOrCreateCollection(ctx context.Context, name string) (Collection, error)
	DeleteCollection(ctx context.Context, name string) error
	Close() error
}

// Generator produces answers from prompts.
type Generator interface {
	Generate(ctx context.Context, prompt string) Generation
	Ping(ctx context.Context) error
}

// PageExtractor turns a file into per-page text.
type PageExtractor interface {
	Supports(path string) bool
	Extract(path string) ([]Page, error)
	CountPages(path string) (int, error)
}
