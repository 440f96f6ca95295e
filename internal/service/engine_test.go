package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"unirag/internal/domain"
	"unirag/internal/embedding/hashing"
	"unirag/internal/generation/ollama"
	"unirag/internal/vectorstore/memory"
)

type fakeGenerator struct {
	prompts []string
	answer  domain.Generation
	pingErr error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) domain.Generation {
	g.prompts = append(g.prompts, prompt)
	return g.answer
}

func (g *fakeGenerator) Ping(context.Context) error { return g.pingErr }

func seed(t *testing.T, emb domain.Embedder, chunks ...domain.Chunk) domain.Collection {
	t.Helper()
	ctx := context.Background()
	coll, err := memory.NewStorage().GetOrCreateCollection(ctx, "university_regulations")
	require.NoError(t, err)
	for _, ch := range chunks {
		e, err := emb.Embed(ctx, ch.Text)
		require.NoError(t, err)
		require.NoError(t, coll.Add(ctx, domain.Record{ID: uuid.NewString(), Vector: e.Vector, Text: ch.Text, Metadata: ch.Metadata}))
	}
	return coll
}

func regulationChunks() []domain.Chunk {
	return []domain.Chunk{
		{
			Text:     "The standard period of study for the Master's program is 4 semesters including the thesis.",
			Metadata: domain.ChunkMetadata{Title: "Duration", Filename: "master.pdf", PageNumber: 2, ChunkIndex: 3, SourcePath: "/pdfs/master.pdf"},
		},
		{
			Text:     "Library opening hours are posted at the entrance of the main building.",
			Metadata: domain.ChunkMetadata{Title: "Content", Filename: "campus.pdf", PageNumber: 1, ChunkIndex: 1, SourcePath: "/pdfs/campus.pdf"},
		},
	}
}

func newEngine(t *testing.T, gen domain.Generator) (*Engine, *Retriever) {
	t.Helper()
	emb, err := hashing.NewEmbedder(hashing.DefaultDimension)
	require.NoError(t, err)
	coll := seed(t, emb, regulationChunks()...)
	r := NewRetriever(emb, coll)
	return NewEngine(r, gen, coll, emb, zaptest.NewLogger(t)), r
}

func TestProcessQuery_AnswersWithDurationSource(t *testing.T) {
	gen := &fakeGenerator{answer: domain.Generation{Text: "Das Masterstudium dauert 4 Semester. [Quelle 1]"}}
	engine, r := newEngine(t, gen)
	query := "How long is the Master's program?"

	matches, err := r.Retrieve(context.Background(), query, 3)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Duration", matches[0].Metadata.Title)

	res := engine.ProcessQuery(context.Background(), query, 3)

	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, res.ContextCount, 1)
	assert.Equal(t, query, res.Query)
	assert.Equal(t, gen.answer.Text, res.Answer)
	assert.Equal(t, domain.FailureNone, res.Failure)
	var durations int
	for _, s := range res.Sources {
		if s.Title == "Duration" {
			durations++
			assert.Equal(t, domain.Source{Filename: "master.pdf", Title: "Duration", PageNumber: 2, ChunkIndex: 3, Path: "/pdfs/master.pdf"}, s)
		}
	}
	assert.Equal(t, 1, durations)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "[Quelle 1: master.pdf - Duration]")
	assert.Contains(t, gen.prompts[0], "FRAGE: "+query)
}

func TestProcessQuery_DegenerateQueryShortCircuits(t *testing.T) {
	gen := &fakeGenerator{}
	engine, r := newEngine(t, gen)

	matches, err := r.Retrieve(context.Background(), "?!? ...", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	res := engine.ProcessQuery(context.Background(), "?!? ...", 5)

	assert.False(t, res.Success)
	assert.Equal(t, MsgNoDocuments, res.Answer)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	assert.Equal(t, domain.FailureEmptyRetrieval, res.Failure)
	assert.Empty(t, gen.prompts, "generator must not be called")
}

func TestProcessQuery_EmptyStore(t *testing.T) {
	emb, _ := hashing.NewEmbedder(hashing.DefaultDimension)
	coll := seed(t, emb)
	engine := NewEngine(NewRetriever(emb, coll), &fakeGenerator{}, coll, emb, nil)

	res := engine.ProcessQuery(context.Background(), "Wie lange dauert das Masterstudium?", 3)

	assert.False(t, res.Success)
	assert.Equal(t, MsgNoDocuments, res.Answer)
}

func TestProcessQuery_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	gen, err := ollama.New(ollama.Config{BaseURL: addr})
	require.NoError(t, err)
	engine, _ := newEngine(t, gen)

	res := engine.ProcessQuery(context.Background(), "How long is the Master's program?", 3)

	assert.True(t, res.Success)
	assert.Equal(t, ollama.MsgUnreachable, res.Answer)
	assert.Equal(t, domain.FailureBackendUnreachable, res.Failure)
	assert.NotEmpty(t, res.Sources)
}

type failingSearcher struct{}

func (failingSearcher) Retrieve(context.Context, string, int) ([]domain.Match, error) {
	return nil, errors.New("database is locked")
}

func TestProcessQuery_RetrievalError(t *testing.T) {
	engine := NewEngine(failingSearcher{}, &fakeGenerator{}, nil, nil, zaptest.NewLogger(t))

	res := engine.ProcessQuery(context.Background(), "Frage", 0)

	assert.False(t, res.Success)
	assert.Equal(t, domain.FailureRetrieval, res.Failure)
	assert.True(t, strings.HasPrefix(res.Answer, "Fehler bei der Dokumentensuche: "))
}

type panickingCollection struct{ domain.Collection }

func (panickingCollection) Count(context.Context) (int, error) { panic("store closed") }

func TestCheckStatus_ProbesAreIsolated(t *testing.T) {
	emb, _ := hashing.NewEmbedder(hashing.DefaultDimension)
	engine := NewEngine(nil, &fakeGenerator{}, panickingCollection{}, emb, zaptest.NewLogger(t))

	st := engine.CheckStatus(context.Background())

	assert.False(t, st.VectorStore)
	assert.True(t, st.Embedder)
	assert.True(t, st.Generator)
	assert.False(t, st.Healthy())
}

func TestCheckStatus_AllHealthy(t *testing.T) {
	engine, _ := newEngine(t, &fakeGenerator{})

	st := engine.CheckStatus(context.Background())

	assert.True(t, st.Healthy())
	assert.Equal(t, 2, st.RecordCount)
}

func TestCheckStatus_GeneratorDown(t *testing.T) {
	engine, _ := newEngine(t, &fakeGenerator{pingErr: errors.New("connection refused")})

	st := engine.CheckStatus(context.Background())

	assert.True(t, st.VectorStore)
	assert.False(t, st.Generator)
}
