package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"unirag/internal/domain"
)

const (
	// DefaultTopK is used when a caller asks for zero or fewer passages.
	DefaultTopK = 5
	// MsgNoDocuments is the answer when nothing relevant was retrieved.
	MsgNoDocuments = "Entschuldigung, ich konnte keine relevanten Dokumente zu Ihrer Frage finden."
	msgRetrieval   = "Fehler bei der Dokumentensuche: %v"
	statusCanary   = "Test"
)

// Searcher finds passages relevant to a query.
type Searcher interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error)
}

// Engine answers questions from the indexed regulations.
type Engine struct {
	retriever  Searcher
	generator  domain.Generator
	collection domain.Collection
	embedder   domain.Embedder
	log        *zap.Logger
}

func NewEngine(retriever Searcher, generator domain.Generator, collection domain.Collection, embedder domain.Embedder, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{retriever: retriever, generator: generator, collection: collection, embedder: embedder, log: log}
}

// ProcessQuery retrieves context, asks the generator and returns the answer
// with its deduplicated sources. It never returns an error: every failure
// is reported through the result.
func (e *Engine) ProcessQuery(ctx context.Context, query string, k int) domain.QueryResult {
	if k <= 0 {
		k = DefaultTopK
	}
	e.log.Info("processing query", zap.String("query", query), zap.Int("k", k))

	matches, err := e.retriever.Retrieve(ctx, query, k)
	if err != nil {
		e.log.Error("retrieval failed", zap.Error(err))
		return domain.QueryResult{
			Answer:  fmt.Sprintf(msgRetrieval, err),
			Sources: []domain.Source{},
			Query:   query,
			Failure: domain.FailureRetrieval,
		}
	}
	if len(matches) == 0 {
		return domain.QueryResult{
			Answer:  MsgNoDocuments,
			Sources: []domain.Source{},
			Query:   query,
			Failure: domain.FailureEmptyRetrieval,
		}
	}

	gen := e.generator.Generate(ctx, BuildPrompt(query, matches))
	if gen.Err != nil {
		e.log.Warn("generation failed", zap.String("failure", string(gen.Failure)), zap.Error(gen.Err))
	}

	sources := make([]domain.Source, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, SourceOf(m))
	}
	return domain.QueryResult{
		Answer:       gen.Text,
		Sources:      DedupSources(sources),
		Query:        query,
		Success:      true,
		ContextCount: len(matches),
		Failure:      gen.Failure,
	}
}

// CheckStatus probes the store, the embedder and the generator
// independently. A failing probe never affects the others.
func (e *Engine) CheckStatus(ctx context.Context) domain.Status {
	var (
		st domain.Status
		wg sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.probe("vector store", func() error {
			n, err := e.collection.Count(ctx)
			if err != nil {
				return err
			}
			st.VectorStore, st.RecordCount = true, n
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		e.probe("embedder", func() error {
			emb, err := e.embedder.Embed(ctx, statusCanary)
			if err != nil {
				return err
			}
			if emb.Degenerate {
				return domain.ErrDegenerateEmbedding
			}
			st.Embedder = true
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		e.probe("generator", func() error {
			if err := e.generator.Ping(ctx); err != nil {
				return err
			}
			st.Generator = true
			return nil
		})
	}()
	wg.Wait()
	return st
}

func (e *Engine) probe(name string, check func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("status probe panicked", zap.String("probe", name), zap.Any("panic", r))
		}
	}()
	if err := check(); err != nil {
		e.log.Error("status probe failed", zap.String("probe", name), zap.Error(err))
	}
}
