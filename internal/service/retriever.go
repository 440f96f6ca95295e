package service

import (
	"context"
	"fmt"

	"unirag/internal/domain"
)

// Retriever embeds a query and fetches its nearest chunks.
type Retriever struct {
	embedder   domain.Embedder
	collection domain.Collection
}

func NewRetriever(embedder domain.Embedder, collection domain.Collection) *Retriever {
	return &Retriever{embedder: embedder, collection: collection}
}

// Retrieve returns up to k matches in store order. A degenerate query
// embedding or an empty collection yields no matches and no error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Match, error) {
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if emb.Degenerate {
		return nil, nil
	}
	matches, err := r.collection.Query(ctx, emb.Vector, k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.collection.Name(), err)
	}
	return matches, nil
}
