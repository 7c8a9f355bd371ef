package qdrant

import (
	"context"
	"fmt"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
)

// Retriever adapts the qdrant client to the first-pass search port. Dense
// queries are embedded on the fly; sparse queries are encoded locally and
// never touch the embedding model.
type Retriever struct {
	client   *Client
	embedder ports.Embedder
}

func NewRetriever(client *Client, embedder ports.Embedder) *Retriever {
	return &Retriever{client: client, embedder: embedder}
}

func (r *Retriever) SearchDense(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.client.SearchDense(ctx, vector, limit)
}

func (r *Retriever) SearchSparse(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	return r.client.SearchSparse(ctx, query, limit)
}
