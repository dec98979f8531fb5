package qdrant

import (
	"context"
	"fmt"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/resilience"
)

// Embedder builds the dense query vector. Satisfied by the ollama client.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index implements ports.VectorIndex over a qdrant collection.
type Index struct {
	client   *client
	embedder Embedder
}

func NewIndex(baseURL, collection string, embedder Embedder, executor *resilience.Executor) *Index {
	return &Index{
		client:   newClient(baseURL, collection, executor),
		embedder: embedder,
	}
}

func (ix *Index) Search(ctx context.Context, query string, limit int) ([]domain.ScoredHit, error) {
	if limit <= 0 {
		limit = 10
	}

	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}

	points, err := ix.client.queryPoints(ctx, "search", map[string]any{
		"query":        vector,
		"limit":        limit,
		"with_payload": true,
	})
	if err != nil {
		return nil, err
	}
	return hitsFromPoints(points), nil
}
