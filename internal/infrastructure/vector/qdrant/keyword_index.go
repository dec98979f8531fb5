package qdrant

import (
	"context"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/resilience"
)

// lexicalVectorName is the sparse named vector the ingestion pipeline
// writes BM25-style term weights into.
const lexicalVectorName = "lexical"

// KeywordIndex implements ports.KeywordIndex with a hashed-term sparse
// query against the same collection the dense index reads.
type KeywordIndex struct {
	client *client
}

func NewKeywordIndex(baseURL, collection string, executor *resilience.Executor) *KeywordIndex {
	return &KeywordIndex{client: newClient(baseURL, collection, executor)}
}

func (ix *KeywordIndex) Search(ctx context.Context, query string, limit int) ([]domain.ScoredHit, error) {
	if limit <= 0 {
		limit = 10
	}

	sparse := encodeSparseQuery(query)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	points, err := ix.client.queryPoints(ctx, "lexical_search", map[string]any{
		"query": map[string]any{
			"indices": sparse.Indices,
			"values":  sparse.Values,
		},
		"using":        lexicalVectorName,
		"limit":        limit,
		"with_payload": true,
	})
	if err != nil {
		return nil, err
	}
	return hitsFromPoints(points), nil
}
