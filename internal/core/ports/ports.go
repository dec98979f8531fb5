package ports

import (
	"context"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
)

// VectorIndex performs dense similarity search over the passage corpus.
// Results are sorted descending by score, scores nominally in [0,1].
type VectorIndex interface {
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredHit, error)
}

// KeywordIndex performs lexical similarity search. Score scale is
// index-defined and not comparable to vector scores.
type KeywordIndex interface {
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredHit, error)
}

// EntityExtractor pulls named entities and noun phrases from text.
// Implementations swallow internal errors and return an empty slice.
type EntityExtractor interface {
	Extract(text string) []string
}

// CompletionClient is the LLM endpoint used for the context gate's binary
// classification and for query reformulation.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RetrievalService is the inbound port of the engine.
type RetrievalService interface {
	GetRelevantPassages(ctx context.Context, req domain.RetrievalRequest) ([]domain.FusedResult, domain.GateMode, error)
}

// RetrievalLogStore persists retrieval audit records. Writes are
// best-effort from the caller's point of view.
type RetrievalLogStore interface {
	CreateRecord(ctx context.Context, record domain.RetrievalRecord) error
}

// RetrievalLogReader exposes recent audit records for inspection.
type RetrievalLogReader interface {
	RecentRecords(ctx context.Context, limit int) ([]domain.RetrievalRecord, error)
}

// EventPublisher announces completed retrievals to interested consumers.
type EventPublisher interface {
	PublishRetrievalPerformed(ctx context.Context, record domain.RetrievalRecord) error
}
