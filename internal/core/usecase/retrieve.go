package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/ports"
)

type EngineLimits struct {
	StrategyTimeout      time.Duration
	GateTimeout          time.Duration
	ExpandTimeout        time.Duration
	DenseCandidateFactor int
	ExpandedDiscount     float64
	EntityBoost          float64
	ContextMatchBonus    float64
	ContextMissPenalty   float64
	MaxQueryEntities     int
	MaxAnchorTerms       int
}

// RetrievalEngine runs the five retrieval strategies concurrently and
// fuses their hits into one ranked passage list with provenance. It holds
// no mutable state across requests; all caching belongs to the index
// collaborators.
type RetrievalEngine struct {
	vectors  ports.VectorIndex
	keywords ports.KeywordIndex
	entities ports.EntityExtractor
	gate     *contextGate
	expander *queryExpander
	auditLog ports.RetrievalLogStore
	events   ports.EventPublisher
	limits   EngineLimits
}

func NewRetrievalEngine(
	vectors ports.VectorIndex,
	keywords ports.KeywordIndex,
	entities ports.EntityExtractor,
	llm ports.CompletionClient,
	auditLog ports.RetrievalLogStore,
	events ports.EventPublisher,
	limits EngineLimits,
) *RetrievalEngine {
	if limits.StrategyTimeout <= 0 {
		limits.StrategyTimeout = 3 * time.Second
	}
	if limits.GateTimeout <= 0 || limits.GateTimeout >= limits.StrategyTimeout {
		// The gate call must resolve before the strategy budget runs out
		// so the contextual branch still has time to execute.
		limits.GateTimeout = limits.StrategyTimeout / 2
	}
	if limits.ExpandTimeout <= 0 {
		limits.ExpandTimeout = limits.StrategyTimeout / 2
	}
	if limits.DenseCandidateFactor <= 0 {
		limits.DenseCandidateFactor = 3
	}
	if limits.ExpandedDiscount <= 0 {
		limits.ExpandedDiscount = 0.8
	}
	if limits.EntityBoost <= 0 {
		limits.EntityBoost = 1.2
	}
	if limits.ContextMatchBonus <= 0 {
		limits.ContextMatchBonus = 0.2
	}
	if limits.ContextMissPenalty <= 0 {
		limits.ContextMissPenalty = 0.7
	}
	if limits.MaxQueryEntities <= 0 {
		limits.MaxQueryEntities = 5
	}
	if limits.MaxAnchorTerms <= 0 {
		limits.MaxAnchorTerms = 8
	}

	return &RetrievalEngine{
		vectors:  vectors,
		keywords: keywords,
		entities: entities,
		gate:     newContextGate(llm, limits.GateTimeout),
		expander: newQueryExpander(llm, limits.ExpandTimeout),
		auditLog: auditLog,
		events:   events,
		limits:   limits,
	}
}

// GetRelevantPassages is the caller-facing entry point. An empty result
// means "no relevant context found" and is not an error; the only errors
// surfaced are caller input mistakes.
func (e *RetrievalEngine) GetRelevantPassages(ctx context.Context, req domain.RetrievalRequest) ([]domain.FusedResult, domain.GateMode, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.GateGeneral, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("query is required"))
	}
	if req.K <= 0 {
		return nil, domain.GateGeneral, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("k must be positive, got %d", req.K))
	}

	start := time.Now()

	// Dense, sparse, expanded and entity start immediately; only the
	// contextual branch waits on the gate decision, which runs in
	// parallel so the remote classifier adds no serial latency.
	var (
		wg       sync.WaitGroup
		hitLists [5][]domain.ScoredHit
		mode     domain.GateMode
	)
	gateDone := make(chan struct{})

	go func() {
		mode = e.gate.Decide(ctx, query, req.History)
		close(gateDone)
	}()

	wg.Add(5)
	go func() {
		defer wg.Done()
		hitLists[0] = e.runDense(ctx, query, req.K)
	}()
	go func() {
		defer wg.Done()
		hitLists[1] = e.runSparse(ctx, query, req.K)
	}()
	go func() {
		defer wg.Done()
		hitLists[2] = e.runExpanded(ctx, query, req.K)
	}()
	go func() {
		defer wg.Done()
		hitLists[3] = e.runEntity(ctx, query, req.K)
	}()
	go func() {
		defer wg.Done()
		<-gateDone
		if mode == domain.GateContextual {
			hitLists[4] = e.runContextual(ctx, query, req.History, req.K)
		}
	}()
	wg.Wait()

	fused := fuseStrategyHits(hitLists[:], req.K)

	// Relevance floor over the fused distribution. With the [0.3*max,
	// 0.9*max] clamp the best candidate always clears the bar, so this
	// reports no-context exactly when every strategy came back empty or
	// dense pruning emptied the pool.
	if len(fused) > 0 {
		scores := make([]float64, len(fused))
		for i := range fused {
			scores[i] = fused[i].FusedScore
		}
		if fused[0].FusedScore < dynamicThreshold(scores, wordCount(query)) {
			fused = nil
		}
	}

	e.recordRetrieval(ctx, query, mode, hitLists[:], fused, time.Since(start))
	return fused, mode, nil
}

// recordRetrieval writes the audit row and publishes the retrieval event.
// Both are best-effort: failures are logged and never surfaced.
func (e *RetrievalEngine) recordRetrieval(
	ctx context.Context,
	query string,
	mode domain.GateMode,
	hitLists [][]domain.ScoredHit,
	fused []domain.FusedResult,
	elapsed time.Duration,
) {
	if e.auditLog == nil && e.events == nil {
		return
	}

	strategyHits := make(map[domain.Strategy]int, len(hitLists))
	for _, hits := range hitLists {
		for _, hit := range hits {
			strategyHits[hit.Strategy]++
		}
	}

	record := domain.RetrievalRecord{
		ID:           uuid.NewString(),
		Query:        query,
		GateMode:     mode,
		StrategyHits: strategyHits,
		ResultCount:  len(fused),
		NoContext:    len(fused) == 0,
		Duration:     elapsed,
		CreatedAt:    time.Now().UTC(),
	}

	// Detached from the request lifetime so a slow sink cannot delay the
	// caller's response.
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		if e.auditLog != nil {
			if err := e.auditLog.CreateRecord(writeCtx, record); err != nil {
				slog.Warn("retrieval_audit_write_failed", "record_id", record.ID, "error", err)
			}
		}
		if e.events != nil {
			if err := e.events.PublishRetrievalPerformed(writeCtx, record); err != nil {
				slog.Warn("retrieval_event_publish_failed", "record_id", record.ID, "error", err)
			}
		}
	}()
}
