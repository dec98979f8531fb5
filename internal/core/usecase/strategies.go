package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
)

// Every strategy executor fails soft: collaborator errors and timeouts
// degrade to an empty hit list so one broken strategy cannot abort the
// whole retrieval.

func (e *RetrievalEngine) runDense(ctx context.Context, query string, k int) []domain.ScoredHit {
	return e.densePipeline(ctx, query, e.limits.DenseCandidateFactor*k)
}

// densePipeline is the shared dense path: vector search plus dynamic
// threshold pruning. Expanded and entity strategies reuse it at reduced
// candidate limits.
func (e *RetrievalEngine) densePipeline(ctx context.Context, query string, limit int) []domain.ScoredHit {
	if limit < 1 {
		limit = 1
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.limits.StrategyTimeout)
	defer cancel()

	hits, err := e.vectors.Search(searchCtx, query, limit)
	if err != nil {
		slog.Warn("dense_strategy_failed", "error", err)
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	scores := make([]float64, len(hits))
	for i := range hits {
		scores[i] = domain.SanitizeScore(hits[i].Score)
	}
	threshold := dynamicThreshold(scores, wordCount(query))

	kept := make([]domain.ScoredHit, 0, len(hits))
	for i, hit := range hits {
		if scores[i] < threshold {
			continue
		}
		hit.Score = scores[i]
		hit.Strategy = domain.StrategyDense
		kept = append(kept, hit)
	}
	return kept
}

// Sparse scores live on an index-defined scale that is not comparable to
// dense cosine scores, so pruning is deferred to fusion.
func (e *RetrievalEngine) runSparse(ctx context.Context, query string, k int) []domain.ScoredHit {
	searchCtx, cancel := context.WithTimeout(ctx, e.limits.StrategyTimeout)
	defer cancel()

	hits, err := e.keywords.Search(searchCtx, query, e.limits.DenseCandidateFactor*k)
	if err != nil {
		slog.Warn("sparse_strategy_failed", "error", err)
		return nil
	}
	for i := range hits {
		hits[i].Score = domain.SanitizeScore(hits[i].Score)
		hits[i].Strategy = domain.StrategySparse
	}
	return hits
}

func (e *RetrievalEngine) runExpanded(ctx context.Context, query string, k int) []domain.ScoredHit {
	variants := e.expander.Expand(ctx, query)
	if len(variants) == 0 {
		return nil
	}

	reducedK := k/2 + 1
	out := make([]domain.ScoredHit, 0, len(variants)*reducedK)
	for _, variant := range variants {
		for _, hit := range e.densePipeline(ctx, variant, reducedK) {
			hit.Score *= e.limits.ExpandedDiscount
			hit.Strategy = domain.StrategyExpanded
			out = append(out, hit)
		}
	}
	return out
}

func (e *RetrievalEngine) runEntity(ctx context.Context, query string, k int) []domain.ScoredHit {
	entities := e.entities.Extract(query)
	if len(entities) == 0 {
		return nil
	}
	if len(entities) > e.limits.MaxQueryEntities {
		entities = entities[:e.limits.MaxQueryEntities]
	}

	reducedK := k/2 + 1
	out := make([]domain.ScoredHit, 0, len(entities)*reducedK)
	for _, entity := range entities {
		for _, hit := range e.densePipeline(ctx, entity, reducedK) {
			hit.Score *= e.limits.EntityBoost
			hit.Strategy = domain.StrategyEntity
			out = append(out, hit)
		}
	}
	return out
}

func (e *RetrievalEngine) runContextual(ctx context.Context, query string, history []domain.ConversationTurn, k int) []domain.ScoredHit {
	anchors := e.anchorTerms(history)
	if len(anchors) == 0 {
		return nil
	}

	augmented := query + " " + strings.Join(anchors, " ")
	hits := e.densePipeline(ctx, augmented, e.limits.DenseCandidateFactor*k)

	for i := range hits {
		matches := countAnchorMatches(hits[i].Passage.Text, anchors)
		if matches > 0 {
			hits[i].Score *= 1 + e.limits.ContextMatchBonus*float64(matches)
		} else {
			// Penalize context-irrelevant hits instead of dropping them;
			// the dense similarity alone may still be meaningful.
			hits[i].Score *= e.limits.ContextMissPenalty
		}
		hits[i].Strategy = domain.StrategyContextual
	}
	return hits
}

// anchorTerms builds the salient-term set from history, newest turns
// first so the recent window wins the capped slots. Older turns only
// fill whatever slots the recent turns leave open.
func (e *RetrievalEngine) anchorTerms(history []domain.ConversationTurn) []string {
	seen := make(map[string]struct{}, e.limits.MaxAnchorTerms)
	anchors := make([]string, 0, e.limits.MaxAnchorTerms)
	add := func(term string) bool {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return true
		}
		if _, ok := seen[term]; ok {
			return true
		}
		seen[term] = struct{}{}
		anchors = append(anchors, term)
		return len(anchors) < e.limits.MaxAnchorTerms
	}

	for i := len(history) - 1; i >= 0; i-- {
		for _, entity := range e.entities.Extract(history[i].Text) {
			if !add(entity) {
				return anchors
			}
		}
		for _, word := range contentWords(history[i].Text) {
			if !add(word) {
				return anchors
			}
		}
	}
	return anchors
}

func countAnchorMatches(text string, anchors []string) int {
	lowered := strings.ToLower(text)
	matches := 0
	for _, anchor := range anchors {
		if strings.Contains(lowered, anchor) {
			matches++
		}
	}
	return matches
}
