package usecase

import (
	"math"
	"sort"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
)

// Reward per additional corroborating strategy. Equal-weight averaging
// plus a linear agreement bonus keeps fused scores monotonically
// non-decreasing in the number of matching strategies.
const strategyAgreementBonus = 0.1

var strategyOutputOrder = []domain.Strategy{
	domain.StrategyDense,
	domain.StrategySparse,
	domain.StrategyExpanded,
	domain.StrategyContextual,
	domain.StrategyEntity,
}

type fusedCandidate struct {
	passage     domain.Passage
	perStrategy map[domain.Strategy]float64
	scoreSum    float64
	scoreCount  int
	denseRank   int
}

// fuseStrategyHits groups hits from all strategies by passage identity and
// combines their scores into one deterministic ranking, truncated to limit.
func fuseStrategyHits(hitLists [][]domain.ScoredHit, limit int) []domain.FusedResult {
	acc := make(map[string]*fusedCandidate)
	keys := make([]string, 0, 16)

	for _, hits := range hitLists {
		for rank, hit := range hits {
			key := hit.Passage.Key()
			candidate, ok := acc[key]
			if !ok {
				candidate = &fusedCandidate{
					passage:     hit.Passage,
					perStrategy: make(map[domain.Strategy]float64, 4),
					denseRank:   math.MaxInt,
				}
				acc[key] = candidate
				keys = append(keys, key)
			}

			score := domain.SanitizeScore(hit.Score)
			candidate.scoreSum += score
			candidate.scoreCount++
			if best, seen := candidate.perStrategy[hit.Strategy]; !seen || score > best {
				candidate.perStrategy[hit.Strategy] = score
			}
			if hit.Strategy == domain.StrategyDense && rank < candidate.denseRank {
				candidate.denseRank = rank
			}
			if candidate.passage.Text == "" && hit.Passage.Text != "" {
				candidate.passage = hit.Passage
			}
		}
	}

	out := make([]domain.FusedResult, 0, len(acc))
	rankByKey := make(map[string]*fusedCandidate, len(acc))
	for _, key := range keys {
		candidate := acc[key]
		avg := candidate.scoreSum / float64(candidate.scoreCount)
		bonus := strategyAgreementBonus * float64(len(candidate.perStrategy)-1)

		strategies := make([]domain.Strategy, 0, len(candidate.perStrategy))
		for _, s := range strategyOutputOrder {
			if _, ok := candidate.perStrategy[s]; ok {
				strategies = append(strategies, s)
			}
		}

		rankByKey[key] = candidate
		out = append(out, domain.FusedResult{
			Passage:           candidate.passage,
			FusedScore:        avg + bonus,
			Strategies:        strategies,
			PerStrategyScores: candidate.perStrategy,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		if len(out[i].Strategies) != len(out[j].Strategies) {
			return len(out[i].Strategies) > len(out[j].Strategies)
		}
		ri := rankByKey[out[i].Passage.Key()].denseRank
		rj := rankByKey[out[j].Passage.Key()].denseRank
		if ri != rj {
			return ri < rj
		}
		return out[i].Passage.Key() < out[j].Passage.Key()
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
