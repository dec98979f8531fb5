package usecase

import (
	"fmt"
	"math"
	"testing"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
)

func passage(id, text string) domain.Passage {
	return domain.Passage{ID: id, Text: text}
}

func TestFuseRewardsStrategyAgreement(t *testing.T) {
	dense := []domain.ScoredHit{
		{Passage: passage("p1", "single"), Score: 0.5, Strategy: domain.StrategyDense},
		{Passage: passage("p2", "double"), Score: 0.5, Strategy: domain.StrategyDense},
	}
	sparse := []domain.ScoredHit{
		{Passage: passage("p2", "double"), Score: 0.5, Strategy: domain.StrategySparse},
	}

	fused := fuseStrategyHits([][]domain.ScoredHit{dense, sparse}, 10)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused results, got %d", len(fused))
	}
	if fused[0].Passage.ID != "p2" {
		t.Fatalf("expected corroborated passage first, got %s", fused[0].Passage.ID)
	}
	if fused[0].FusedScore <= fused[1].FusedScore {
		t.Fatalf("expected strictly greater fused score for two-strategy match: %f vs %f",
			fused[0].FusedScore, fused[1].FusedScore)
	}
	if len(fused[0].Strategies) != 2 {
		t.Fatalf("expected 2 strategies matched, got %v", fused[0].Strategies)
	}
}

func TestFuseOrderingIsDeterministic(t *testing.T) {
	lists := make([][]domain.ScoredHit, 0, 3)
	for s, strategy := range []domain.Strategy{domain.StrategyDense, domain.StrategySparse, domain.StrategyEntity} {
		hits := make([]domain.ScoredHit, 0, 6)
		for i := 0; i < 6; i++ {
			hits = append(hits, domain.ScoredHit{
				Passage:  passage(fmt.Sprintf("p%d-%d", s, i), "text"),
				Score:    0.5,
				Strategy: strategy,
			})
		}
		lists = append(lists, hits)
	}

	first := fuseStrategyHits(lists, 20)
	for run := 0; run < 5; run++ {
		again := fuseStrategyHits(lists, 20)
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed: %d vs %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i].Passage.ID != first[i].Passage.ID {
				t.Fatalf("run %d: order changed at %d: %s vs %s",
					run, i, again[i].Passage.ID, first[i].Passage.ID)
			}
		}
	}
}

func TestFuseTruncatesAndSortsDescending(t *testing.T) {
	strategies := []domain.Strategy{
		domain.StrategyDense, domain.StrategySparse, domain.StrategyExpanded,
		domain.StrategyContextual, domain.StrategyEntity,
	}
	lists := make([][]domain.ScoredHit, 0, len(strategies))
	for s, strategy := range strategies {
		hits := make([]domain.ScoredHit, 0, 10)
		for i := 0; i < 10; i++ {
			hits = append(hits, domain.ScoredHit{
				Passage:  passage(fmt.Sprintf("s%d-p%d", s, i), "text"),
				Score:    0.1 + 0.08*float64(i),
				Strategy: strategy,
			})
		}
		lists = append(lists, hits)
	}

	fused := fuseStrategyHits(lists, 4)
	if len(fused) != 4 {
		t.Fatalf("expected exactly 4 results, got %d", len(fused))
	}
	for i := 1; i < len(fused); i++ {
		if fused[i].FusedScore > fused[i-1].FusedScore {
			t.Fatalf("results not sorted descending at %d: %f > %f",
				i, fused[i].FusedScore, fused[i-1].FusedScore)
		}
	}
}

func TestFuseSanitizesMalformedScores(t *testing.T) {
	hits := []domain.ScoredHit{
		{Passage: passage("nan", "a"), Score: math.NaN(), Strategy: domain.StrategySparse},
		{Passage: passage("neg", "b"), Score: -3, Strategy: domain.StrategySparse},
		{Passage: passage("ok", "c"), Score: 0.4, Strategy: domain.StrategySparse},
	}

	fused := fuseStrategyHits([][]domain.ScoredHit{hits}, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 results, got %d", len(fused))
	}
	if fused[0].Passage.ID != "ok" {
		t.Fatalf("expected sanitized scores to rank last, got %s first", fused[0].Passage.ID)
	}
	for _, r := range fused {
		if math.IsNaN(r.FusedScore) || r.FusedScore < 0 {
			t.Fatalf("malformed fused score for %s: %f", r.Passage.ID, r.FusedScore)
		}
	}
}

func TestFuseTieBreaksByDenseRankThenKey(t *testing.T) {
	dense := []domain.ScoredHit{
		{Passage: passage("zz", "ranked first in dense"), Score: 0.5, Strategy: domain.StrategyDense},
		{Passage: passage("aa", "ranked second in dense"), Score: 0.5, Strategy: domain.StrategyDense},
	}
	sparse := []domain.ScoredHit{
		{Passage: passage("mm", "sparse only"), Score: 0.5, Strategy: domain.StrategySparse},
	}

	fused := fuseStrategyHits([][]domain.ScoredHit{dense, sparse}, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 results, got %d", len(fused))
	}
	if fused[0].Passage.ID != "zz" || fused[1].Passage.ID != "aa" {
		t.Fatalf("expected dense rank to break the tie, got %s, %s",
			fused[0].Passage.ID, fused[1].Passage.ID)
	}
	if fused[2].Passage.ID != "mm" {
		t.Fatalf("expected passage without dense rank last, got %s", fused[2].Passage.ID)
	}
}

func TestFuseMergesByIdentityNotText(t *testing.T) {
	dense := []domain.ScoredHit{
		{Passage: passage("p1", "same text"), Score: 0.6, Strategy: domain.StrategyDense},
		{Passage: passage("p2", "same text"), Score: 0.6, Strategy: domain.StrategyDense},
	}

	fused := fuseStrategyHits([][]domain.ScoredHit{dense}, 10)
	if len(fused) != 2 {
		t.Fatalf("near-duplicate chunks with distinct ids must stay distinct, got %d", len(fused))
	}
}
