package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("DENSE_CANDIDATE_FACTOR", "")
	t.Setenv("EXPANDED_STRATEGY_WEIGHT", "")
	t.Setenv("ENTITY_STRATEGY_BOOST", "")
	t.Setenv("CONTEXT_MISS_PENALTY", "")

	cfg := Load()
	if cfg.RetrievalTopK != 4 {
		t.Fatalf("expected default top k 4, got %d", cfg.RetrievalTopK)
	}
	if cfg.DenseCandidateFactor != 3 {
		t.Fatalf("expected default candidate factor 3, got %d", cfg.DenseCandidateFactor)
	}
	if cfg.ExpandedStrategyWeight != 0.8 {
		t.Fatalf("expected default expanded weight 0.8, got %f", cfg.ExpandedStrategyWeight)
	}
	if cfg.EntityStrategyBoost != 1.2 {
		t.Fatalf("expected default entity boost 1.2, got %f", cfg.EntityStrategyBoost)
	}
	if cfg.ContextMissPenalty != 0.7 {
		t.Fatalf("expected default miss penalty 0.7, got %f", cfg.ContextMissPenalty)
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("STRATEGY_TIMEOUT_MS", "5000")
	t.Setenv("EXPANDED_STRATEGY_WEIGHT", "0.5")
	t.Setenv("API_RATE_LIMIT_RPS", "25")
	t.Setenv("NATS_ENABLED", "false")

	cfg := Load()
	if cfg.RetrievalTopK != 8 {
		t.Fatalf("expected top k override 8, got %d", cfg.RetrievalTopK)
	}
	if cfg.StrategyTimeoutMillis != 5000 {
		t.Fatalf("expected strategy timeout 5000, got %d", cfg.StrategyTimeoutMillis)
	}
	if cfg.ExpandedStrategyWeight != 0.5 {
		t.Fatalf("expected expanded weight 0.5, got %f", cfg.ExpandedStrategyWeight)
	}
	if cfg.APIRateLimitRPS != 25 {
		t.Fatalf("expected rate limit 25, got %f", cfg.APIRateLimitRPS)
	}
	if cfg.NATSEnabled {
		t.Fatalf("expected nats disabled")
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "four")
	t.Setenv("ENTITY_STRATEGY_BOOST", "big")

	cfg := Load()
	if cfg.RetrievalTopK != 4 {
		t.Fatalf("expected fallback top k 4, got %d", cfg.RetrievalTopK)
	}
	if cfg.EntityStrategyBoost != 1.2 {
		t.Fatalf("expected fallback entity boost 1.2, got %f", cfg.EntityStrategyBoost)
	}
}
