package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/ports"
)

const maxExpansions = 3

var questionPrefixes = []string{
	"what is the", "what are the", "what is", "what are", "what does",
	"how does the", "how does", "how do", "how can", "how is",
	"why does", "why is", "why are", "who is", "who are",
	"when does", "when is", "where is", "where are",
	"can you explain", "explain", "describe", "tell me about",
}

// queryExpander derives up to three reformulations of the original query
// for the expanded strategy. The LLM path is optional; the deterministic
// fallback always produces at least one variant for non-trivial queries.
type queryExpander struct {
	llm     ports.CompletionClient
	timeout time.Duration
}

func newQueryExpander(llm ports.CompletionClient, timeout time.Duration) *queryExpander {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &queryExpander{llm: llm, timeout: timeout}
}

func (e *queryExpander) Expand(ctx context.Context, query string) []string {
	if e.llm != nil {
		if variants := e.expandRemote(ctx, query); len(variants) > 0 {
			return variants
		}
	}
	return expandHeuristic(query)
}

func (e *queryExpander) expandRemote(ctx context.Context, query string) []string {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.llm.Complete(callCtx, buildExpansionPrompt(query))
	if err != nil {
		slog.Warn("query_expansion_remote_failed", "error", err)
		return nil
	}
	return collectVariants(strings.Split(response, "\n"), query)
}

func expandHeuristic(query string) []string {
	candidates := make([]string, 0, maxExpansions)

	if stripped := stripQuestionPrefix(query); stripped != "" {
		candidates = append(candidates, stripped)
	}
	if keywords := strings.Join(contentWords(query), " "); keywords != "" {
		candidates = append(candidates, keywords)
	}

	return collectVariants(candidates, query)
}

func stripQuestionPrefix(query string) string {
	trimmed := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(query), "?.!"))
	lowered := strings.ToLower(trimmed)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lowered, prefix+" ") {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}

// collectVariants deduplicates candidate reformulations and drops the
// original query so the expanded strategy never just re-runs dense.
func collectVariants(candidates []string, original string) []string {
	seen := make(map[string]struct{}, maxExpansions+1)
	seen[strings.ToLower(strings.TrimSpace(original))] = struct{}{}

	out := make([]string, 0, maxExpansions)
	for _, candidate := range candidates {
		variant := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(candidate), "- "))
		variant = strings.Trim(variant, `"`)
		if variant == "" {
			continue
		}
		key := strings.ToLower(variant)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, variant)
		if len(out) == maxExpansions {
			break
		}
	}
	return out
}

func buildExpansionPrompt(query string) string {
	return fmt.Sprintf(`Rewrite the search query below into up to 3 alternative phrasings
that preserve its meaning. Return one phrasing per line, no numbering,
no commentary.

Query: %s`, query)
}
