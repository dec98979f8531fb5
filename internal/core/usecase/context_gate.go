package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/ports"
)

const (
	gateSummaryTurns   = 5
	gateOverlapTurns   = 3
	gateShortQueryLen  = 3
	gateMinSharedWords = 2
)

var referentialPronouns = map[string]struct{}{
	"it": {}, "this": {}, "that": {}, "they": {}, "them": {},
	"their": {}, "his": {}, "her": {},
}

var followUpPhrases = []string{
	"what about", "how about", "tell me more", "go on",
	"the first part", "the second part", "the previous", "the next",
}

// contextGate decides whether conversation history should influence
// retrieval. The remote classifier is an accuracy boost only; the
// heuristic is a complete fallback, not a degraded partial check.
type contextGate struct {
	llm     ports.CompletionClient
	timeout time.Duration
}

func newContextGate(llm ports.CompletionClient, timeout time.Duration) *contextGate {
	if timeout <= 0 {
		timeout = 1500 * time.Millisecond
	}
	return &contextGate{llm: llm, timeout: timeout}
}

func (g *contextGate) Decide(ctx context.Context, query string, history []domain.ConversationTurn) domain.GateMode {
	if len(history) < 2 {
		return domain.GateGeneral
	}

	if g.llm != nil {
		if mode, ok := g.classifyRemote(ctx, query, history); ok {
			return mode
		}
	}
	return classifyHeuristic(query, history)
}

func (g *contextGate) classifyRemote(ctx context.Context, query string, history []domain.ConversationTurn) (domain.GateMode, bool) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.llm.Complete(callCtx, buildGatePrompt(query, history))
	if err != nil {
		slog.Warn("context_gate_remote_failed", "error", err)
		return domain.GateGeneral, false
	}

	fields := strings.Fields(strings.ToLower(response))
	if len(fields) == 0 {
		return domain.GateGeneral, false
	}
	switch {
	case strings.HasPrefix(fields[0], "context"):
		return domain.GateContextual, true
	case strings.HasPrefix(fields[0], "general"):
		return domain.GateGeneral, true
	}
	slog.Warn("context_gate_unparseable_label", "label", fields[0])
	return domain.GateGeneral, false
}

func classifyHeuristic(query string, history []domain.ConversationTurn) domain.GateMode {
	lowered := strings.ToLower(query)
	tokens := splitAlphaNumLower(query)

	for _, token := range tokens {
		if _, ok := referentialPronouns[token]; ok {
			return domain.GateContextual
		}
	}
	for _, phrase := range followUpPhrases {
		if strings.Contains(lowered, phrase) {
			return domain.GateContextual
		}
	}
	if wordCount(query) <= gateShortQueryLen {
		return domain.GateContextual
	}

	recentText := make([]string, 0, gateOverlapTurns)
	for _, turn := range lastTurns(history, gateOverlapTurns) {
		recentText = append(recentText, contentWords(turn.Text)...)
	}
	recentWords := toTokenSet(recentText)
	shared := 0
	for _, word := range contentWords(query) {
		if _, ok := recentWords[word]; ok {
			shared++
			if shared >= gateMinSharedWords {
				return domain.GateContextual
			}
		}
	}
	return domain.GateGeneral
}

func buildGatePrompt(query string, history []domain.ConversationTurn) string {
	lines := make([]string, 0, gateSummaryTurns)
	for _, turn := range lastTurns(history, gateSummaryTurns) {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		if len(text) > 200 {
			text = text[:200]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, text))
	}

	return fmt.Sprintf(`Classify whether the user query depends on the prior conversation.
Answer with exactly one word: "contextual" or "general".

Conversation:
%s

Query: %s
Answer:`, strings.Join(lines, "\n"), query)
}

func lastTurns(history []domain.ConversationTurn, n int) []domain.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
