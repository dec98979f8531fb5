package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
)

type fakeCompletion struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompletion) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func historyTurns(texts ...string) []domain.ConversationTurn {
	turns := make([]domain.ConversationTurn, 0, len(texts))
	role := "user"
	for _, text := range texts {
		turns = append(turns, domain.ConversationTurn{Role: role, Text: text})
		if role == "user" {
			role = "assistant"
		} else {
			role = "user"
		}
	}
	return turns
}

func TestGateShortHistoryIsGeneral(t *testing.T) {
	gate := newContextGate(&fakeCompletion{response: "contextual"}, time.Second)

	mode := gate.Decide(context.Background(), "what about it?", historyTurns("only one turn"))
	if mode != domain.GateGeneral {
		t.Fatalf("expected general with <2 turns, got %s", mode)
	}
}

func TestGateRemoteLabelPrefixMatch(t *testing.T) {
	history := historyTurns("Explain transformers", "A transformer uses attention...")

	cases := map[string]domain.GateMode{
		"contextual":                       domain.GateContextual,
		"Context-dependent follow-up":      domain.GateContextual,
		"GENERAL":                          domain.GateGeneral,
		"general knowledge question here.": domain.GateGeneral,
	}
	for response, want := range cases {
		gate := newContextGate(&fakeCompletion{response: response}, time.Second)
		if mode := gate.Decide(context.Background(), "What is the capital of France?", history); mode != want {
			t.Fatalf("response %q: expected %s, got %s", response, want, mode)
		}
	}
}

func TestGateFallsBackOnRemoteFailure(t *testing.T) {
	llm := &fakeCompletion{err: errors.New("endpoint unavailable")}
	gate := newContextGate(llm, time.Second)
	history := historyTurns("Explain transformers", "A transformer uses attention...")

	if mode := gate.Decide(context.Background(), "how does it scale?", history); mode != domain.GateContextual {
		t.Fatalf("referential pronoun should classify contextual, got %s", mode)
	}
	if llm.calls == 0 {
		t.Fatalf("expected remote classifier attempt before fallback")
	}
}

func TestGateFallsBackOnUnparseableLabel(t *testing.T) {
	gate := newContextGate(&fakeCompletion{response: "I think this depends..."}, time.Second)
	history := historyTurns("Explain transformers", "A transformer uses attention...")

	if mode := gate.Decide(context.Background(), "go on", history); mode != domain.GateContextual {
		t.Fatalf("follow-up phrase should classify contextual, got %s", mode)
	}
}

func TestHeuristicClassification(t *testing.T) {
	history := historyTurns(
		"Explain transformers in machine learning",
		"A transformer uses attention to weigh token relationships.",
		"They scale with sequence length.",
	)

	cases := []struct {
		query string
		want  domain.GateMode
	}{
		{"how does it work?", domain.GateContextual},                               // referential pronoun
		{"what about the decoder side?", domain.GateContextual},                    // follow-up phrase
		{"why?", domain.GateContextual},                                            // short query
		{"compare attention with transformer convolutions", domain.GateContextual}, // shared content words
		{"What is the capital of France?", domain.GateGeneral},
	}
	for _, tc := range cases {
		if got := classifyHeuristic(tc.query, history); got != tc.want {
			t.Fatalf("query %q: expected %s, got %s", tc.query, tc.want, got)
		}
	}
}

func TestGateWithoutRemoteClassifier(t *testing.T) {
	gate := newContextGate(nil, time.Second)
	history := historyTurns("Explain transformers", "A transformer uses attention...")

	if mode := gate.Decide(context.Background(), "tell me more", history); mode != domain.GateContextual {
		t.Fatalf("expected heuristic path with nil classifier, got %s", mode)
	}
}
