package nlp

import "testing"

func TestExtractCapitalizedRuns(t *testing.T) {
	extractor := NewExtractor()

	entities := extractor.Extract("Compare Apache Kafka with RabbitMQ for streaming")
	if len(entities) == 0 {
		t.Fatalf("expected entities")
	}
	found := map[string]bool{}
	for _, e := range entities {
		found[e] = true
	}
	if !found["apache kafka"] {
		t.Fatalf("expected 'apache kafka' run, got %v", entities)
	}
	if !found["rabbitmq"] {
		t.Fatalf("expected 'rabbitmq', got %v", entities)
	}
}

func TestExtractSkipsSentenceStartCapital(t *testing.T) {
	extractor := NewExtractor()

	entities := extractor.Extract("Explain BERT embeddings")
	for _, e := range entities {
		if e == "explain" || e == "explain bert" {
			t.Fatalf("sentence-start word leaked into entities: %v", entities)
		}
	}
	found := false
	for _, e := range entities {
		if e == "bert" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected acronym 'bert', got %v", entities)
	}
}

func TestExtractQuotedPhrases(t *testing.T) {
	extractor := NewExtractor()

	entities := extractor.Extract(`search for "dynamic relevance threshold" in the docs`)
	if len(entities) == 0 || entities[0] != "dynamic relevance threshold" {
		t.Fatalf("expected quoted phrase first, got %v", entities)
	}
}

func TestExtractEmptyAndLowercaseText(t *testing.T) {
	extractor := NewExtractor()

	if got := extractor.Extract(""); len(got) != 0 {
		t.Fatalf("expected no entities for empty text, got %v", got)
	}
	if got := extractor.Extract("plain lowercase words only"); len(got) != 0 {
		t.Fatalf("expected no entities for lowercase text, got %v", got)
	}
}
