package nlp

import (
	"strings"
	"unicode"
)

const maxExtractedEntities = 16

// Extractor is a heuristic entity/noun-phrase extractor: capitalized word
// runs, acronyms and quoted phrases. It is deliberately cheap and never
// fails the caller; an empty slice simply disables the entity strategy.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

var phraseStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "why": {}, "when": {},
	"where": {}, "explain": {}, "describe": {}, "tell": {}, "does": {}, "do": {},
	"can": {}, "i": {}, "it": {}, "this": {}, "that": {},
}

func (e *Extractor) Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := make(map[string]struct{}, maxExtractedEntities)
	out := make([]string, 0, maxExtractedEntities)
	add := func(entity string) {
		entity = strings.ToLower(strings.TrimSpace(entity))
		if entity == "" || len(out) >= maxExtractedEntities {
			return
		}
		if _, stop := phraseStopwords[entity]; stop {
			return
		}
		if _, dup := seen[entity]; dup {
			return
		}
		seen[entity] = struct{}{}
		out = append(out, entity)
	}

	for _, phrase := range quotedPhrases(text) {
		add(phrase)
	}
	for _, run := range capitalizedRuns(text) {
		add(run)
	}
	return out
}

func quotedPhrases(text string) []string {
	out := make([]string, 0, 4)
	for _, quote := range []string{`"`, "'"} {
		parts := strings.Split(text, quote)
		// Odd-indexed segments sit between quote pairs.
		for i := 1; i < len(parts); i += 2 {
			phrase := strings.TrimSpace(parts[i])
			if phrase != "" && strings.Contains(phrase, " ") {
				out = append(out, phrase)
			}
		}
	}
	return out
}

// capitalizedRuns collects maximal sequences of capitalized or all-caps
// words. The run crossing a sentence start keeps only words that are
// capitalized mid-phrase, so "Explain BERT" yields "bert", not "explain bert".
func capitalizedRuns(text string) []string {
	words := strings.Fields(text)
	out := make([]string, 0, 8)
	run := make([]string, 0, 4)

	flush := func() {
		if len(run) > 0 {
			out = append(out, strings.Join(run, " "))
			run = run[:0]
		}
	}

	for i, word := range words {
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if cleaned == "" {
			flush()
			continue
		}

		runes := []rune(cleaned)
		capitalized := unicode.IsUpper(runes[0])
		allCaps := isAllCaps(cleaned)

		sentenceStart := i == 0 || strings.HasSuffix(words[i-1], ".") ||
			strings.HasSuffix(words[i-1], "?") || strings.HasSuffix(words[i-1], "!")
		if capitalized && sentenceStart && !allCaps {
			// Likely capitalized only because it opens a sentence.
			flush()
			continue
		}
		if capitalized || allCaps {
			run = append(run, cleaned)
			continue
		}
		flush()
	}
	flush()
	return out
}

func isAllCaps(word string) bool {
	letters := 0
	for _, r := range word {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters >= 2
}
