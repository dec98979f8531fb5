package domain

import (
	"fmt"
	"hash/fnv"
	"math"
)

// Strategy identifies the retrieval algorithm that produced a hit.
type Strategy string

const (
	StrategyDense      Strategy = "dense"
	StrategySparse     Strategy = "sparse"
	StrategyExpanded   Strategy = "expanded"
	StrategyContextual Strategy = "contextual"
	StrategyEntity     Strategy = "entity"
)

// GateMode is the context gate decision for one request.
type GateMode string

const (
	GateGeneral    GateMode = "general"
	GateContextual GateMode = "contextual"
)

// fallbackKeyPrefixLen bounds how much passage text feeds the fallback
// identity hash when the index supplies no stable id. Near-duplicate
// chunks sharing their first 200 characters will collide and be merged.
const fallbackKeyPrefixLen = 200

type Passage struct {
	ID     string            `json:"id"`
	Text   string            `json:"text"`
	Source map[string]string `json:"source,omitempty"`
}

// Key returns the stable identity used to group hits across strategies.
func (p Passage) Key() string {
	if p.ID != "" {
		return p.ID
	}
	prefix := p.Text
	if len(prefix) > fallbackKeyPrefixLen {
		prefix = prefix[:fallbackKeyPrefixLen]
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(prefix))
	return fmt.Sprintf("text:%016x", h.Sum64())
}

type ScoredHit struct {
	Passage  Passage  `json:"passage"`
	Score    float64  `json:"score"`
	Strategy Strategy `json:"strategy"`
}

type FusedResult struct {
	Passage           Passage              `json:"passage"`
	FusedScore        float64              `json:"fused_score"`
	Strategies        []Strategy           `json:"strategies"`
	PerStrategyScores map[Strategy]float64 `json:"per_strategy_scores"`
}

type ConversationTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type RetrievalRequest struct {
	Query   string             `json:"query"`
	History []ConversationTurn `json:"history,omitempty"`
	K       int                `json:"k"`
}

// SanitizeScore clamps malformed collaborator scores before fusion.
func SanitizeScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}
