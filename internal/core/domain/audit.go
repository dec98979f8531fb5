package domain

import "time"

// RetrievalRecord captures one completed retrieval for the audit log.
type RetrievalRecord struct {
	ID           string           `json:"id"`
	Query        string           `json:"query"`
	GateMode     GateMode         `json:"gate_mode"`
	StrategyHits map[Strategy]int `json:"strategy_hits"`
	ResultCount  int              `json:"result_count"`
	NoContext    bool             `json:"no_context"`
	Duration     time.Duration    `json:"duration"`
	CreatedAt    time.Time        `json:"created_at"`
}
