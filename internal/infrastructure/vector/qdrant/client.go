package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/resilience"
)

// client holds the HTTP plumbing shared by the dense and keyword indexes.
// The retrieval engine only reads from qdrant; ingestion owns the
// collection layout (a dense default vector plus a "lexical" sparse one).
type client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

func newClient(baseURL, collection string, executor *resilience.Executor) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		executor:   executor,
	}
}

type queryPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (c *client) queryPoints(ctx context.Context, operation string, reqBody map[string]any) ([]queryPoint, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", operation, err)
	}

	var points []queryPoint
	fn := func(callCtx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant %s request: %w", operation, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &statusError{
				Operation:  operation,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(respBody)),
			}
		}

		var queryResp struct {
			Result struct {
				Points []queryPoint `json:"points"`
			} `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		points = queryResp.Result.Points
		return nil
	}

	if c.executor == nil {
		err = fn(ctx)
	} else {
		err = c.executor.Execute(ctx, "qdrant."+operation, fn, classifyQdrantError)
	}
	if err != nil {
		return nil, err
	}
	return points, nil
}

func hitsFromPoints(points []queryPoint) []domain.ScoredHit {
	out := make([]domain.ScoredHit, 0, len(points))
	for _, p := range points {
		passage := domain.Passage{
			ID:   getStringPayload(p.Payload, "passage_id"),
			Text: getStringPayload(p.Payload, "text"),
			Source: map[string]string{
				"filename":    getStringPayload(p.Payload, "filename"),
				"source_path": getStringPayload(p.Payload, "source_path"),
				"chunk_index": getStringPayload(p.Payload, "chunk_index"),
			},
		}
		if passage.ID == "" && p.ID != nil {
			passage.ID = fmt.Sprintf("%v", p.ID)
		}
		out = append(out, domain.ScoredHit{
			Passage: passage,
			Score:   p.Score,
		})
	}
	return out
}

type statusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
