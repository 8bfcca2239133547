// Package crossenc calls an external cross-encoder service that scores
// (query, passage) pairs jointly. It speaks the text-embeddings-inference
// rerank protocol: POST /rerank with query and texts, index-scored reply.
package crossenc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL, model string, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       exec,
	}
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// ScorePairs scores every text against the query in one call. The result
// is index-aligned with texts regardless of the order the service
// returns scores in.
func (c *Client) ScorePairs(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	var ranked []rerankScore
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create rerank request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("reranker request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &statusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(msg))}
		}

		ranked = ranked[:0]
		if err := json.NewDecoder(resp.Body).Decode(&ranked); err != nil {
			return fmt.Errorf("decode rerank response: %w", err)
		}
		return nil
	}

	if c.exec != nil {
		err = c.exec.Do(ctx, "rerank", classifyRerankError, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if classifyRerankError(err).Retry || resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrTemporary, "rerank", err)
		}
		return nil, err
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, entry := range ranked {
		if entry.Index < 0 || entry.Index >= len(texts) {
			return nil, fmt.Errorf("rerank response index %d out of range for %d texts", entry.Index, len(texts))
		}
		scores[entry.Index] = entry.Score
		seen[entry.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank response missing score for text %d", i)
		}
	}
	return scores, nil
}
