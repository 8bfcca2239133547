package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/infrastructure/resilience"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"

	upsertBatchSize = 128
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	exec       *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       exec,
	}
}

// ReplaceEvidence rebuilds the collection from scratch so stale points from
// the previous ingestion run cannot leak into search results.
func (c *Client) ReplaceEvidence(ctx context.Context, items []domain.EvidenceItem, vectors [][]float32) error {
	if len(items) != len(vectors) {
		return fmt.Errorf("evidence/vectors mismatch: %d items, %d vectors", len(items), len(vectors))
	}
	if len(items) == 0 {
		return nil
	}

	if err := c.recreateCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	for start := 0; start < len(items); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(items) {
			end = len(items)
		}

		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			item := items[i]
			payload := map[string]any{
				"text": item.Content,
			}
			for key, value := range item.Metadata {
				if value != "" {
					payload[key] = value
				}
			}
			points = append(points, point{
				ID: uuid.NewString(),
				Vector: map[string]any{
					denseVectorName:  vectors[i],
					sparseVectorName: encodeSparseDocument(item.Content, item.Metadata[domain.MetaSection]),
				},
				Payload: payload,
			})
		}

		url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
		if err := c.doJSON(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter *domain.SectionFilter,
) ([]domain.EvidenceItem, error) {
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   denseVectorName,
			"vector": queryVector,
		},
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil && len(filter.Sections) > 0 {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": domain.MetaSection,
					"match": map[string]any{
						"any": filter.Sections,
					},
				},
			},
		}
	}

	return c.searchPoints(ctx, reqBody, "search")
}

func (c *Client) SearchLexical(ctx context.Context, query string, limit int) ([]domain.EvidenceItem, error) {
	sparse := encodeSparseQuery(query)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   sparseVectorName,
			"vector": sparse,
		},
		"limit":        limit,
		"with_payload": true,
	}
	return c.searchPoints(ctx, reqBody, "lexical search")
}

func (c *Client) searchPoints(ctx context.Context, reqBody map[string]any, operation string) ([]domain.EvidenceItem, error) {
	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.doJSON(ctx, http.MethodPost, url, reqBody, &searchResp, operation); err != nil {
		return nil, err
	}

	out := make([]domain.EvidenceItem, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		item := domain.EvidenceItem{
			Content:  getStringPayload(r.Payload, "text"),
			Score:    r.Score,
			Metadata: map[string]string{},
		}
		for _, key := range []string{
			domain.MetaSection,
			domain.MetaSubsection,
			domain.MetaCourseCode,
			domain.MetaCourseCodeNormalized,
			domain.MetaSourceFile,
		} {
			if value := getStringPayload(r.Payload, key); value != "" {
				item.Metadata[key] = value
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) recreateCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)

	// Dropping a collection that does not exist yet is fine.
	if err := c.doJSON(ctx, http.MethodDelete, url, nil, nil, "drop collection"); err != nil {
		var statusErr *statusError
		if !asStatusError(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			return err
		}
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}
	if err := c.doJSON(ctx, http.MethodPut, url, reqBody, nil, "create collection"); err != nil {
		return err
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload any, out any, operation string) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
	}

	call := func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &statusError{
				Operation:  operation,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(msg)),
			}
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}

	var err error
	if c.exec != nil {
		err = c.exec.Do(ctx, "qdrant_"+strings.ReplaceAll(operation, " ", "_"), classifyQdrantError, call)
	} else {
		err = call(ctx)
	}
	if err != nil && (classifyQdrantError(err).Retry || resilience.IsCircuitOpen(err)) {
		return domain.WrapError(domain.ErrTemporary, "qdrant "+operation, err)
	}
	return err
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
