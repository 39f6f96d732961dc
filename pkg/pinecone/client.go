// Package pinecone provides a client for the Pinecone vector index
// data plane (query, upsert, delete, stats).
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Pinecone index operations used by ingestion and
// retrieval.
type Client interface {
	// Query returns the top-k nearest vectors in a namespace.
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
	// Upsert writes vectors into a namespace.
	Upsert(ctx context.Context, req UpsertRequest) (*UpsertResponse, error)
	// DeleteByFilter removes all vectors in a namespace matching a
	// metadata filter.
	DeleteByFilter(ctx context.Context, namespace string, filter map[string]any) error
	// Stats describes the index (vector counts per namespace).
	Stats(ctx context.Context) (*StatsResponse, error)
}

// Vector is one embedding plus its metadata payload.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryRequest is the body for POST /query.
type QueryRequest struct {
	Namespace       string         `json:"namespace,omitempty"`
	Vector          []float64      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata"`
}

// QueryResponse is the parsed response from POST /query.
type QueryResponse struct {
	Matches   []Match `json:"matches"`
	Namespace string  `json:"namespace"`
}

// Match is a single scored result.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpsertRequest is the body for POST /vectors/upsert.
type UpsertRequest struct {
	Namespace string   `json:"namespace,omitempty"`
	Vectors   []Vector `json:"vectors"`
}

// UpsertResponse reports how many vectors were written.
type UpsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// StatsResponse is the parsed response from POST /describe_index_stats.
type StatsResponse struct {
	Dimension        int                       `json:"dimension"`
	TotalVectorCount int                       `json:"totalVectorCount"`
	Namespaces       map[string]NamespaceStats `json:"namespaces"`
}

// NamespaceStats holds per-namespace counts.
type NamespaceStats struct {
	VectorCount int `json:"vectorCount"`
}

// Option configures the Pinecone client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey    string
	indexHost string
	http      *http.Client
}

// NewClient creates a client bound to one index host, e.g.
// "https://care-pilot-abc123.svc.us-east-1.pinecone.io".
func NewClient(apiKey, indexHost string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		indexHost: indexHost,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// post executes a JSON POST with exponential backoff retries on
// transient failures (429, 500, 502, 503).
func (c *httpClient) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, eris.Wrap(err, "pinecone: marshal request")
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexHost+path, bytes.NewReader(reqBody))
		if err != nil {
			return nil, 0, eris.Wrap(err, "pinecone: create request")
		}
		req.Header.Set("Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "pinecone: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("pinecone: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	body, statusCode, err := c.post(ctx, "/query", req)
	if err != nil {
		return nil, eris.Wrap(err, "pinecone: query request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("pinecone: query unexpected status %d: %s", statusCode, string(body))
	}

	var result QueryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pinecone: unmarshal query response")
	}
	return &result, nil
}

func (c *httpClient) Upsert(ctx context.Context, req UpsertRequest) (*UpsertResponse, error) {
	body, statusCode, err := c.post(ctx, "/vectors/upsert", req)
	if err != nil {
		return nil, eris.Wrap(err, "pinecone: upsert request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("pinecone: upsert unexpected status %d: %s", statusCode, string(body))
	}

	var result UpsertResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pinecone: unmarshal upsert response")
	}
	return &result, nil
}

func (c *httpClient) DeleteByFilter(ctx context.Context, namespace string, filter map[string]any) error {
	payload := map[string]any{
		"namespace": namespace,
		"filter":    filter,
	}
	body, statusCode, err := c.post(ctx, "/vectors/delete", payload)
	if err != nil {
		return eris.Wrap(err, "pinecone: delete request failed")
	}
	if statusCode != http.StatusOK {
		return eris.Errorf("pinecone: delete unexpected status %d: %s", statusCode, string(body))
	}
	return nil
}

func (c *httpClient) Stats(ctx context.Context) (*StatsResponse, error) {
	body, statusCode, err := c.post(ctx, "/describe_index_stats", map[string]any{})
	if err != nil {
		return nil, eris.Wrap(err, "pinecone: stats request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("pinecone: stats unexpected status %d: %s", statusCode, string(body))
	}

	var result StatsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pinecone: unmarshal stats response")
	}
	return &result, nil
}
