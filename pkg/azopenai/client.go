// Package azopenai provides a client for the Azure OpenAI embeddings
// endpoint.
package azopenai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultAPIVersion = "2024-02-01"

// Client produces embeddings for text inputs.
type Client interface {
	// Embed returns one embedding per input, in input order.
	Embed(ctx context.Context, inputs []string) (*EmbedResponse, error)
}

// EmbedResponse is the parsed embeddings response.
type EmbedResponse struct {
	Data  []Embedding `json:"data"`
	Usage Usage       `json:"usage"`
}

// Embedding is a single embedding vector.
type Embedding struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type embedRequest struct {
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithAPIVersion overrides the default API version.
func WithAPIVersion(v string) Option {
	return func(c *httpClient) {
		c.apiVersion = v
	}
}

// WithDimensions requests reduced-dimension embeddings.
func WithDimensions(d int) Option {
	return func(c *httpClient) {
		c.dimensions = d
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey     string
	endpoint   string
	deployment string
	apiVersion string
	dimensions int
	http       *http.Client
}

// NewClient creates an Azure OpenAI embeddings client bound to one
// deployment, e.g. endpoint "https://myorg.openai.azure.com" and
// deployment "text-embedding-3-large".
func NewClient(apiKey, endpoint, deployment string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		deployment: deployment,
		apiVersion: defaultAPIVersion,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *httpClient) Embed(ctx context.Context, inputs []string) (*EmbedResponse, error) {
	if len(inputs) == 0 {
		return &EmbedResponse{}, nil
	}

	reqBody, err := json.Marshal(embedRequest{Input: inputs, Dimensions: c.dimensions})
	if err != nil {
		return nil, eris.Wrap(err, "azopenai: marshal request")
	}

	reqURL := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(reqBody))
		if err != nil {
			return nil, eris.Wrap(err, "azopenai: create request")
		}
		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, eris.Wrap(lastErr, "azopenai: request failed")
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "azopenai: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("azopenai: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("azopenai: unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var result EmbedResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, eris.Wrap(err, "azopenai: unmarshal response")
		}
		if len(result.Data) != len(inputs) {
			return nil, eris.Errorf("azopenai: got %d embeddings for %d inputs", len(result.Data), len(inputs))
		}
		return &result, nil
	}

	return nil, eris.Wrap(lastErr, "azopenai: request failed")
}
