package azopenai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/deployments/text-embedding-3-large/embeddings", r.URL.Path)
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"chunk one", "chunk two"}, req.Input)
		assert.Equal(t, 3072, req.Dimensions)

		json.NewEncoder(w).Encode(EmbedResponse{
			Data: []Embedding{
				{Index: 0, Embedding: []float64{0.1, 0.2}},
				{Index: 1, Embedding: []float64{0.3, 0.4}},
			},
			Usage: Usage{PromptTokens: 8, TotalTokens: 8},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, "text-embedding-3-large", WithDimensions(3072))
	got, err := client.Embed(context.Background(), []string{"chunk one", "chunk two"})

	require.NoError(t, err)
	require.Len(t, got.Data, 2)
	assert.Equal(t, []float64{0.3, 0.4}, got.Data[1].Embedding)
	assert.Equal(t, 8, got.Usage.PromptTokens)
}

func TestEmbed_EmptyInput(t *testing.T) {
	t.Parallel()

	client := NewClient("test-key", "http://unused", "dep")
	got, err := client.Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got.Data)
}

func TestEmbed_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbedResponse{Data: []Embedding{{Index: 0}}})
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, "dep")
	_, err := client.Embed(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 inputs")
}

func TestEmbed_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(EmbedResponse{Data: []Embedding{{Index: 0, Embedding: []float64{0.5}}}})
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, "dep")
	got, err := client.Embed(context.Background(), []string{"a"})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, got.Data, 1)
}

func TestEmbed_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, "dep")
	_, err := client.Embed(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestEmbed_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", srv.URL, "dep")
	_, err := client.Embed(ctx, []string{"a"})

	require.Error(t, err)
}
