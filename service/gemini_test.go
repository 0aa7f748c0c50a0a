package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

// embedResponse 同时带上单条与批量两种响应结构
func embedResponse(values ...float64) map[string]any {
	emb := map[string]any{"values": values}
	return map[string]any{"embedding": emb, "embeddings": []any{emb}}
}

func newTestGemini(t *testing.T, url string, opts ...GeminiOption) *GeminiEmbedder {
	t.Helper()
	e, err := NewGeminiEmbedder(context.Background(), "test-key", append([]GeminiOption{WithGeminiBaseURL(url)}, opts...)...)
	require.NoError(t, err)
	return e
}

func TestGeminiEmbedderEmbed(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "models/text-embedding-004")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		data, _ := json.Marshal(raw)
		body = string(data)
		_ = json.NewEncoder(w).Encode(embedResponse(0.5, 0.25, 0.125))
	}))
	defer srv.Close()

	e := newTestGemini(t, srv.URL, WithGeminiDimension(3))
	vec, err := e.Embed(context.Background(), "optimization")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25, 0.125}, vec)
	assert.Equal(t, 3, e.Dimension())

	assert.Contains(t, body, "optimization")
	assert.Contains(t, body, "RETRIEVAL_QUERY")
	assert.Contains(t, body, `"outputDimensionality":3`)
}

func TestGeminiEmbedderErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"server error is unavailable", http.StatusBadGateway, core.IsUnavailable},
		{"overloaded is unavailable", http.StatusServiceUnavailable, core.IsUnavailable},
		{"rate limit is unavailable", http.StatusTooManyRequests, core.IsUnavailable},
		{"bad key is configuration", http.StatusForbidden, core.IsConfiguration},
		{"unknown model is configuration", http.StatusNotFound, core.IsConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"FAILED"}}`, tt.status)
			}))
			defer srv.Close()

			_, err := newTestGemini(t, srv.URL).Embed(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestGeminiEmbedderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestGemini(t, url).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err), err.Error())
}

func TestGeminiEmbedderCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse(1))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestGemini(t, srv.URL).Embed(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsUnavailable(err))
}

func TestGeminiEmbedderEmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse())
	}))
	defer srv.Close()

	_, err := newTestGemini(t, srv.URL).Embed(context.Background(), "x")
	assert.True(t, core.IsUnavailable(err))
}

func TestNewGeminiEmbedderRequiresKey(t *testing.T) {
	_, err := NewGeminiEmbedder(context.Background(), "", WithGeminiBaseURL("http://localhost"))
	require.Error(t, err)
	assert.True(t, core.IsConfiguration(err))
}
