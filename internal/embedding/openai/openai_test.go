package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unirag/internal/domain"
)

const keyEnv = "UNIRAG_TEST_OPENAI_KEY"

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv(keyEnv, "")
	_, err := NewClient(Config{APIKeyEnv: keyEnv})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	var ce *domain.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "embedder.openai.api_key_env", ce.Field)
	assert.Contains(t, err.Error(), "Umgebungsvariable "+keyEnv+" ist nicht gesetzt")
}

func TestEmbed_RetriesOnRateLimit(t *testing.T) {
	t.Setenv(keyEnv, "sk-test")
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3,0.4]}],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: keyEnv, MaxRetries: 2})
	require.NoError(t, err)
	c.baseDelay = time.Millisecond

	emb, err := c.Embed(context.Background(), "Prüfungsanmeldung")

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, emb.Vector, 4)
	assert.False(t, emb.Degenerate)
	assert.Equal(t, 4, c.Dimension())
}

func TestEmbed_ClientErrorIsNotRetried(t *testing.T) {
	t.Setenv(keyEnv, "sk-test")
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: keyEnv, MaxRetries: 3})
	require.NoError(t, err)
	c.baseDelay = time.Millisecond

	_, err = c.Embed(context.Background(), "text")

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryDelay_Capped(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(200*time.Millisecond, 0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(200*time.Millisecond, 1))
	assert.Equal(t, 5*time.Second, retryDelay(200*time.Millisecond, 10))
}

func TestRetryDelay_LargeAttemptsStayCapped(t *testing.T) {
	for _, attempt := range []int{35, 40, 63, 64, 1000} {
		assert.Equal(t, maxRetryDelay, retryDelay(200*time.Millisecond, attempt), "attempt %d", attempt)
	}
	assert.Equal(t, time.Duration(0), retryDelay(0, 100))
}
