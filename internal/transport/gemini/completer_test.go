package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func newTestCompleter(t *testing.T, url string) *Completer {
	t.Helper()
	c, err := NewCompleter(context.Background(), &Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "gemini-test",
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func TestNewCompleter_RequiresKey(t *testing.T) {
	_, err := NewCompleter(context.Background(), &Config{})
	require.Error(t, err)
}

func TestCompleter_Complete(t *testing.T) {
	server := newTestServer(t, http.StatusOK, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": `{"keywords": ["a"]}`}},
			},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     10,
			"candidatesTokenCount": 5,
			"totalTokenCount":      15,
		},
	})
	defer server.Close()

	res, err := newTestCompleter(t, server.URL).Complete(context.Background(), domain.CompletionRequest{
		System: "json only",
		Prompt: "suggest",
		JSON:   true,
	})
	require.NoError(t, err)
	require.Equal(t, `{"keywords": ["a"]}`, res.Text)
	require.Equal(t, "gemini-test", res.Model)
	require.Equal(t, 15, res.TotalTokens)
	require.Equal(t, 5, res.CompletionTokens)
}

func TestCompleter_RateLimited(t *testing.T) {
	server := newTestServer(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"},
	})
	defer server.Close()

	_, err := newTestCompleter(t, server.URL).Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})

	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestCompleter_EmptyResponse(t *testing.T) {
	server := newTestServer(t, http.StatusOK, map[string]any{"candidates": []any{}})
	defer server.Close()

	_, err := newTestCompleter(t, server.URL).Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})

	require.ErrorIs(t, err, domain.ErrLLMProviderError)
}
