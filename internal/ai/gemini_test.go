package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiTestClient(serverURL string, maxAttempts int) *GeminiClient {
	return NewGeminiClient(GeminiConfig{
		APIKey:      "test-key",
		BaseURL:     serverURL,
		Model:       "gemini-2.0-flash",
		Timeout:     5 * time.Second,
		MaxAttempts: maxAttempts,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func candidateResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
}

func TestGeminiClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gc, ok := req["generationConfig"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "application/json", gc["responseMimeType"])

		json.NewEncoder(w).Encode(candidateResponse(`{"ok":true}`))
	}))
	defer server.Close()

	got, err := geminiTestClient(server.URL, 3).Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)
}

func TestGeminiClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(candidateResponse("recovered"))
	}))
	defer server.Close()

	got, err := geminiTestClient(server.URL, 3).Complete(context.Background(), "", "user")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiClient_NoRetryOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := geminiTestClient(server.URL, 3).Complete(context.Background(), "", "user")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiClient_MissingAPIKey(t *testing.T) {
	client := NewGeminiClient(GeminiConfig{}, nil)
	_, err := client.Complete(context.Background(), "", "user")
	assert.Error(t, err)
}

func TestGeminiClient_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	_, err := geminiTestClient(server.URL, 1).Complete(context.Background(), "", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion")
}

func TestGeminiClient_RetryBudgetCoversAllAttempts(t *testing.T) {
	client := geminiTestClient("http://unused", 3)

	// Three attempts at the 5s request timeout plus 1s+2s of backoff.
	assert.Equal(t, 18*time.Second, client.retryBudget())

	single := geminiTestClient("http://unused", 1)
	assert.Equal(t, 5*time.Second, single.retryBudget())
}
