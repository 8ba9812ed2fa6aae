package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
)

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		Timeout:      time.Second,
		MaxAttempts:  3,
		BaseDelay:    20 * time.Millisecond,
		APIKey:       "key-123",
		SharedSecret: "s3cret",
		DefaultModel: ModelChatGPT,
		SystemPrompt: "Summarize the video.",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.AIConfig)) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testAIConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}
	registry := NewModelRegistry(map[string]string{ModelChatGPT: server.URL + "/summarize"}, cfg.DefaultModel)
	testLogger := logger.NewTestLogger()
	return NewClient(cfg, registry, server.Client(), testLogger), testLogger
}

func TestClient_Summarize(t *testing.T) {
	var got summaryPayload
	var headers http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"summary":"## Summary\nShort."}`))
	})

	text, err := client.Summarize(context.Background(), "", SummaryRequest{
		VideoID:    "abc12345678",
		Title:      "Caching",
		Transcript: "hello world",
		Language:   "en",
	})

	require.NoError(t, err)
	assert.Equal(t, "## Summary\nShort.", text)
	assert.Equal(t, "key-123", headers.Get(HeaderAPIKey))
	assert.Equal(t, "Bearer s3cret", headers.Get("Authorization"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))

	assert.Equal(t, "abc12345678", got.VideoID)
	assert.Equal(t, ModelChatGPT, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "Summarize the video.", got.Messages[0].Content)
	assert.Equal(t, RoleUser, got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "Title: Caching")
	assert.Contains(t, got.Messages[1].Content, "hello world")
}

func TestClient_NoAuthHeadersWhenUnset(t *testing.T) {
	var headers http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		w.Write([]byte("plain"))
	}, func(c *config.AIConfig) {
		c.APIKey = ""
		c.SharedSecret = ""
	})

	_, err := client.Summarize(context.Background(), ModelChatGPT, SummaryRequest{VideoID: "abc12345678"})

	require.NoError(t, err)
	assert.Empty(t, headers.Get(HeaderAPIKey))
	assert.Empty(t, headers.Get("Authorization"))
}

func TestClient_RetriesTransientStatuses(t *testing.T) {
	var calls atomic.Int32
	client, testLogger := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"content":"finally"}`))
	})

	start := time.Now()
	text, err := client.Summarize(context.Background(), ModelChatGPT, SummaryRequest{VideoID: "abc12345678"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "finally", text)
	assert.Equal(t, int32(3), calls.Load())
	base := testAIConfig().BaseDelay
	assert.GreaterOrEqual(t, elapsed, base+2*base)
	assert.Len(t, testLogger.EntriesAt("warn"), 2)
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","code":"rate_limited"}}`))
	})

	_, err := client.Summarize(context.Background(), ModelChatGPT, SummaryRequest{VideoID: "abc12345678"})

	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, http.StatusTooManyRequests, aiErr.HTTPStatusCode)
	assert.Equal(t, "slow down", aiErr.Message)
	assert.Equal(t, "rate_limited", aiErr.ErrorCode)
	assert.Equal(t, ModelChatGPT, aiErr.ModelName)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	})

	_, err := client.Summarize(context.Background(), ModelChatGPT, SummaryRequest{VideoID: "abc12345678"})

	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, http.StatusUnauthorized, aiErr.HTTPStatusCode)
	assert.Equal(t, "bad key", aiErr.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_TimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	}, func(c *config.AIConfig) {
		c.Timeout = 30 * time.Millisecond
	})

	_, err := client.Summarize(context.Background(), ModelChatGPT, SummaryRequest{VideoID: "abc12345678"})

	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Zero(t, aiErr.HTTPStatusCode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_InvalidModel(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("endpoint should not be called")
	})

	_, err := client.Summarize(context.Background(), "anthropic", SummaryRequest{})
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestAIError_Error(t *testing.T) {
	err := &AIError{ModelName: "chatgpt", HTTPStatusCode: 502, Message: "bad gateway"}
	assert.Equal(t, "502 [chatgpt] bad gateway", err.Error())
	assert.True(t, err.Retryable())
	assert.False(t, (&AIError{HTTPStatusCode: 400}).Retryable())
}
