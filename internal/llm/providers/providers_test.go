package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/internal/llm/resilience"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BaseURL = baseURL
	cfg.LLM.Timeout = 5 * time.Second
	return cfg
}

func TestOpenAIProviderGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"job_item\":\"li\"}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(testConfig(srv.URL))
	text, err := p.Generate(context.Background(), "gpt-4o-mini", "find selectors", "<ul></ul>")
	require.NoError(t, err)

	assert.Equal(t, `{"job_item":"li"}`, text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "find selectors", got.Messages[0].Content)
	assert.Equal(t, "<ul></ul>", got.Messages[1].Content)
}

func TestOpenAIProviderRateLimitIsClassifiedAsQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider(testConfig(srv.URL)).Generate(context.Background(), "m", "p", "")
	require.Error(t, err)

	var apiErr *resilience.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, resilience.KindQuota, resilience.Classify(err))
}

func TestClaudeProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		var body map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "claude-test", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"job_item\": \"div.job\"}"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider(testConfig(srv.URL))
	text, err := p.Generate(context.Background(), "claude-test", "find selectors", "<div></div>")
	require.NoError(t, err)
	assert.Equal(t, `{"job_item": "div.job"}`, text)
}

func TestClaudeProviderConvertsStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Number of requests has exceeded your rate limit"}}`))
	}))
	defer srv.Close()

	_, err := NewClaudeProvider(testConfig(srv.URL)).Generate(context.Background(), "claude-test", "p", "m")
	require.Error(t, err)

	var apiErr *resilience.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, resilience.KindQuota, resilience.Classify(err))
}

func TestProvidersRequireAPIKeyForHealth(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = ""
	assert.Error(t, NewClaudeProvider(cfg).IsHealthy(context.Background()))
	assert.Error(t, NewOpenAIProvider(cfg).IsHealthy(context.Background()))
}
