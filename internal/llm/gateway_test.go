package llm

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

	"vitastate/internal/config"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGateway(config.LLMConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Model:     "test-model",
		Timeout:   timeout,
		MaxTokens: 2500,
	}, srv.Client())
}

func TestSendWithoutAPIKeyFailsFast(t *testing.T) {
	g := NewGateway(config.LLMConfig{}, nil)
	assert.False(t, g.Configured())

	res := g.Send(context.Background(), "sys", "user", DefaultTemperature)
	assert.False(t, res.OK())
	assert.Equal(t, ReasonNoAPIKey, res.Reason)
	assert.ErrorIs(t, res.Err, ErrNoAPIKey)
}

func TestSendParsesObjectAndEnforcesJSONFormat(t *testing.T) {
	var captured map[string]any
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(`{"insight":"Keep going."}`))
	}, time.Second)

	res := g.Send(context.Background(), "system prompt", "user prompt", 0.3)
	require.True(t, res.OK(), "unexpected failure: %v", res.Err)

	obj, ok := res.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Keep going.", obj["insight"])

	assert.Equal(t, "test-model", captured["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, captured["response_format"])
	assert.InDelta(t, 0.3, captured["temperature"], 1e-9)
	assert.EqualValues(t, 2500, captured["max_tokens"])

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestSendNon200IsHTTPErrorWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}, time.Second)

	res := g.Send(context.Background(), "sys", "user", DefaultTemperature)
	assert.Equal(t, ReasonHTTPError, res.Reason)
	assert.ErrorIs(t, res.Err, ErrUpstream)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSendTimeoutIsHTTPError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	res := g.Send(context.Background(), "sys", "user", DefaultTemperature)
	assert.Equal(t, ReasonHTTPError, res.Reason)
}

func TestSendMalformedContent(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(`Sure! Here is your plan: {"intro": `))
	}, time.Second)

	res := g.Send(context.Background(), "sys", "user", DefaultTemperature)
	assert.Equal(t, ReasonMalformedJSON, res.Reason)
	assert.ErrorIs(t, res.Err, ErrMalformedJSON)
	assert.Nil(t, res.Value)
}

func TestParseContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ok      bool
	}{
		{"object", `{"a":1}`, true},
		{"array", `[{"a":1}]`, true},
		{"padded object", "  \n{\"a\":1}\n", true},
		{"empty", "", false},
		{"scalar string", `"hello"`, false},
		{"number", `42`, false},
		{"truncated", `{"a":`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseContent(tt.content)
			assert.Equal(t, tt.ok, res.OK())
			if !tt.ok {
				assert.Equal(t, ReasonMalformedJSON, res.Reason)
			}
		})
	}
}
