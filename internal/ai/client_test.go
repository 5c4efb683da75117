package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/circuit"
	"arq/pkg/platform/sentinel"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]Option{WithHTTPClient(server.Client())}, opts...)
	return New(Config{
		APIURL:            server.URL + "/v1/chat/completions",
		APIKey:            "test-key",
		Model:             "test-model",
		Timeout:           time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, opts...)
}

func TestComplete_SendsRequestAndParsesResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "test-model", payload.Model)
		assert.Equal(t, 200, payload.MaxTokens)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, Message{Role: "system", Content: "be brief"}, payload.Messages[0])
		assert.Equal(t, Message{Role: "user", Content: "hello"}, payload.Messages[1])
		require.NotNil(t, payload.ResponseFormat)
		assert.Equal(t, "json_object", payload.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hi there "},"finish_reason":"stop"}]}`))
	})

	text, err := client.Complete(context.Background(), Prompt{System: "be brief", User: "hello", MaxTokens: 200, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestComplete_ConversationReplacesUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Messages, 3)
		assert.Equal(t, "assistant", payload.Messages[1].Role)
		assert.Nil(t, payload.ResponseFormat)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := client.Complete(context.Background(), Prompt{Messages: []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "pricing?"},
	}})
	require.NoError(t, err)
}

func TestComplete_NotConfigured(t *testing.T) {
	client := New(Config{APIURL: "https://example.invalid", APIKey: "  "})
	assert.False(t, client.Configured())

	_, err := client.Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotConfigured))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestComplete_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"non-2xx", http.StatusInternalServerError, `{"error":"boom"}`, "AI request failed"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "AI request failed"},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, "AI request failed"},
		{"garbage", http.StatusOK, `not json`, "AI request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Complete(context.Background(), Prompt{User: "hi"})
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComplete_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.cfg.Timeout = 50 * time.Millisecond

	_, err := client.Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestComplete_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	breaker := circuit.New("ai", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithBreaker(breaker))

	for range 2 {
		_, err := client.Complete(context.Background(), Prompt{User: "hi"})
		require.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
	}

	_, err := client.Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}
