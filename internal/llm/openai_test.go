package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClientComplete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"llama3",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"patched"}}],
			"usage":{"prompt_tokens":90,"completion_tokens":30,"total_tokens":120}}`)
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, srv.Client())
	resp, err := client.Complete(context.Background(), Request{Model: "llama3", System: "be terse", Prompt: "fix it"})

	require.NoError(t, err)
	assert.Equal(t, "patched", resp.Content)
	assert.Equal(t, 120, resp.TokensUsed)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "llama3", body["model"])
	messages, _ := body["messages"].([]any)
	assert.Len(t, messages, 2)
}

func TestOpenAIClientStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	client := NewOpenAIClient("k", srv.URL, srv.Client())
	_, err := client.Complete(context.Background(), Request{Model: "m", Prompt: "p"})

	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.Equal(t, 0, StatusCode(context.Canceled))
}

func TestMockClientScriptedErrors(t *testing.T) {
	boom := assert.AnError
	m := NewMockClient(boom)

	_, err := m.Complete(context.Background(), Request{Prompt: "a"})
	assert.ErrorIs(t, err, boom)

	resp, err := m.Complete(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Positive(t, resp.TokensUsed)
	assert.Equal(t, 2, m.Calls())
	assert.Len(t, m.Requests(), 2)
}
