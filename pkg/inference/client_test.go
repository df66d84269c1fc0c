package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theokoles7/parcus/pkg/config"
	"github.com/theokoles7/parcus/pkg/models/core"
)

func newClient(url string, retries int) *Client {
	return New(config.Inference{Endpoint: url + "/v1/", APIKey: "secret", Timeout: 5, Retries: retries})
}

func TestComplete(t *testing.T) {
	var received CompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","choices":[{"text":" 12 + 30 = 42\n#### 42","finish_reason":"length"}],"usage":{"prompt_tokens":20,"completion_tokens":64}}`))
	}))
	defer srv.Close()

	out, err := newClient(srv.URL, 0).Complete(context.Background(), core.Request{
		Model:     "Qwen/Qwen2.5-7B-Instruct",
		Prompt:    "What is 12 + 30?",
		MaxTokens: 64,
		Seed:      1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Qwen/Qwen2.5-7B-Instruct", received.Model)
	assert.Equal(t, 64, received.MaxTokens)
	assert.Equal(t, 1, received.Seed)
	assert.Equal(t, " 12 + 30 = 42\n#### 42", out.Text)
	assert.Equal(t, 64, out.CompletionTokens)
	assert.Equal(t, "length", out.FinishReason)
}

func TestComplete_OmitsUnsetBudget(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"text":"ok","finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 0).Complete(context.Background(), core.Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)

	assert.NotContains(t, raw, "max_tokens")
	assert.Contains(t, raw, "temperature")
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 0).Complete(context.Background(), core.Request{Model: "missing", Prompt: "p"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "model not found", apiErr.Message)
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"text":"done","finish_reason":"stop"}],"usage":{"completion_tokens":1}}`))
	}))
	defer srv.Close()

	out, err := newClient(srv.URL, 1).Complete(context.Background(), core.Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "done", out.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 0).Complete(context.Background(), core.Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "flat", errorMessage([]byte(`{"error":"flat"}`)))
	assert.Equal(t, "top", errorMessage([]byte(`{"message":"top"}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text")))
}
