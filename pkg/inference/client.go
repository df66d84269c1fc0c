// Package inference talks to an OpenAI-compatible completions server such as
// vLLM or llama.cpp's server.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/theokoles7/parcus/pkg/config"
	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/logging"
	"github.com/theokoles7/parcus/pkg/models/core"
)

var ErrNoChoices = errors.New("completion response has no choices")

type CompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
	Seed        int     `json:"seed,omitempty"`
}

type CompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference server returned status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	http     *retryablehttp.Client
	endpoint string
	apiKey   string
	log      *logrus.Entry
}

func New(cfg config.Inference) *Client {
	log := logging.Get("inference")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(cfg.Retries, 0)
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = logging.Leveled{Entry: log}
	retryClient.HTTPClient.Timeout = time.Duration(cfg.Timeout) * time.Second
	retryClient.HTTPClient.Transport = &hub.LoggingTransport{
		Transport: retryClient.HTTPClient.Transport,
		Log:       log,
	}

	return &Client{
		http:     retryClient,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		log:      log,
	}
}

// Complete implements core.Backend.
func (c *Client) Complete(ctx context.Context, req core.Request) (*core.Completion, error) {
	body, err := json.Marshal(CompletionRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "parcus")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var out CompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, ErrNoChoices
	}

	c.log.Debugf("%s completed %d prompt + %d completion tokens (%s)",
		req.Model, out.Usage.PromptTokens, out.Usage.CompletionTokens, out.Choices[0].FinishReason)

	return &core.Completion{
		Text:             out.Choices[0].Text,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		FinishReason:     out.Choices[0].FinishReason,
	}, nil
}

// errorMessage pulls the message out of either {"error": {"message": ...}}
// or {"message": ...} bodies, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		var nested struct {
			Message string `json:"message"`
		}
		if len(body.Error) > 0 && json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if len(body.Error) > 0 && json.Unmarshal(body.Error, &flat) == nil && flat != "" {
			return flat
		}
		if body.Message != "" {
			return body.Message
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
