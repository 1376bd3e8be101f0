package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UpstreamError is a non-2xx response from the chat completion service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

type streamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type streamRequest struct {
	Model         string          `json:"model"`
	Messages      []streamMessage `json:"messages"`
	MaxTokens     int             `json:"max_tokens"`
	Temperature   float32         `json:"temperature"`
	Stream        bool            `json:"stream"`
	StreamOptions streamOptions   `json:"stream_options"`
}

// OpenStream starts a streaming chat completion and hands back the raw
// response body. The upstream's own SSE framing is preserved so the caller
// can relay it byte for byte. Cancelling ctx aborts the upstream request.
func (c *Client) OpenStream(ctx context.Context, systemPrompt, query string) (io.ReadCloser, error) {
	payload, err := json.Marshal(streamRequest{
		Model: c.cfg.OpenAI.Model,
		Messages: []streamMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
		MaxTokens:     maxAnswerTokens,
		Temperature:   answerTemperature,
		Stream:        true,
		StreamOptions: streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.OpenAI.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAI.Token)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach upstream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		return nil, &UpstreamError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return resp.Body, nil
}
