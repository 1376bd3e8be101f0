package llm

import (
	"context"
	"fmt"
	"net/http"
	"portfolio/app/config"
	"strings"
	"time"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

const (
	maxAnswerTokens   = 600
	answerTemperature = 0.7
	completionTimeout = 30 * time.Second
)

type Client struct {
	cfg *config.Config
	api *openai.Client

	// separate client without a timeout, streamed responses outlive 30s
	streamClient *http.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	return newClient(do.MustInvoke[*config.Config](di)), nil
}

func newClient(cfg *config.Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.OpenAI.Token)
	clientConfig.BaseURL = cfg.OpenAI.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: completionTimeout,
	}

	return &Client{
		cfg:          cfg,
		api:          openai.NewClientWithConfig(clientConfig),
		streamClient: &http.Client{},
	}
}

// Configured reports whether an upstream credential is present. Handlers
// surface a misconfiguration error instead of calling upstream without one.
func (c *Client) Configured() bool {
	return c.cfg.OpenAI.Token != ""
}

// Complete issues a single chat completion and returns the first choice's
// text together with the upstream's token usage accounting.
func (c *Client) Complete(ctx context.Context, systemPrompt, query string) (string, openai.Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	aiResponse, err := c.api.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.cfg.OpenAI.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: query,
				},
			},
			MaxCompletionTokens: maxAnswerTokens,
			Temperature:         answerTemperature,
		},
	)
	if err != nil {
		return "", openai.Usage{}, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", openai.Usage{}, fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(aiResponse.Choices[0].Message.Content), aiResponse.Usage, nil
}
