package chat

import (
	"context"
	"io"
	"portfolio/app/client/llm"
	"portfolio/app/service/prompt"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

// Service fronts the upstream chat completion service: it assembles the
// system prompt for a query and forwards the call, either as one blocking
// completion or as a raw token stream.
type Service struct {
	llmClient *llm.Client
	promptSvc *prompt.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		llmClient: do.MustInvoke[*llm.Client](di),
		promptSvc: do.MustInvoke[*prompt.Service](di),
	}, nil
}

func NewWithDeps(llmClient *llm.Client, promptSvc *prompt.Service) *Service {
	return &Service{llmClient: llmClient, promptSvc: promptSvc}
}

func (s *Service) Configured() bool {
	return s.llmClient.Configured()
}

func (s *Service) Ask(ctx context.Context, query, relevantChunks string, userHistory []prompt.HistoryEntry) (string, openai.Usage, error) {
	systemPrompt := s.promptSvc.BuildSystemPrompt(relevantChunks, userHistory)

	return s.llmClient.Complete(ctx, systemPrompt, query)
}

// OpenStream starts a streaming completion. The returned body carries the
// upstream's own SSE frames and must be closed by the caller.
func (s *Service) OpenStream(ctx context.Context, query, relevantChunks string, userHistory []prompt.HistoryEntry) (io.ReadCloser, error) {
	systemPrompt := s.promptSvc.BuildSystemPrompt(relevantChunks, userHistory)

	return s.llmClient.OpenStream(ctx, systemPrompt, query)
}
