package prompt

import (
	"fmt"
	"portfolio/app/service/inference"
	"strings"
	"time"

	_ "embed"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

//go:embed system_prompt.txt
var systemPromptTemplate string

const noHistoryMarker = "The visitor has not browsed any sections yet."

// HistoryEntry is one page or section the visitor opened, newest last.
type HistoryEntry struct {
	Title string `json:"title"`
}

type Service struct {
	inferenceSvc *inference.Service
	now          func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		inferenceSvc: do.MustInvoke[*inference.Service](di),
		now:          time.Now,
	}, nil
}

func NewWithDeps(inferenceSvc *inference.Service, now func() time.Time) *Service {
	return &Service{inferenceSvc: inferenceSvc, now: now}
}

// BuildSystemPrompt composes the assistant's system prompt. Section order is
// part of the contract with the model: rules first, then history, then the
// retrieved context, then the derived inference block.
func (s *Service) BuildSystemPrompt(relevantChunks string, userHistory []HistoryEntry) string {
	titles := pie.Map(userHistory, func(e HistoryEntry) string {
		return strings.TrimSpace(e.Title)
	})
	titles = pie.Filter(titles, func(t string) bool {
		return t != ""
	})

	historySummary := noHistoryMarker
	if len(titles) > 0 {
		historySummary = strings.Join(titles, ", ")
	}

	contextBlock := strings.TrimSpace(relevantChunks)
	if contextBlock == "" {
		contextBlock = inference.NoContextMarker
	}

	templateValues := map[string]any{
		"current_date": s.now().Format("Monday, January 2, 2006"),
		"user_history": historySummary,
		"context":      contextBlock,
		"inferences":   s.inferenceSvc.Derive(contextBlock),
	}

	result := systemPromptTemplate
	for key, value := range templateValues {
		result = strings.ReplaceAll(result, "{"+key+"}", fmt.Sprint(value))
	}

	return strings.TrimSpace(result)
}
