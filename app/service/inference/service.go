package inference

import (
	"strings"
	"time"

	"github.com/samber/do"
)

// NoContextMarker is the placeholder the prompt builder inserts when
// retrieval produced nothing. The deriver treats it as empty input.
const NoContextMarker = "No context found."

const header = "DERIVED FACTS (pre-computed from the portfolio data above, treat as ground truth):"

// Service derives natural-language facts from retrieved context by running
// an ordered list of independent pattern rules. Rule order is fixed because
// several rules can fire on the same input and the concatenated output is
// read by humans and the model alike.
type Service struct {
	now   func() time.Time
	rules []Rule
}

func New(_ *do.Injector) (*Service, error) {
	return NewWithClock(time.Now), nil
}

func NewWithClock(now func() time.Time) *Service {
	return &Service{
		now: now,
		rules: []Rule{
			{Name: "open-interval", Apply: deriveOpenIntervals},
			{Name: "employment", Apply: deriveEmployment},
			{Name: "relationship", Apply: deriveRelationship},
			{Name: "graduation", Apply: deriveGraduation},
		},
	}
}

// Derive returns the inference block for the given context, or an empty
// string when nothing can be derived. It never fails: unparseable dates and
// non-matching patterns degrade to fewer sentences.
func (s *Service) Derive(context string) string {
	return s.DeriveAt(context, s.now())
}

func (s *Service) DeriveAt(context string, now time.Time) string {
	trimmed := strings.TrimSpace(context)
	if trimmed == "" || trimmed == NoContextMarker {
		return ""
	}

	var lines []string
	for _, rule := range s.rules {
		lines = append(lines, rule.Apply(context, now)...)
	}

	if len(lines) == 0 {
		return ""
	}

	return header + "\n" + strings.Join(lines, "\n")
}
