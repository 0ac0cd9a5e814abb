package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

// DefaultPIIPatterns match e-mail addresses, phone numbers and SSN-like identifiers.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\b\d{3}-\d{2}-\d{4}\b`,
	`\+?\d[\d\s().\-]{7,}\d`,
}

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks free text matching the patterns
// before it is persisted: audit details, notification messages and string step arguments.
// Structured patient fields are left as they are.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.JourneyState) error {
	// The engine keeps using the unmasked state in memory.
	cloned := state.Clone()

	for i := range cloned.EventHistory {
		cloned.EventHistory[i].Detail = m.mask(cloned.EventHistory[i].Detail)
	}
	for i := range cloned.Notifications {
		cloned.Notifications[i].Message = m.mask(cloned.Notifications[i].Message)
	}
	for i := range cloned.PendingSteps {
		for k, v := range cloned.PendingSteps[i].Args {
			if s, ok := v.(string); ok {
				cloned.PendingSteps[i].Args[k] = m.mask(s)
			}
		}
	}

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
