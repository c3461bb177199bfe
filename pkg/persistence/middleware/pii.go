package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type piiMiddleware struct {
	next     ports.EventStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the parts of event texts
// (statements, whispers, degraded reasons) matching any of the patterns before
// they are stored. The engine's own copy of the events is left untouched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.EventStore) ports.EventStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Append(ctx context.Context, gameID string, events ...domain.Event) error {
	masked := make([]domain.Event, len(events))
	for i, evt := range events {
		evt.Text = m.mask(evt.Text)
		evt.Reason = m.mask(evt.Reason)
		masked[i] = evt
	}
	return m.next.Append(ctx, gameID, masked...)
}

func (m *piiMiddleware) Load(ctx context.Context, gameID string) ([]domain.Event, error) {
	return m.next.Load(ctx, gameID)
}

func (m *piiMiddleware) Delete(ctx context.Context, gameID string) error {
	return m.next.Delete(ctx, gameID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(s string) string {
	if s == "" {
		return s
	}
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
