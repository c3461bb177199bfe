package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
)

// Middleware wraps a decision provider with a cross-cutting policy.
type Middleware func(next ports.DecisionProvider) ports.DecisionProvider

// Chain wraps p with the middlewares; the first one is the outermost.
func Chain(p ports.DecisionProvider, mws ...Middleware) ports.DecisionProvider {
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i](p)
	}
	return p
}

// freeTextFields are the decision fields that carry participant-authored text.
var freeTextFields = []string{"text", "notes"}

// SanitizeMiddleware cleans the free text of every decision. A decision whose
// text cannot be cleaned is turned into a provider error, so the engine retries it.
func SanitizeMiddleware() Middleware {
	return func(next ports.DecisionProvider) ports.DecisionProvider {
		return ports.DecisionFunc(func(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
			d, err := next.RequestAction(ctx, req)
			if err != nil || d == nil {
				return d, err
			}
			out := make(domain.Decision, len(d))
			for k, v := range d {
				out[k] = v
			}
			for _, field := range freeTextFields {
				s, ok := out[field].(string)
				if !ok {
					continue
				}
				clean, err := SanitizeInput(s)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", field, err)
				}
				out[field] = clean
			}
			return out, nil
		})
	}
}

// LoggingMiddleware logs every round-trip at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.DecisionProvider) ports.DecisionProvider {
		return ports.DecisionFunc(func(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
			start := time.Now()
			d, err := next.RequestAction(ctx, req)
			logger.Debug("decision",
				"seat", req.Seat,
				"kind", req.Schema.Kind,
				"attempt", req.Attempt,
				"duration", time.Since(start),
				"decision", d,
				"err", err,
			)
			return d, err
		})
	}
}
