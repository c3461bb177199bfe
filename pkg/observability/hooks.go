package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/clocktower/pkg/domain"
)

// Aggregate combines several hook sets into one that calls each in order.
func Aggregate(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var onEvent []func(context.Context, domain.Event)
	var onDecision []func(context.Context, domain.DecisionEvent)
	for _, h := range hooks {
		if h.OnEvent != nil {
			onEvent = append(onEvent, h.OnEvent)
		}
		if h.OnDecision != nil {
			onDecision = append(onDecision, h.OnDecision)
		}
	}

	var out domain.LifecycleHooks
	if len(onEvent) > 0 {
		out.OnEvent = func(ctx context.Context, evt domain.Event) {
			for _, fn := range onEvent {
				fn(ctx, evt)
			}
		}
	}
	if len(onDecision) > 0 {
		out.OnDecision = func(ctx context.Context, evt domain.DecisionEvent) {
			for _, fn := range onDecision {
				fn(ctx, evt)
			}
		}
	}
	return out
}

// DebugHooks logs every decision round-trip, and every degraded or rejected action.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvent: func(ctx context.Context, evt domain.Event) {
			switch evt.Type {
			case domain.EventDecisionDegraded, domain.EventActionRejected:
				logger.DebugContext(ctx, "action fell back",
					"seq", evt.Seq, "type", evt.Type, "seat", evt.Actor, "reason", evt.Reason)
			}
		},
		OnDecision: func(ctx context.Context, evt domain.DecisionEvent) {
			logger.DebugContext(ctx, "decision",
				"seat", evt.Seat,
				"kind", evt.Kind,
				"attempt", evt.Attempt,
				"outcome", evt.Outcome,
				"duration", evt.Duration,
			)
		},
	}
}
