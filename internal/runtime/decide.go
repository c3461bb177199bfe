package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// outcome is a settled decision. Degraded is set when the provider never produced
// a valid answer and the default was used instead.
type outcome[T any] struct {
	Seat     domain.Seat
	Kind     domain.ActionKind
	Value    T
	Degraded error
}

// decide asks the provider for a decision until one decodes and validates, up to
// MaxRetries extra attempts. It only returns an error when ctx itself is done.
func decide[T any](ctx context.Context, e *Engine, seat domain.Seat, schema domain.ActionSchema,
	initial func() T, validate func(T) error, fallback func() T,
) (outcome[T], error) {
	out := outcome[T]{Seat: seat, Kind: schema.Kind}
	view, err := e.View(seat)
	if err != nil {
		return out, err
	}

	var last error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		req := domain.DecisionRequest{Seat: seat, View: view, Schema: schema, Attempt: attempt}

		start := time.Now()
		raw, err := e.ask(ctx, req)
		result := domain.DecisionAccepted
		value := initial()
		switch {
		case errors.Is(err, domain.ErrDecisionTimeout):
			result = domain.DecisionTimeout
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			result = domain.DecisionFailed
		default:
			if err = decodeDecision(raw, &value); err == nil {
				err = validate(value)
			}
			if err != nil {
				result = domain.DecisionInvalid
			}
		}
		e.observeDecision(ctx, domain.DecisionEvent{
			Seat:     seat,
			Kind:     schema.Kind,
			Attempt:  attempt,
			Outcome:  result,
			Duration: time.Since(start),
		})

		if err == nil {
			out.Value = value
			return out, nil
		}
		last = err
		e.logger.Warn("decision rejected", "seat", seat, "kind", schema.Kind, "attempt", attempt, "err", err)
	}

	out.Value = fallback()
	out.Degraded = last
	return out, nil
}

// ask performs one bounded round-trip to the provider. A provider that ignores
// ctx cannot stall the engine: its late answer is dropped.
func (e *Engine) ask(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.cfg.DecisionTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, e.cfg.DecisionTimeout)
	}
	defer cancel()

	type answer struct {
		decision domain.Decision
		err      error
	}
	ch := make(chan answer, 1)
	go func() {
		d, err := e.provider.RequestAction(attemptCtx, req)
		ch <- answer{decision: d, err: err}
	}()

	timeout := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w after %s", domain.ErrDecisionTimeout, e.cfg.DecisionTimeout)
	}
	select {
	case a := <-ch:
		if a.err != nil && attemptCtx.Err() != nil {
			return nil, timeout()
		}
		return a.decision, a.err
	case <-attemptCtx.Done():
		return nil, timeout()
	}
}

func (e *Engine) observeDecision(ctx context.Context, evt domain.DecisionEvent) {
	for _, h := range e.hooks {
		if h.OnDecision != nil {
			h.OnDecision(ctx, evt)
		}
	}
}

// settle records a degraded decision in the log.
func (e *Engine) settle(ctx context.Context, seat domain.Seat, kind domain.ActionKind, degraded error) error {
	if degraded == nil {
		return nil
	}
	evt := domain.NewEvent(domain.EventDecisionDegraded, domain.VisibilityStoryteller)
	evt.Actor = seat
	evt.Text = string(kind)
	evt.Reason = degraded.Error()
	_, err := e.emit(ctx, evt)
	return err
}

func decodeDecision(raw domain.Decision, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any(raw)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDecision, err)
	}
	return nil
}

// chooseTargets asks an ability holder for its targets.
func (e *Engine) chooseTargets(ctx context.Context, seat domain.Seat, schema domain.ActionSchema) ([]domain.Seat, error) {
	out, err := decide(ctx, e, seat, schema,
		func() domain.TargetAction { return domain.TargetAction{} },
		func(a domain.TargetAction) error { return validTargets(schema, a.Targets) },
		func() domain.TargetAction {
			return domain.TargetAction{Targets: slices.Clone(schema.Candidates[:schema.MinTargets])}
		},
	)
	if err != nil {
		return nil, err
	}
	if err := e.settle(ctx, seat, schema.Kind, out.Degraded); err != nil {
		return nil, err
	}
	return out.Value.Targets, nil
}

func validTargets(schema domain.ActionSchema, targets []domain.Seat) error {
	if len(targets) < schema.MinTargets || len(targets) > schema.MaxTargets {
		return fmt.Errorf("%w: want %d-%d targets, got %d",
			domain.ErrInvalidTarget, schema.MinTargets, schema.MaxTargets, len(targets))
	}
	for i, t := range targets {
		if !slices.Contains(schema.Candidates, t) {
			return fmt.Errorf("%w: seat %d is not a legal target", domain.ErrInvalidTarget, t)
		}
		if slices.Contains(targets[:i], t) {
			return fmt.Errorf("%w: seat %d chosen twice", domain.ErrInvalidTarget, t)
		}
	}
	return nil
}

func validVote(schema domain.ActionSchema, v domain.VoteAction) error {
	if !slices.Contains(schema.Choices, v.Vote) {
		return fmt.Errorf("%w: vote %q is not one of %v", domain.ErrInvalidDecision, v.Vote, schema.Choices)
	}
	return nil
}

func (e *Engine) validDayAction(schema domain.ActionSchema, a domain.DayAction) error {
	if !slices.Contains(schema.Allowed, a.Action) {
		return fmt.Errorf("%w: action %q is not allowed now", domain.ErrInvalidDecision, a.Action)
	}
	switch a.Action {
	case domain.DayNominate:
		if !slices.Contains(schema.Candidates, a.Target) {
			return fmt.Errorf("%w: seat %d cannot be nominated", domain.ErrInvalidTarget, a.Target)
		}
	case domain.DaySlayer:
		if e.participant(a.Target) == nil {
			return fmt.Errorf("%w: seat %d", domain.ErrUnknownParticipant, a.Target)
		}
	case domain.DayMessage:
		if len(a.Recipients) == 0 {
			return fmt.Errorf("%w: a message needs recipients", domain.ErrInvalidDecision)
		}
		for i, r := range a.Recipients {
			if !slices.Contains(schema.Recipients, r) || slices.Contains(a.Recipients[:i], r) {
				return fmt.Errorf("%w: seat %d cannot receive this message", domain.ErrInvalidTarget, r)
			}
		}
		if a.Text == "" {
			return fmt.Errorf("%w: empty message", domain.ErrInvalidDecision)
		}
	case domain.DaySay:
		if a.Text == "" {
			return fmt.Errorf("%w: empty statement", domain.ErrInvalidDecision)
		}
	}
	return nil
}
