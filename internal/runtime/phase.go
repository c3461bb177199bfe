package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/clocktower/pkg/domain"
)

// ReasonRoundLimit is the game-over reason when MaxRounds is reached.
const ReasonRoundLimit = "round_limit"

// Step runs the sub-protocol of the current phase until it is drained.
// Calling Step again on a drained phase is a no-op. A Step cut short by ctx
// resumes where it stopped: finished abilities and day rounds never run twice.
func (e *Engine) Step(ctx context.Context) error {
	if err := e.Err(); err != nil {
		return err
	}
	if e.grim.Over {
		return domain.ErrGameOver
	}
	if e.drained {
		return nil
	}

	var err error
	switch e.grim.Phase {
	case domain.PhaseSetup:
		return fmt.Errorf("%w: game is not set up", domain.ErrConstraintViolation)
	case domain.PhaseFirstNight, domain.PhaseNight:
		err = e.runNight(ctx)
	case domain.PhaseDay:
		err = e.runDay(ctx)
	}
	if err != nil {
		return err
	}
	e.drained = true
	return nil
}

// Advance moves to the next phase once the current one is drained.
// Transitions never roll back: setup, first night, then day and night alternate.
func (e *Engine) Advance(ctx context.Context) error {
	if err := e.Err(); err != nil {
		return err
	}
	if e.grim.Over {
		return domain.ErrGameOver
	}
	if !e.drained {
		return fmt.Errorf("%w: %s", domain.ErrPhaseNotComplete, e.grim.Phase)
	}

	next, round := e.grim.Phase, e.grim.Round
	switch e.grim.Phase {
	case domain.PhaseSetup:
		next, round = domain.PhaseFirstNight, 1
	case domain.PhaseFirstNight, domain.PhaseNight:
		next = domain.PhaseDay
	case domain.PhaseDay:
		next, round = domain.PhaseNight, round+1
		if e.cfg.MaxRounds > 0 && round > e.cfg.MaxRounds {
			return e.endGame(ctx, "", ReasonRoundLimit)
		}
	}

	// Statuses lapse at the transition that ends them.
	expiry := domain.ExpiresAtDusk
	if next == domain.PhaseDay {
		expiry = domain.ExpiresAtDawn
	}
	if err := e.clearStatuses(ctx, func(s domain.Status) bool { return s.Expires == expiry }); err != nil {
		return err
	}

	evt := domain.NewEvent(domain.EventPhaseChanged, domain.VisibilityPublic)
	evt.Phase = next
	evt.Round = round
	if _, err := e.emit(ctx, evt); err != nil {
		return err
	}
	e.drained = false
	e.dayEnded = false
	e.cur = progress{}
	e.logger.Info("phase changed", "phase", next, "round", round)
	return nil
}

// Run alternates Step and Advance until the game ends or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if e.grim.Over {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Step(ctx); err != nil {
			if errors.Is(err, domain.ErrGameOver) {
				return nil
			}
			return err
		}
		if e.grim.Over {
			return nil
		}
		if err := e.Advance(ctx); err != nil {
			if errors.Is(err, domain.ErrGameOver) {
				return nil
			}
			return err
		}
	}
}

func (e *Engine) clearStatuses(ctx context.Context, match func(domain.Status) bool) error {
	var cleared []domain.Status
	for _, p := range e.grim.Participants {
		for _, s := range p.Statuses {
			if match(s) {
				cleared = append(cleared, s)
			}
		}
	}
	for _, s := range cleared {
		evt := domain.NewEvent(domain.EventStatusCleared, domain.VisibilityStoryteller)
		evt.Target = s.Target
		evt.Actor = s.Source
		evt.Status = &s
		if _, err := e.emit(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyStatus(ctx context.Context, s domain.Status) error {
	evt := domain.NewEvent(domain.EventStatusApplied, domain.VisibilityStoryteller)
	evt.Actor = s.Source
	evt.Target = s.Target
	evt.Status = &s
	_, err := e.emit(ctx, evt)
	return err
}
