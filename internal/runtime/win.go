package runtime

import (
	"context"

	"github.com/aretw0/clocktower/pkg/domain"
)

// Game-over reasons.
const (
	ReasonDemonDead      = "demon_dead"
	ReasonTwoAlive       = "two_alive"
	ReasonSaintExecuted  = "saint_executed"
	ReasonMayor          = "mayor"
	mayorLivingThreshold = 3
)

// checkWin evaluates the win conditions that can trigger after any death.
func (e *Engine) checkWin(ctx context.Context) (bool, error) {
	if e.grim.Over {
		return true, nil
	}
	switch {
	case len(e.grim.LivingDemons()) == 0:
		return true, e.endGame(ctx, domain.Good, ReasonDemonDead)
	case e.grim.LivingCount() <= 2:
		return true, e.endGame(ctx, domain.Evil, ReasonTwoAlive)
	}
	return false, nil
}

// checkMayor runs at the end of a day: a working Mayor wins for good when three
// players are alive and nobody was executed.
func (e *Engine) checkMayor(ctx context.Context) (bool, error) {
	if e.grim.Over || e.grim.Day.Executed != domain.NoSeat || e.grim.LivingCount() != mayorLivingThreshold {
		return false, nil
	}
	for _, p := range e.grim.WithCharacter(domain.Mayor) {
		if p.Alive && !p.Impaired() {
			return true, e.endGame(ctx, domain.Good, ReasonMayor)
		}
	}
	return false, nil
}

func (e *Engine) endGame(ctx context.Context, winner domain.Alignment, reason string) error {
	evt := domain.NewEvent(domain.EventGameOver, domain.VisibilityPublic)
	evt.Winner = winner
	evt.Reason = reason
	if _, err := e.emit(ctx, evt); err != nil {
		return err
	}
	e.drained = true
	e.logger.Info("game over", "winner", winner, "reason", reason, "round", e.grim.Round)
	return nil
}
