package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/clocktower/pkg/domain"
)

// ActionError is returned when a day action is rejected by the protocol. The
// rejection is also recorded in the log, privately to the actor.
type ActionError struct {
	Actor  domain.Seat
	Action domain.DayActionType
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("seat %d cannot %s: %v", e.Actor, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// reject records a rejected action and returns it as an *ActionError.
func (e *Engine) reject(ctx context.Context, actor domain.Seat, action domain.DayActionType, cause error) error {
	ae := &ActionError{Actor: actor, Action: action, Err: cause}
	if e.grim.Over {
		return ae
	}
	evt := domain.NewEvent(domain.EventActionRejected, domain.VisibilityStoryteller)
	if e.participant(actor) != nil {
		evt.Visibility = domain.VisibilityPrivate
		evt.Recipients = []domain.Seat{actor}
		evt.Actor = actor
	}
	evt.Text = string(action)
	evt.Reason = cause.Error()
	if _, err := e.emit(ctx, evt); err != nil {
		return err
	}
	e.logger.Warn("action rejected", "seat", actor, "action", action, "err", cause)
	return ae
}
