package domain

import "errors"

// ErrInvalidTarget is returned when an action violates its ability's legal-target constraints.
var ErrInvalidTarget = errors.New("invalid target")

// ErrPhaseNotComplete is returned when the phase is advanced before its sub-protocol drained.
var ErrPhaseNotComplete = errors.New("phase not complete")

// ErrUnknownParticipant is returned when an action references a seat that does not exist.
var ErrUnknownParticipant = errors.New("unknown participant")

// ErrDeadActorIneligible is returned when a dead participant attempts a living-only action.
var ErrDeadActorIneligible = errors.New("dead actor ineligible")

// ErrConstraintViolation is returned when a protocol rule rejects an action
// (double nomination, nominations closed, execution already locked...).
var ErrConstraintViolation = errors.New("constraint violation")

// ErrDecisionTimeout is returned when the decision provider did not answer in time.
var ErrDecisionTimeout = errors.New("decision timeout")

// ErrInvalidDecision is returned when a decision cannot be decoded against its schema.
var ErrInvalidDecision = errors.New("invalid decision format")

// ErrInvariantViolation is returned when a ground-truth consistency check fails.
// It is fatal: the engine refuses to continue.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrGameOver is returned when an operation is attempted after the game ended.
var ErrGameOver = errors.New("game over")

// ErrGameNotFound is returned when a game log cannot be found in the store.
var ErrGameNotFound = errors.New("game not found")
