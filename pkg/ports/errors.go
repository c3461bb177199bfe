package ports

import (
	"fmt"

	"github.com/aretw0/clocktower/pkg/domain"
)

// SequenceGapError is returned by an EventStore when appended events do not
// continue the stored sequence.
type SequenceGapError struct {
	GameID   string
	Expected uint64
	Got      uint64
}

func (e *SequenceGapError) Error() string {
	return fmt.Sprintf("game %s: expected event seq %d, got %d", e.GameID, e.Expected, e.Got)
}

// CheckSequence verifies that events continue a log whose last sequence number is last.
func CheckSequence(gameID string, last uint64, events []domain.Event) error {
	for i, evt := range events {
		if want := last + uint64(i) + 1; evt.Seq != want {
			return &SequenceGapError{GameID: gameID, Expected: want, Got: evt.Seq}
		}
	}
	return nil
}
