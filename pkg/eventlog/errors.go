package eventlog

import "fmt"

// SequenceError is returned when a persisted log is not gapless.
type SequenceError struct {
	Expected uint64
	Got      uint64
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("event log out of sequence: expected seq %d, got %d", e.Expected, e.Got)
}
