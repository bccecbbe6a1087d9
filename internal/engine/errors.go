package engine

import "errors"

var (
	// ErrUnknownSubject indicates an event for a subject that never entered
	// the experiment.
	ErrUnknownSubject = errors.New("subject has not entered the experiment")

	// ErrCompleted indicates an entry attempt after the experiment reached a
	// terminal state.
	ErrCompleted = errors.New("experiment is completed")
)
