package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // Experiment completed with a decisive winner
	ExitInconclusive = 1 // Experiment completed without a decisive winner
	ExitError        = 2 // Configuration or runtime error
)

// InconclusiveError indicates that the replay ran successfully, but the
// experiment ended without a statistically significant winner.
type InconclusiveError struct {
	Message string
}

func (e *InconclusiveError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var inconclusiveErr *InconclusiveError
		if errors.As(err, &inconclusiveErr) {
			os.Exit(ExitInconclusive)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
