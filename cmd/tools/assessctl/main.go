// cmd/tools/assessctl/main.go
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess          = 0 // Command succeeded
	ExitValidationFailed = 1 // Input was read but is invalid
	ExitError            = 2 // Configuration or runtime error
)

// ValidationFailedError reports that the command ran but the responses,
// catalog or registry it checked are invalid.
type ValidationFailedError struct {
	Message string
}

func (e *ValidationFailedError) Error() string {
	return e.Message
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var failed *ValidationFailedError
	if errors.As(err, &failed) {
		return ExitValidationFailed
	}
	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
