package cmd

import (
	"context"
	"errors"

	surveyterm "github.com/AlecAivazis/survey/v2/terminal"

	"asciimation/internal/model"
	"asciimation/internal/util/deps"
)

const (
	ExitOK           = 0
	ExitCLIError     = 1
	ExitMissingDep   = 2
	ExitRetrieval    = 3
	ExitExtraction   = 4
	ExitPrecondition = 5
	ExitConversion   = 6
	ExitInterrupted  = 130
)

var errInterrupted = errors.New("interrupted")

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitError attaches the exit code matching err's kind. Errors that already
// carry a code are returned unchanged.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, surveyterm.InterruptErr):
		return &ExitError{Code: ExitInterrupted, Err: errInterrupted}
	case errors.Is(err, deps.ErrMissing):
		return &ExitError{Code: ExitMissingDep, Err: err}
	case errors.Is(err, model.ErrRetrieval):
		return &ExitError{Code: ExitRetrieval, Err: err}
	case errors.Is(err, model.ErrExtraction):
		return &ExitError{Code: ExitExtraction, Err: err}
	case errors.Is(err, model.ErrPrecondition):
		return &ExitError{Code: ExitPrecondition, Err: err}
	case errors.Is(err, model.ErrConversion):
		return &ExitError{Code: ExitConversion, Err: err}
	}
	return &ExitError{Code: ExitCLIError, Err: err}
}

func cliError(err error) error {
	return &ExitError{Code: ExitCLIError, Err: err}
}
