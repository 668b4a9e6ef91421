package entity

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrElementNotFound   = errors.New("element not found")
	ErrAssertionMismatch = errors.New("assertion mismatch")
	ErrSessionSetup      = errors.New("browser session setup failed")
	ErrInvalidURL        = errors.New("invalid url")
)

type ErrorCategory int

const (
	CategoryNone ErrorCategory = iota
	CategoryElementNotFound
	CategoryAssertion
	CategorySessionSetup
	CategoryTimeout
	CategoryConfig
	CategoryUnknown
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryElementNotFound:
		return "element_not_found"
	case CategoryAssertion:
		return "assertion"
	case CategorySessionSetup:
		return "session_setup"
	case CategoryTimeout:
		return "timeout"
	case CategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Status maps a category to the scenario outcome it produces. Lookup and
// assertion problems are test failures; everything else means the check
// could not be carried out at all.
func (c ErrorCategory) Status() Status {
	switch c {
	case CategoryNone:
		return StatusPassed
	case CategoryElementNotFound, CategoryAssertion:
		return StatusFailed
	default:
		return StatusErrored
	}
}

// StepError is the classified failure of a single step.
type StepError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *StepError) Error() string {
	if e.Cause != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

func (e *StepError) Code() string {
	return e.Category.String()
}

// Classify wraps err into a StepError. A nil err yields nil.
func Classify(err error) *StepError {
	if err == nil {
		return nil
	}

	var se *StepError
	if errors.As(err, &se) {
		return se
	}

	category := CategoryUnknown
	switch {
	case errors.Is(err, ErrElementNotFound):
		category = CategoryElementNotFound
	case errors.Is(err, ErrAssertionMismatch):
		category = CategoryAssertion
	case errors.Is(err, ErrSessionSetup):
		category = CategorySessionSetup
	case errors.Is(err, ErrInvalidURL):
		category = CategoryConfig
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		category = CategoryTimeout
	}

	return &StepError{Category: category, Cause: err}
}
