package scheduling

import (
	"fmt"

	"go.uber.org/multierr"
)

// ErrorCode identifies the short code reported to a caller on failure.
type ErrorCode string

const (
	// ErrInvalidRequest marks structural or semantic errors in the request,
	// caught by the Model Builder before search ever runs.
	ErrInvalidRequest ErrorCode = "invalid_request"
	// ErrInfeasible marks a request the engine proved has no satisfying
	// assignment.
	ErrInfeasible ErrorCode = "infeasible"
	// ErrTimeoutUnknown marks a search budget that expired before any
	// feasible solution was found.
	ErrTimeoutUnknown ErrorCode = "timeout_unknown"
	// ErrInternalValidationFailed marks an engine-produced assignment that
	// failed independent validation - a fatal engine bug.
	ErrInternalValidationFailed ErrorCode = "internal_validation_failed"
)

// SchedulingError is the error type returned by every stage of the core.
// Code selects the short code; Reasons holds one or more human-readable
// strings, each naming the entity that triggered the failure.
type SchedulingError struct {
	Code    ErrorCode
	Reasons []string
}

func (e *SchedulingError) Error() string {
	if len(e.Reasons) == 1 {
		return fmt.Sprintf("%s: %s", e.Code, e.Reasons[0])
	}
	return fmt.Sprintf("%s: %d reasons", e.Code, len(e.Reasons))
}

// newError builds a SchedulingError from one reason.
func newError(code ErrorCode, reason string) *SchedulingError {
	return &SchedulingError{Code: code, Reasons: []string{reason}}
}

// reasonCollector accumulates invalid_request reasons across many checks
// (route validation, capability eligibility, calendar shape) using
// multierr so the caller sees every violation in one response instead of
// only the first.
type reasonCollector struct {
	err error
}

func (c *reasonCollector) add(format string, args ...interface{}) {
	c.err = multierr.Append(c.err, fmt.Errorf(format, args...))
}

func (c *reasonCollector) ok() bool {
	return c.err == nil
}

// asSchedulingError flattens the accumulated multierr into a single
// invalid_request SchedulingError, preserving one reason string per
// underlying error.
func (c *reasonCollector) asSchedulingError() *SchedulingError {
	return c.asSchedulingErrorWithCode(ErrInvalidRequest)
}

// asSchedulingErrorWithCode is like asSchedulingError but lets the caller
// pick the error code - the Validator reports the same kind of
// accumulated reasons, but as internal_validation_failed rather than
// invalid_request.
func (c *reasonCollector) asSchedulingErrorWithCode(code ErrorCode) *SchedulingError {
	if c.err == nil {
		return nil
	}
	errs := multierr.Errors(c.err)
	reasons := make([]string, len(errs))
	for i, e := range errs {
		reasons[i] = e.Error()
	}
	return &SchedulingError{Code: code, Reasons: reasons}
}
