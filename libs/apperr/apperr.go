// Package apperr defines the error kinds surfaced to the operator.
package apperr

import (
	"errors"
	"fmt"
)

// MissingSIPParameters is the fixed message for an incomplete bridge request.
const MissingSIPParameters = "Missing required SIP parameters"

// ConfigurationError reports a required per-environment variable that is not set.
// It is a deployment defect and is never retried.
type ConfigurationError struct {
	Environment string
	Variable    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not defined", e.Variable)
}

// ValidationError reports caller-supplied input rejected before any external call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation returns a *ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure of the telephony, dispatch or signing service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an *UpstreamError; nil stays nil.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

// Kind names the category of err for logs and metrics.
func Kind(err error) string {
	var (
		ce *ConfigurationError
		ve *ValidationError
		ue *UpstreamError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return "configuration"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ue):
		return "upstream"
	default:
		return "internal"
	}
}
