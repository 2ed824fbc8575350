package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	// CodeConfig marks a missing or invalid startup setting.
	CodeConfig Code = "CONFIG"
	// CodeInvalidRequest marks caller input that cannot be used.
	CodeInvalidRequest Code = "INVALID_REQUEST"
	// CodeGeocode marks an address the geocoder could not resolve.
	CodeGeocode Code = "GEOCODE"
	// CodeUpstream marks a maps or generator call that failed or timed out.
	CodeUpstream Code = "UPSTREAM"
	// CodeMalformedGeneration marks model output rejected by the strict parser.
	CodeMalformedGeneration Code = "MALFORMED_GENERATION"
	// CodeNotFound marks a lookup with no usable result.
	CodeNotFound Code = "NOT_FOUND"
	CodeInternal Code = "INTERNAL"
)

// StructuredError carries a code for programmatic handling next to the
// human-readable message and the underlying cause.
type StructuredError struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *StructuredError) Unwrap() error {
	return e.Cause
}

func New(code Code, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

func NewWithContext(code Code, message string, ctx map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Context: ctx}
}

func Wrap(code Code, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

func WrapWithContext(code Code, message string, cause error, ctx map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: ctx}
}

// Upstream wraps a failed outbound call. A context deadline is reported in the
// same category with timeout=true.
func Upstream(service string, cause error) *StructuredError {
	ctx := map[string]any{"service": service}
	if errors.Is(cause, context.DeadlineExceeded) {
		ctx["timeout"] = true
	}
	return WrapWithContext(CodeUpstream, service+" request failed", cause, ctx)
}

// CodeOf returns the code of the first StructuredError in err's chain, or
// CodeInternal.
func CodeOf(err error) Code {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error to the status code returned to API callers.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidRequest, CodeGeocode:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstream, CodeMalformedGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
