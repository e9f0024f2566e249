package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the stable failure taxonomy exposed to callers. LLM-agent
// clients branch on these values, so they are part of the API contract.
type ErrorKind string

const (
	// ErrForecastService: the upstream answered with a non-200 status.
	ErrForecastService ErrorKind = "forecast_service_error"
	// ErrTimeout: the outbound call exceeded the configured timeout.
	ErrTimeout ErrorKind = "timeout_error"
	// ErrUnavailable: the outbound call failed before any response
	// (DNS, connection refused, TLS).
	ErrUnavailable ErrorKind = "service_unavailable"
	// ErrInternal: any other unexpected failure during processing.
	ErrInternal ErrorKind = "internal_error"
)

// Error is a classified gateway failure. Exactly one is produced per failed
// request; an already-classified error propagates unchanged.
type Error struct {
	Kind    ErrorKind
	Message string

	// UpstreamStatus is set only for ErrForecastService.
	UpstreamStatus int
	// TimeoutSeconds is set only for ErrTimeout.
	TimeoutSeconds float64
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatus maps the error kind to the gateway's response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Classify returns err unchanged if it already carries a classification,
// otherwise wraps it as an internal error.
func Classify(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return &Error{
		Kind:    ErrInternal,
		Message: "an unexpected error occurred: " + err.Error(),
	}
}
