package soap

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrMalformedResponse is returned when a response body cannot be decoded
	// into the expected page shape. It indicates a data-integrity problem, not
	// a transport failure, and must never result in a bookmark commit.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrServiceFault is returned when the service answers with a SOAP fault.
	ErrServiceFault = errors.New("service fault")
)

// SherpaError represents a Sherpa transport error with additional context.
type SherpaError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *SherpaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sherpa %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("sherpa %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SherpaError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors are not transient, retrying only burns the failure budget
		return false
	case ErrorClassServer:
		return true
	case ErrorClassRateLimit:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}
