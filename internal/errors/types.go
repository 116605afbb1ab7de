package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorType classifies failures raised while a session is set up.
type ErrorType int

const (
	// ErrorTypeTransient - the remote side may succeed later
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent - configuration or programming error, setup must stop
	ErrorTypePermanent
	// ErrorTypeDegraded - setup continues without the failed data
	ErrorTypeDegraded
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeDegraded:
		return "degraded"
	default:
		return "permanent"
	}
}

// TransientError represents a remote failure that might not repeat
type TransientError struct {
	Err        error
	StatusCode int    // HTTP status code if applicable
	Message    string // Human readable message
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents an error that aborts setup
type PermanentError struct {
	Err        error
	StatusCode int    // HTTP status code if applicable
	Message    string // Human readable message
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// DegradedError represents a failure setup recovers from by continuing
// without the affected data
type DegradedError struct {
	Err       error
	Component string // Which collaborator failed
	Message   string // Human readable message
}

func (e *DegradedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Component != "" {
		return fmt.Sprintf("degraded %s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("degraded error: %v", e.Err)
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}

// NewPermanent wraps err as a PermanentError.
func NewPermanent(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err, Message: fmt.Sprintf(format, args...) + ": " + err.Error()}
}

// NewDegraded wraps err as a DegradedError for component.
func NewDegraded(component string, err error) error {
	if err == nil {
		return nil
	}
	return &DegradedError{Err: err, Component: component}
}

// FromHTTPStatus wraps err according to the response status code.
// 429 and 5xx are transient; every other non-2xx status is permanent.
func FromHTTPStatus(statusCode int, err error) error {
	if err == nil {
		err = fmt.Errorf("status %d", statusCode)
	}
	if isTransientHTTPStatus(statusCode) {
		return &TransientError{Err: err, StatusCode: statusCode}
	}
	return &PermanentError{Err: err, StatusCode: statusCode}
}

// IsTransient checks if an error might succeed on a later attempt
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check if explicitly marked as transient
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}

	// Check if explicitly marked as permanent
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return isNetworkError(err) || isSyscallError(err)
}

// IsPermanent checks if an error must abort setup
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return true
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return false
	}

	var degradedErr *DegradedError
	return !errors.As(err, &degradedErr) && !IsTransient(err)
}

// IsDegraded checks if setup continued past the error
func IsDegraded(err error) bool {
	var degradedErr *DegradedError
	return errors.As(err, &degradedErr)
}

// GetErrorType classifies an error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	if IsDegraded(err) {
		return ErrorTypeDegraded
	}

	if IsTransient(err) {
		return ErrorTypeTransient
	}

	return ErrorTypePermanent
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return transientErr.StatusCode
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return permanentErr.StatusCode
	}
	return 0
}

// Describe converts an error into a short message suitable for a warning
// line on the console.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	switch StatusCode(err) {
	case http.StatusUnauthorized:
		return "Authentication failed. Check the configured API key."
	case http.StatusForbidden:
		return "Permission denied by the tracking server."
	case http.StatusTooManyRequests:
		return "Tracking server rate limit reached."
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Tracking server did not answer in time."
	}

	lowerErr := strings.ToLower(err.Error())
	if strings.Contains(lowerErr, "connection refused") {
		return "Tracking server is not reachable. Check the base URL."
	}
	if code := StatusCode(err); code >= 500 {
		return "Tracking server error. Continuing without remote data."
	}

	return err.Error()
}

// Helper functions

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "broken pipe", "i/o timeout"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func isSyscallError(err error) bool {
	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE,
			syscall.ETIMEDOUT, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return true
		}
	}
	return false
}

func isTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	}
	return false
}
