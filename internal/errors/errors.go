package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"  // no client configurations, bad .netcloak.yaml
	ErrLaunch  = "LAUNCH"  // the VPN client could not be spawned
	ErrConnect = "CONNECT" // the client log reported an error marker
	ErrTimeout = "TIMEOUT" // no marker before the connect deadline
	ErrProbe   = "PROBE"   // latency probe setup failed
	ErrState   = "STATE"   // supervisor invariant violated (already running)
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Renders as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewNoConfigurations is returned when discovery finds no client config files.
func NewNoConfigurations(dir, ext string) *Error {
	return &Error{
		Code:       ErrConfig,
		Message:    fmt.Sprintf("No OpenVPN (%s) files found in %s", ext, dir),
		Suggestion: "Run netcloak from the directory holding your configs, or pass --dir.",
	}
}

// NewAlreadyRunning is returned when a start is attempted while a client is tracked.
func NewAlreadyRunning(pid int) *Error {
	return &Error{
		Code:       ErrState,
		Message:    fmt.Sprintf("VPN client already running (pid %d)", pid),
		Suggestion: "Stop the current connection before starting a new one.",
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns the message alone, for single-line notices in the dashboard.
func (e *Error) Short() string {
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var ncErr *Error
	if errors.As(err, &ncErr) {
		return ncErr.Code == code
	}
	return false
}

// Summary returns a one-line description of err: the message of a structured
// error, or err.Error() otherwise.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var ncErr *Error
	if errors.As(err, &ncErr) {
		return ncErr.Short()
	}
	return strings.TrimSpace(err.Error())
}

// ExitError carries a specific process exit code up to main.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the code from an ExitError anywhere in err's chain.
func GetExitCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
