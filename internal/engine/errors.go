// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Sentinels usable with errors.Is against any EngineError carrying the
// matching code.
var (
	ErrUnknownLocator         = &EngineError{Code: ErrCodeUnknownLocator}
	ErrNoSuchElement          = &EngineError{Code: ErrCodeNoSuchElement}
	ErrTimeoutWaiting         = &EngineError{Code: ErrCodeTimeout}
	ErrNavigationNotConfirmed = &EngineError{Code: ErrCodeNavigationNotConfirmed}
	ErrMissingField           = &EngineError{Code: ErrCodeMissingField}
	ErrStaleElement           = &EngineError{Code: ErrCodeStaleElement}
	ErrCheckFailed            = &EngineError{Code: ErrCodeCheckFailed}
	ErrBrowserCrash           = &EngineError{Code: ErrCodeBrowserCrash}
	ErrNotInteractable        = &EngineError{Code: ErrCodeNotInteractable}
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeUnknownLocator         ErrorCode = "UNKNOWN_LOCATOR"
	ErrCodeNoSuchElement          ErrorCode = "NO_SUCH_ELEMENT"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
	ErrCodeNavigationNotConfirmed ErrorCode = "NAVIGATION_NOT_CONFIRMED"
	ErrCodeMissingField           ErrorCode = "MISSING_FIELD"
	ErrCodeStaleElement           ErrorCode = "STALE_ELEMENT"
	ErrCodeCheckFailed            ErrorCode = "CHECK_FAILED"
	ErrCodeNotInteractable        ErrorCode = "NOT_INTERACTABLE"
	ErrCodeValidation             ErrorCode = "VALIDATION"
	ErrCodeBrowserCrash           ErrorCode = "BROWSER_CRASH"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
		if e.Underlying == nil {
			return msg
		}
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Retry:      false,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// UnknownLocator reports a name missing from the locator catalog.
func UnknownLocator(name string) *EngineError {
	return NewEngineError(ErrCodeUnknownLocator, fmt.Sprintf("no locator named %q", name), nil).
		WithDetail("locator", name)
}

// NoSuchElement reports a selector that matched nothing.
func NoSuchElement(locator string) *EngineError {
	return NewEngineError(ErrCodeNoSuchElement, fmt.Sprintf("no element matches %s", locator), nil).
		WithDetail("locator", locator)
}

// TimeoutWaiting reports an explicit wait that expired. Callers may retry.
func TimeoutWaiting(what string, err error) *EngineError {
	return NewEngineError(ErrCodeTimeout, "timed out waiting for "+what, err).WithRetry()
}

// NavigationNotConfirmed reports a pagination step whose post-conditions
// never both held.
func NavigationNotConfirmed(page int, err error) *EngineError {
	return NewEngineError(ErrCodeNavigationNotConfirmed, fmt.Sprintf("navigation to page %d not confirmed", page), err).
		WithDetail("page", page)
}

// MissingField reports a required field absent from a listing card.
func MissingField(field string) *EngineError {
	return NewEngineError(ErrCodeMissingField, fmt.Sprintf("missing field %q", field), nil).
		WithDetail("field", field)
}

// StaleElement reports use of a handle from before the last navigation.
func StaleElement(handleGen, currentGen uint64) *EngineError {
	return NewEngineError(ErrCodeStaleElement, "element handle is from a previous page", nil).
		WithDetail("handle_generation", handleGen).
		WithDetail("current_generation", currentGen)
}

// CheckFailed reports a scenario checkpoint that did not hold.
func CheckFailed(format string, args ...interface{}) *EngineError {
	return NewEngineError(ErrCodeCheckFailed, fmt.Sprintf(format, args...), nil)
}

// NotInteractable reports a native input event the page would not accept.
func NotInteractable(what string) *EngineError {
	return NewEngineError(ErrCodeNotInteractable, what+" does not accept pointer input", nil)
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		if ee.Code == code {
			return true
		}
		return IsCode(ee.Underlying, code)
	}
	return false
}

// PageOf returns the page number carried by a NavigationNotConfirmed error.
func PageOf(err error) (int, bool) {
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeNavigationNotConfirmed {
		return 0, false
	}
	p, ok := ee.Details["page"].(int)
	return p, ok
}
