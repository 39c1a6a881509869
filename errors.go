package relay

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a structured error response that implements the error interface.
// Handlers and middleware may return an Error to control the HTTP status code
// produced by the error boundary.
type Error struct {
	Status  int            `json:"-"`                 // HTTP status code (not in JSON)
	Code    string         `json:"code"`              // Machine-readable error code
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Optional context
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e Error) WithMessage(message string) Error {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e Error) WithDetails(details map[string]any) Error {
	e.Details = details
	return e
}

// Predefined HTTP errors using http.StatusText for default messages.
var (
	ErrBadRequest           = Error{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: http.StatusText(http.StatusBadRequest)}
	ErrUnauthorized         = Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: http.StatusText(http.StatusUnauthorized)}
	ErrForbidden            = Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: http.StatusText(http.StatusForbidden)}
	ErrNotFoundHTTP         = Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: http.StatusText(http.StatusNotFound)}
	ErrMethodNotAllowedHTTP = Error{Status: http.StatusMethodNotAllowed, Code: "METHOD_NOT_ALLOWED", Message: http.StatusText(http.StatusMethodNotAllowed)}
	ErrTooManyRequests      = Error{Status: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS", Message: http.StatusText(http.StatusTooManyRequests)}

	ErrRequestEntityTooLarge = Error{Status: http.StatusRequestEntityTooLarge, Code: "REQUEST_ENTITY_TOO_LARGE", Message: http.StatusText(http.StatusRequestEntityTooLarge)}
	ErrInternalServerError   = Error{Status: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: http.StatusText(http.StatusInternalServerError)}
)

// Standard router errors.
var (
	ErrNotFound         = errors.New("route not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrNilHandler       = errors.New("handler cannot be nil")
	ErrInvalidMethod    = errors.New("invalid http method")

	// Dispatch protocol violations. Both indicate a bug in registered
	// middleware or handlers, never a client problem.
	ErrDoubleDispatch = errors.New("continuation invoked more than once")
	ErrResponseSent   = errors.New("response body already set")

	// Registration errors
	ErrRouteConflict = errors.New("route already registered for method and pattern")
)

// Pattern syntax errors. All wrap ErrPatternSyntax so callers can check the
// whole class with errors.Is(err, ErrPatternSyntax).
var (
	ErrPatternSyntax = errors.New("invalid route pattern")

	ErrMissingSlash     = fmt.Errorf("%w: pattern must begin with '/'", ErrPatternSyntax)
	ErrWildcardPosition = fmt.Errorf("%w: wildcard must be the last segment", ErrPatternSyntax)
	ErrEmptyParamName   = fmt.Errorf("%w: parameter name cannot be empty", ErrPatternSyntax)
	ErrDuplicateParam   = fmt.Errorf("%w: duplicate parameter name", ErrPatternSyntax)
	ErrUnbalancedGroup  = fmt.Errorf("%w: unbalanced optional group parentheses", ErrPatternSyntax)
)

// defaultErrorHandler provides default error handling.
func defaultErrorHandler(c *Context, err error) {
	// Prevent double-writing responses which causes HTTP protocol errors
	if c.w.Written() {
		return
	}

	var appErr Error
	if errors.As(err, &appErr) {
		http.Error(c.w, appErr.Message, appErr.Status)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(c.w, "404 Not Found", http.StatusNotFound)
	case errors.Is(err, ErrMethodNotAllowed):
		http.Error(c.w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		http.Error(c.w, "500 Internal Server Error", http.StatusInternalServerError)
	}
}

// toError converts any recovered value to an error.
func toError(v any) error {
	switch e := v.(type) {
	case error:
		return e
	case string:
		return errors.New(e)
	default:
		return fmt.Errorf("panic: %v", e)
	}
}
