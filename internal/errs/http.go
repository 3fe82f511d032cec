package errs

import "strings"

// FieldError describes a problem with a single input field.
//
//	{ "field": "port", "error": "is required" }
type FieldError struct {
	// Field is the lower-cased field or key name.
	Field string `json:"field"`

	// Error is the human-readable problem.
	Error string `json:"error"`
}

// HTTPError is the JSON error body written by the global error handler.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST").
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: the message is safe to show as-is, even in production.
//   - Errors: optional per-field details.
type HTTPError struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Status   int          `json:"status"`
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// Error returns the client-facing message.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError, regardless of its fields.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// MakeUpperCaseWithUnderscores turns status text into an error code.
//
//	"Too Many Requests" -> "TOO_MANY_REQUESTS"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
