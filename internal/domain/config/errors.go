package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse      = "CONFIG_PARSE"
	ErrCodeConfigFormat     = "CONFIG_FORMAT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeNotWSL           = "NOT_WSL"
	ErrCodeRunningAsRoot    = "RUNNING_AS_ROOT"
	ErrCodeAptLocked        = "APT_LOCKED"
	ErrCodeUnknownComponent = "UNKNOWN_COMPONENT"
	ErrCodeDependency       = "DEPENDENCY_INVALID"
	ErrCodeNotTerminal      = "NOT_A_TERMINAL"
	ErrCodeSudoFailed       = "SUDO_FAILED"
)

// UserError is an error meant to be shown to the user, with an
// actionable suggestion.
type UserError struct {
	Code       string // Error code for categorization (e.g., "APT_LOCKED")
	Message    string // User-facing message
	Context    string // File path or other location context
	Suggestion string // How to fix it
	Underlying error  // Wrapped error for error chain
}

// Error returns the message with its context.
func (e *UserError) Error() string {
	if e.Context == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is matches another UserError with the same code.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns the error with code, location and suggestion.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %v", e.Underlying)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// NewUserError creates a UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{
		Code:    code,
		Message: message,
	}
}

// WithContext returns a copy with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	c := *e
	c.Context = ctx
	return &c
}

// WithSuggestion returns a copy with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// WithUnderlying returns a copy wrapping err.
func (e *UserError) WithUnderlying(err error) *UserError {
	c := *e
	c.Underlying = err
	return &c
}

// ErrorList accumulates validation errors so they can be reported together.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList creates an empty ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{errors: make([]*UserError, 0)}
}

// Add adds an error to the list.
func (l *ErrorList) Add(err *UserError) {
	if err != nil {
		l.errors = append(l.errors, err)
	}
}

// AddValidation adds a validation error for field.
func (l *ErrorList) AddValidation(field, message, suggestion string) {
	l.Add(&UserError{
		Code:       ErrCodeValidationFailed,
		Message:    fmt.Sprintf("%s: %s", field, message),
		Context:    field,
		Suggestion: suggestion,
	})
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	return len(l.errors)
}

// Errors returns a copy of the collected errors.
func (l *ErrorList) Errors() []*UserError {
	out := make([]*UserError, len(l.errors))
	copy(out, l.errors)
	return out
}

// Error implements the error interface.
func (l *ErrorList) Error() string {
	switch len(l.errors) {
	case 0:
		return ""
	case 1:
		return l.errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Format returns every error in detailed form.
func (l *ErrorList) Format() string {
	parts := make([]string, 0, len(l.errors))
	for _, err := range l.errors {
		parts = append(parts, err.Format())
	}
	return strings.Join(parts, "\n")
}

// AsError returns the list as an error, or nil if empty.
func (l *ErrorList) AsError() error {
	if len(l.errors) == 0 {
		return nil
	}
	return l
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	out := make([]error, len(l.errors))
	for i, err := range l.errors {
		out[i] = err
	}
	return out
}

// NewConfigNotFoundError reports an explicitly requested config file that does not exist.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    "configuration file not found",
		Context:    path,
		Suggestion: "Check the WSLKIT_CONFIG path, or unset it to use the defaults.",
	}
}

// NewConfigFormatError reports a config file with an unsupported extension.
func NewConfigFormatError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigFormat,
		Message:    "unsupported configuration format",
		Context:    path,
		Suggestion: "Use a .yaml, .yml or .toml file.",
	}
}

// NewConfigParseError translates a YAML or TOML decoding error.
func NewConfigParseError(path string, err error) *UserError {
	msg := err.Error()
	message := "invalid configuration syntax"
	suggestion := "Check the file syntax. YAML uses two-space indentation; TOML values need quotes around strings."

	switch {
	case strings.Contains(msg, "cannot unmarshal !!seq"):
		message = "expected an object but found a list"
		suggestion = "Use 'key: value' entries instead of '- item' list entries here."
	case strings.Contains(msg, "cannot unmarshal !!map"):
		message = "expected a list but found an object"
		suggestion = "Use '- item' list entries here."
	case strings.Contains(msg, "cannot unmarshal !!str"):
		message = "unexpected string value"
		suggestion = "Check the value type and indentation of nested fields."
	case strings.Contains(msg, "invalid duration"):
		message = "invalid duration"
		suggestion = "Durations are written like 10s, 1m30s or 500ms."
	case strings.Contains(msg, "not found in type") || strings.Contains(msg, "strict mode"):
		message = "unknown configuration key"
		suggestion = "Remove or rename the key; see 'wslkit --help' for the config file location."
	}

	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    message,
		Context:    path,
		Suggestion: suggestion,
		Underlying: err,
	}
}

// IsUserError checks if an error is a UserError with a specific code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
