package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *UserError
		expected string
	}{
		{
			name:     "simple message",
			err:      &UserError{Code: ErrCodeNotWSL, Message: "not running inside WSL"},
			expected: "not running inside WSL",
		},
		{
			name: "message with context",
			err: &UserError{
				Code:    ErrCodeConfigParse,
				Message: "invalid configuration syntax",
				Context: "config.yaml",
			},
			expected: "invalid configuration syntax (at config.yaml)",
		},
		{
			name: "suggestion is not part of Error",
			err: &UserError{
				Code:       ErrCodeAptLocked,
				Message:    "apt is locked",
				Suggestion: "wait",
			},
			expected: "apt is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUserError_Format(t *testing.T) {
	t.Parallel()

	err := &UserError{
		Code:       ErrCodeAptLocked,
		Message:    "another package manager is running",
		Context:    "/var/lib/dpkg/lock-frontend",
		Suggestion: "Wait for it to finish.",
		Underlying: errors.New("held by pid 42"),
	}

	formatted := err.Format()
	assert.Contains(t, formatted, "[APT_LOCKED] another package manager is running")
	assert.Contains(t, formatted, "Location: /var/lib/dpkg/lock-frontend")
	assert.Contains(t, formatted, "Cause: held by pid 42")
	assert.Contains(t, formatted, "Suggestion: Wait for it to finish.")
}

func TestUserError_IsAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("permission denied")
	err := NewUserError(ErrCodeRunningAsRoot, "must not run as root").WithUnderlying(cause)
	wrapped := fmt.Errorf("precheck: %w", err)

	assert.ErrorIs(t, wrapped, &UserError{Code: ErrCodeRunningAsRoot})
	assert.NotErrorIs(t, wrapped, &UserError{Code: ErrCodeNotWSL})
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsUserError(wrapped, ErrCodeRunningAsRoot))
	assert.False(t, IsUserError(cause, ErrCodeRunningAsRoot))
	require.NotNil(t, GetUserError(wrapped))
	assert.Nil(t, GetUserError(cause))
}

func TestUserError_WithMethodsCopy(t *testing.T) {
	t.Parallel()

	base := NewUserError(ErrCodeConfigParse, "bad")
	withCtx := base.WithContext("a.yaml").WithSuggestion("fix it")

	assert.Empty(t, base.Context)
	assert.Empty(t, base.Suggestion)
	assert.Equal(t, "a.yaml", withCtx.Context)
	assert.Equal(t, "fix it", withCtx.Suggestion)
	assert.Equal(t, ErrCodeConfigParse, withCtx.Code)
}

func TestErrorList(t *testing.T) {
	t.Parallel()

	list := NewErrorList()
	assert.NoError(t, list.AsError())
	assert.Empty(t, list.Error())

	list.AddValidation("probe.timeout", "must be positive", "Use 10s.")
	assert.Equal(t, "probe.timeout: must be positive (at probe.timeout)", list.Error())

	list.Add(nil)
	list.AddValidation("node.version", "must not be empty", "")
	require.Equal(t, 2, list.Len())
	assert.Contains(t, list.Error(), "2 errors occurred")
	assert.Contains(t, list.Format(), "[VALIDATION_FAILED] node.version")

	err := list.AsError()
	assert.True(t, IsUserError(err, ErrCodeValidationFailed))
	assert.Len(t, list.Errors(), 2)
}

func TestNewConfigParseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cause   string
		message string
	}{
		{"yaml: unmarshal errors:\n  line 3: cannot unmarshal !!seq into config.ProbeConfig", "expected an object but found a list"},
		{"yaml: unmarshal errors:\n  line 2: cannot unmarshal !!map into []string", "expected a list but found an object"},
		{`invalid duration "ten": time: invalid duration "ten"`, "invalid duration"},
		{"yaml: unmarshal errors:\n  line 1: field colour not found in type config.Config", "unknown configuration key"},
		{"strict mode: fields in the document are missing in the target struct", "unknown configuration key"},
		{"yaml: line 1: did not find expected key", "invalid configuration syntax"},
	}

	for _, tt := range tests {
		err := NewConfigParseError("config.yaml", errors.New(tt.cause))
		assert.Equal(t, ErrCodeConfigParse, err.Code)
		assert.Equal(t, tt.message, err.Message, tt.cause)
		assert.NotEmpty(t, err.Suggestion)
		assert.Equal(t, "config.yaml", err.Context)
	}
}
