package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserErrorFormatting(t *testing.T) {
	err := UserError{
		Message:    "Failed to read configuration file",
		Details:    "permission denied",
		Suggestion: "Check file permissions and path",
	}
	msg := err.Error()
	assert.Contains(t, msg, "Failed to read configuration file")
	assert.Contains(t, msg, "Details: permission denied")
	assert.Contains(t, msg, "Try: Check file permissions")
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	inner := errors.New("boom")
	err := UserError{Err: inner}
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, inner, errors.Unwrap(err))
}

func TestConfigErrorFormatting(t *testing.T) {
	err := ConfigError{
		Field:      "table_name",
		Value:      "",
		Message:    "table name is required",
		Suggestion: "Set table_name in secretkeeper.yaml",
	}
	msg := err.Error()
	assert.Contains(t, msg, "table_name")
	assert.Contains(t, msg, "table name is required")
}

func TestAWSSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"access denied", errors.New("api error AccessDenied"), "IAM permissions"},
		{"missing table", errors.New("ResourceNotFoundException: table"), "table name"},
		{"disabled key", errors.New("DisabledException: key"), "KMS key"},
		{"throttled", errors.New("ThrottlingException"), "rate limit"},
		{"unknown", errors.New("weird"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AWSSuggestion(tt.err)
			if tt.want == "" {
				assert.Empty(t, got)
			} else {
				assert.Contains(t, got, tt.want)
			}
		})
	}
}
