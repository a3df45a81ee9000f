package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// AWSSuggestion returns a helpful suggestion for common AWS failures, or ""
// when no specific advice applies.
func AWSSuggestion(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()

	if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	}
	if strings.Contains(errStr, "AccessDenied") {
		return "Check IAM permissions for the KMS key, DynamoDB table and SNS topic"
	}
	if strings.Contains(errStr, "ResourceNotFoundException") {
		return "Verify the table name and region in secretkeeper.yaml"
	}
	if strings.Contains(errStr, "NotFoundException") || strings.Contains(errStr, "DisabledException") {
		return "Verify the KMS key id and that the key is enabled"
	}
	if strings.Contains(errStr, "ThrottlingException") || strings.Contains(errStr, "ProvisionedThroughputExceeded") {
		return "AWS rate limit exceeded. Wait a moment and try again"
	}
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and the configured region/endpoint"
	}

	return ""
}
