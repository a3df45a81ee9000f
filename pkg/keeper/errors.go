package keeper

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two caller-addressable failure classes. Adapters
// and the service wrap these so errors.Is works across the module.
var (
	// ErrNotFound covers a secret that is absent, expired, or owned by a
	// different identity. The three cases are deliberately collapsed so a
	// lookup never leaks whether another owner's secret exists.
	ErrNotFound = errors.New("secret not found")

	// ErrInvalidRequest indicates an unknown operation or a malformed
	// payload.
	ErrInvalidRequest = errors.New("invalid request")
)

// NotFoundError carries the looked-up id alongside ErrNotFound. The message
// never states why the secret was not found.
type NotFoundError struct {
	SecretID string
}

func (e NotFoundError) Error() string {
	return "secret not found: " + e.SecretID
}

func (e NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidRequestError carries a human-readable reason alongside
// ErrInvalidRequest.
type InvalidRequestError struct {
	Reason string
}

func (e InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

func (e InvalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

// CryptoError wraps an encryption oracle failure with context.
//
// Crypto failures are not retryable without operator intervention (key
// disabled, malformed ciphertext); the service surfaces them as-is and
// guarantees no state was mutated.
type CryptoError struct {
	Op    string // "encrypt" or "decrypt"
	KeyID string
	Err   error
}

func (e *CryptoError) Error() string {
	if e.KeyID != "" {
		return fmt.Sprintf("crypto %s error under key %s: %v", e.Op, e.KeyID, e.Err)
	}
	return fmt.Sprintf("crypto %s error: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// IsCrypto reports whether err is (or wraps) a CryptoError.
func IsCrypto(err error) bool {
	var ce *CryptoError
	return errors.As(err, &ce)
}

// StoreError wraps a store unavailability failure with the operation that
// hit it. Transient; callers may retry with backoff.
type StoreError struct {
	Op  string // "put", "get", "delete", "scan", "query"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("secret store %s error: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreUnavailable reports whether err is (or wraps) a StoreError.
func IsStoreUnavailable(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// NotificationError wraps a report delivery failure. Reporter-only; the run
// that hit it has already completed its read-only scan.
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("notification error on %s: %v", e.Channel, e.Err)
	}
	return fmt.Sprintf("notification error: %v", e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// StatusKind maps an error to the stable error-kind string reported to
// callers. Internal details (key ids, table names, SDK messages) never
// appear here.
func StatusKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case IsCrypto(err):
		return "crypto_failure"
	case IsStoreUnavailable(err):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
