package keeper

import (
	"context"
)

// DefaultTTLSeconds is the requested lifetime applied when a create request
// does not specify one.
const DefaultTTLSeconds int64 = 3600

// Secret is the stored representation of a user secret. The payload is held
// only as ciphertext; plaintext never leaves the Cipher boundary.
type Secret struct {
	// SecretID is the service-assigned unique identifier and the store's
	// primary key. Callers never choose it.
	SecretID string

	// OwnerID is the trusted identity of the creating user. It scopes every
	// read: a secret is invisible to any other identity.
	OwnerID string

	// CipherText is the base64-encoded ciphertext blob produced by the
	// Cipher. Opaque to the store.
	CipherText string

	// CreatedAt is the creation time in seconds since the Unix epoch.
	CreatedAt int64

	// ExpiresAt is the absolute expiry time in seconds since the Unix epoch.
	// Always strictly greater than CreatedAt.
	ExpiresAt int64
}

// Expired reports whether the secret's lifetime has elapsed at the given
// Unix timestamp. Expired secrets may still be physically present in the
// store; readers must treat them as absent.
func (s Secret) Expired(nowUnix int64) bool {
	return s.ExpiresAt <= nowUnix
}

// Lifetime returns the configured lifetime of the secret in seconds,
// regardless of whether it has expired.
func (s Secret) Lifetime() int64 {
	return s.ExpiresAt - s.CreatedAt
}

// Cipher is the envelope-encryption oracle bound to a single designated key.
//
// Both operations are stateless and independent; there are no ordering
// requirements between calls. Implementations wrap failures in CryptoError,
// which callers must treat as non-retryable.
type Cipher interface {
	// Encrypt turns plaintext into an opaque ciphertext token suitable for
	// storage as a string.
	Encrypt(ctx context.Context, plaintext []byte) (string, error)

	// Decrypt reverses Encrypt. The token must have been produced by this
	// cipher (or one sharing its key); anything else fails with CryptoError.
	Decrypt(ctx context.Context, cipherText string) ([]byte, error)
}

// Store is the durable secret table with a secondary index by owner.
//
// The store guarantees read-your-write visibility for a single caller and
// per-key atomicity for Put/Get/Delete, but no cross-caller linearizability.
// Unavailability surfaces as StoreError, which callers may retry.
type Store interface {
	// Put inserts or replaces a secret by its SecretID.
	Put(ctx context.Context, secret Secret) error

	// Get looks up a secret by id. Absence is reported via the boolean, not
	// an error.
	Get(ctx context.Context, secretID string) (Secret, bool, error)

	// Delete removes a secret. Deleting an absent id is not an error.
	Delete(ctx context.Context, secretID string) error

	// DeleteIfPresent atomically deletes the secret only if it still exists,
	// reporting whether this call removed it. This is the burn-after-read
	// primitive: of several concurrent burns, at most one observes true.
	DeleteIfPresent(ctx context.Context, secretID string) (bool, error)

	// ScanAll returns every secret in the table. Used only by the summary
	// reporter. Malformed records are skipped, never fatal.
	ScanAll(ctx context.Context) ([]Secret, error)

	// QueryByOwner returns all secrets belonging to the given owner, in
	// store order, including expired ones.
	QueryByOwner(ctx context.Context, ownerID string) ([]Secret, error)
}

// Publisher delivers a formatted report over an external notification
// channel. Failures wrap to NotificationError and are surfaced to the caller,
// never swallowed.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) error
}
