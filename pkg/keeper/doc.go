// Package keeper defines the core contracts and types for the secret keeper
// service.
//
// This package provides the abstractions the lifecycle service is built
// against: the Secret entity, the Cipher (encryption oracle), the Store
// (durable table with an owner index), and the Publisher (notification
// channel). Concrete adapters for AWS KMS, DynamoDB and SNS live under
// internal/; the interfaces here keep the service testable against fakes.
//
// # Error Handling
//
// Callers distinguish failure classes with the helpers in this package:
//   - ErrNotFound for secrets that are absent, expired, or owned by someone
//     else. These cases are deliberately indistinguishable so a lookup never
//     reveals whether another owner's secret exists.
//   - CryptoError for encryption oracle failures. Not retryable without
//     operator intervention.
//   - StoreError for store unavailability. Transient; callers may retry with
//     backoff.
//   - ErrInvalidRequest for malformed or unknown operations.
//   - NotificationError for report delivery failures.
//
// # Security Considerations
//
// Plaintext exists only between the caller and the Cipher boundary. The Store
// only ever sees ciphertext, and list results carry metadata but never
// payloads. Implementations must never log secret values; use the
// logging.Secret wrapper when a value has to appear in a format string.
package keeper
