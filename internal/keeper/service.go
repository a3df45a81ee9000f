// Package keeper implements the secret lifecycle service: create, get with
// optional burn-after-read, delete and list, with ownership and expiry
// enforcement.
package keeper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/systmms/secretkeeper/internal/logging"
	"github.com/systmms/secretkeeper/internal/metrics"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

// Entry is one row of a list result: secret metadata without any payload.
// List never decrypts and never returns ciphertext.
type Entry struct {
	SecretID  string `json:"secret_id"`
	OwnerID   string `json:"owner_id"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Service orchestrates the secret lifecycle. All collaborators are injected
// at construction; the service keeps no mutable state between calls, so a
// single instance is safe for concurrent use.
type Service struct {
	cipher     keeper.Cipher
	store      keeper.Store
	emitter    metrics.Emitter
	logger     *logging.Logger
	defaultTTL int64
	now        func() time.Time
}

// ServiceOption is a functional option for configuring the service.
type ServiceOption func(*Service)

// WithEmitter sets the counter emitter. Defaults to a discard emitter.
func WithEmitter(e metrics.Emitter) ServiceOption {
	return func(s *Service) {
		s.emitter = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithDefaultTTL sets the lifetime applied when a create request does not
// specify one.
func WithDefaultTTL(seconds int64) ServiceOption {
	return func(s *Service) {
		if seconds > 0 {
			s.defaultTTL = seconds
		}
	}
}

// WithClock sets the time source. Tests use this to pin expiry behavior.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a lifecycle service over the given cipher and store.
func NewService(cipher keeper.Cipher, store keeper.Store, opts ...ServiceOption) *Service {
	s := &Service{
		cipher:     cipher,
		store:      store,
		emitter:    metrics.Discard{},
		logger:     logging.New(false, true),
		defaultTTL: keeper.DefaultTTLSeconds,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create encrypts the plaintext, persists a new secret owned by the
// requester and returns its id. Nothing is persisted when encryption fails.
// A non-positive ttl falls back to the configured default.
func (s *Service) Create(ctx context.Context, requesterID string, plaintext []byte, ttlSeconds int64) (string, error) {
	if requesterID == "" {
		return "", keeper.InvalidRequestError{Reason: "missing requester id"}
	}
	if len(plaintext) == 0 {
		return "", keeper.InvalidRequestError{Reason: "missing secret payload"}
	}
	if ttlSeconds <= 0 {
		ttlSeconds = s.defaultTTL
	}

	cipherText, err := s.cipher.Encrypt(ctx, plaintext)
	if err != nil {
		return "", err
	}

	nowUnix := s.now().Unix()
	secret := keeper.Secret{
		SecretID:   uuid.NewString(),
		OwnerID:    requesterID,
		CipherText: cipherText,
		CreatedAt:  nowUnix,
		ExpiresAt:  nowUnix + ttlSeconds,
	}

	if err := s.store.Put(ctx, secret); err != nil {
		return "", err
	}

	s.emit(ctx, metrics.SecretsCreated)
	s.logger.Debug("created secret %s for owner %s", secret.SecretID, requesterID)
	return secret.SecretID, nil
}

// Get returns the decrypted payload of an owned, unexpired secret. Absence,
// ownership mismatch and expiry all answer with the same NotFoundError so a
// lookup never reveals whether someone else's secret exists.
//
// With burn set, the record is deleted after a successful decrypt. A decrypt
// failure leaves the record in place so the owner can retry once the key is
// healthy again.
func (s *Service) Get(ctx context.Context, requesterID, secretID string, burn bool) ([]byte, error) {
	if requesterID == "" || secretID == "" {
		return nil, keeper.InvalidRequestError{Reason: "missing requester or secret id"}
	}

	secret, found, err := s.store.Get(ctx, secretID)
	if err != nil {
		return nil, err
	}
	if !found || secret.OwnerID != requesterID {
		return nil, keeper.NotFoundError{SecretID: secretID}
	}
	if secret.Expired(s.now().Unix()) {
		// The record may still be physically present; reaping is out of
		// band. Readers treat it as absent.
		return nil, keeper.NotFoundError{SecretID: secretID}
	}

	plaintext, err := s.cipher.Decrypt(ctx, secret.CipherText)
	if err != nil {
		return nil, err
	}

	if burn {
		removed, err := s.store.DeleteIfPresent(ctx, secretID)
		if err != nil {
			// The caller already holds the plaintext; surface the failed
			// burn instead of pretending the secret is gone.
			return nil, err
		}
		if removed {
			s.emit(ctx, metrics.SecretsDeleted)
		} else {
			s.logger.Debug("burn delete raced for %s, already gone", secretID)
		}
	}

	return plaintext, nil
}

// Delete removes the secret unconditionally and idempotently: deleting an
// absent or already-deleted id succeeds. Ownership is not checked, matching
// the baseline behavior; the trade-off is recorded in DESIGN.md.
func (s *Service) Delete(ctx context.Context, requesterID, secretID string) error {
	if requesterID == "" || secretID == "" {
		return keeper.InvalidRequestError{Reason: "missing requester or secret id"}
	}

	if err := s.store.Delete(ctx, secretID); err != nil {
		return err
	}

	s.emit(ctx, metrics.SecretsDeleted)
	return nil
}

// List returns metadata for every secret the requester owns, in store order,
// including expired ones. Expiry filtering is left to the caller.
func (s *Service) List(ctx context.Context, requesterID string) ([]Entry, error) {
	if requesterID == "" {
		return nil, keeper.InvalidRequestError{Reason: "missing requester id"}
	}

	secrets, err := s.store.QueryByOwner(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(secrets))
	for _, secret := range secrets {
		entries = append(entries, Entry{
			SecretID:  secret.SecretID,
			OwnerID:   secret.OwnerID,
			CreatedAt: secret.CreatedAt,
			ExpiresAt: secret.ExpiresAt,
		})
	}
	return entries, nil
}

// emit records a counter event. Metric sink failures are logged, never
// propagated into the user operation.
func (s *Service) emit(ctx context.Context, name string) {
	if err := s.emitter.EmitCount(ctx, name); err != nil {
		s.logger.Warn("failed to emit %s: %v", name, err)
	}
}
