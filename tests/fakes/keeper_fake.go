package fakes

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/systmms/secretkeeper/pkg/keeper"
)

// MemoryStore is an in-memory keeper.Store preserving insertion order for
// scans and owner queries.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]keeper.Secret
	order []string

	// Errs maps an operation ("put", "get", "delete", "scan", "query") to an
	// error to return.
	Errs map[string]error

	// DeleteCalls counts Delete and DeleteIfPresent invocations.
	DeleteCalls int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]keeper.Secret),
		Errs:  make(map[string]error),
	}
}

func (m *MemoryStore) Put(ctx context.Context, secret keeper.Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs["put"]; err != nil {
		return err
	}
	if _, exists := m.items[secret.SecretID]; !exists {
		m.order = append(m.order, secret.SecretID)
	}
	m.items[secret.SecretID] = secret
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, secretID string) (keeper.Secret, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs["get"]; err != nil {
		return keeper.Secret{}, false, err
	}
	s, ok := m.items[secretID]
	return s, ok, nil
}

func (m *MemoryStore) Delete(ctx context.Context, secretID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if err := m.Errs["delete"]; err != nil {
		return err
	}
	m.remove(secretID)
	return nil
}

func (m *MemoryStore) DeleteIfPresent(ctx context.Context, secretID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if err := m.Errs["delete"]; err != nil {
		return false, err
	}
	if _, ok := m.items[secretID]; !ok {
		return false, nil
	}
	m.remove(secretID)
	return true, nil
}

func (m *MemoryStore) remove(secretID string) {
	delete(m.items, secretID)
	for i, id := range m.order {
		if id == secretID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *MemoryStore) ScanAll(ctx context.Context) ([]keeper.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs["scan"]; err != nil {
		return nil, err
	}
	out := make([]keeper.Secret, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *MemoryStore) QueryByOwner(ctx context.Context, ownerID string) ([]keeper.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs["query"]; err != nil {
		return nil, err
	}
	var out []keeper.Secret
	for _, id := range m.order {
		if m.items[id].OwnerID == ownerID {
			out = append(out, m.items[id])
		}
	}
	return out, nil
}

// Len reports the number of physically present records, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// ReversingCipher is a keeper.Cipher whose tokens are trivially reversible.
// Tokens carry a prefix so Decrypt can reject foreign input.
type ReversingCipher struct {
	// EncryptErr/DecryptErr force the corresponding call to fail with a
	// CryptoError wrapping them.
	EncryptErr error
	DecryptErr error

	// DecryptCalls counts Decrypt invocations.
	DecryptCalls int
}

func (c *ReversingCipher) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	if c.EncryptErr != nil {
		return "", &keeper.CryptoError{Op: "encrypt", Err: c.EncryptErr}
	}
	return "rev:" + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (c *ReversingCipher) Decrypt(ctx context.Context, cipherText string) ([]byte, error) {
	c.DecryptCalls++
	if c.DecryptErr != nil {
		return nil, &keeper.CryptoError{Op: "decrypt", Err: c.DecryptErr}
	}
	if len(cipherText) < 4 || cipherText[:4] != "rev:" {
		return nil, &keeper.CryptoError{Op: "decrypt", Err: fmt.Errorf("malformed token")}
	}
	plain, err := base64.StdEncoding.DecodeString(cipherText[4:])
	if err != nil {
		return nil, &keeper.CryptoError{Op: "decrypt", Err: err}
	}
	return plain, nil
}

// RecordingPublisher is a keeper.Publisher capturing what was dispatched.
type RecordingPublisher struct {
	// Err forces Publish to fail.
	Err error

	// Subjects and Messages record successful publishes in order.
	Subjects []string
	Messages []string
}

func (p *RecordingPublisher) Publish(ctx context.Context, subject, message string) error {
	if p.Err != nil {
		return &keeper.NotificationError{Channel: "fake", Err: p.Err}
	}
	p.Subjects = append(p.Subjects, subject)
	p.Messages = append(p.Messages, message)
	return nil
}

// CountingEmitter is a metrics emitter that tallies counts per name.
type CountingEmitter struct {
	mu sync.Mutex

	// Err forces EmitCount to fail (the count is still recorded, mirroring
	// a partially failed sink).
	Err error

	Counts map[string]int
}

// NewCountingEmitter returns an emitter with an empty tally.
func NewCountingEmitter() *CountingEmitter {
	return &CountingEmitter{Counts: make(map[string]int)}
}

func (e *CountingEmitter) EmitCount(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Counts[name]++
	return e.Err
}

// Count returns the tally for a counter name.
func (e *CountingEmitter) Count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Counts[name]
}
