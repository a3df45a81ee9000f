package metrics

import (
	"context"
)

// Counter names emitted by the lifecycle service.
const (
	SecretsCreated = "SecretsCreated"
	SecretsDeleted = "SecretsDeleted"
)

// Emitter records a single occurrence of a named counter event. Emission is
// best-effort from the caller's point of view: the lifecycle service logs
// emit failures but never fails a user operation on them.
type Emitter interface {
	EmitCount(ctx context.Context, name string) error
}

// Discard is an Emitter that drops everything. Used in tests and when no
// metrics sink is configured.
type Discard struct{}

func (Discard) EmitCount(ctx context.Context, name string) error {
	return nil
}

// Multi fans a count out to several emitters, returning the first error
// after attempting all of them.
type Multi []Emitter

func (m Multi) EmitCount(ctx context.Context, name string) error {
	var firstErr error
	for _, e := range m {
		if err := e.EmitCount(ctx, name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
