package keeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	skeeper "github.com/systmms/secretkeeper/internal/keeper"
	"github.com/systmms/secretkeeper/internal/metrics"
	"github.com/systmms/secretkeeper/pkg/keeper"
	"github.com/systmms/secretkeeper/tests/fakes"
)

type fixture struct {
	service *skeeper.Service
	store   *fakes.MemoryStore
	cipher  *fakes.ReversingCipher
	emitter *fakes.CountingEmitter
	clock   *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   fakes.NewMemoryStore(),
		cipher:  &fakes.ReversingCipher{},
		emitter: fakes.NewCountingEmitter(),
		clock:   &fakeClock{now: time.Unix(1_700_000_000, 0)},
	}
	f.service = skeeper.NewService(f.cipher, f.store,
		skeeper.WithEmitter(f.emitter),
		skeeper.WithClock(f.clock.Now),
	)
	return f
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("the launch codes"), 0)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	plaintext, err := f.service.Get(ctx, "alice", id, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("the launch codes"), plaintext)
	assert.Equal(t, 1, f.emitter.Count(metrics.SecretsCreated))
}

func TestCreateAppliesDefaultLifetime(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("x"), 0)
	require.NoError(t, err)

	secrets, err := f.store.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, id, secrets[0].SecretID)
	assert.Equal(t, int64(3600), secrets[0].Lifetime())
	assert.Greater(t, secrets[0].ExpiresAt, secrets[0].CreatedAt)
}

func TestCreateHonorsRequestedLifetime(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), "alice", []byte("x"), 60)
	require.NoError(t, err)

	secrets, _ := f.store.ScanAll(context.Background())
	require.Len(t, secrets, 1)
	assert.Equal(t, int64(60), secrets[0].Lifetime())
}

func TestCreateNeverPersistsOnEncryptFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cipher.EncryptErr = errors.New("key disabled")

	_, err := f.service.Create(context.Background(), "alice", []byte("x"), 0)
	require.Error(t, err)
	assert.True(t, keeper.IsCrypto(err))
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, 0, f.emitter.Count(metrics.SecretsCreated))
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "", []byte("x"), 0)
	assert.True(t, errors.Is(err, keeper.ErrInvalidRequest))

	_, err = f.service.Create(ctx, "alice", nil, 0)
	assert.True(t, errors.Is(err, keeper.ErrInvalidRequest))
}

func TestGetByNonOwnerIndistinguishableFromAbsent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("private"), 0)
	require.NoError(t, err)

	_, ownerErr := f.service.Get(ctx, "mallory", id, false)
	_, absentErr := f.service.Get(ctx, "mallory", "00000000-0000-0000-0000-000000000000", false)

	require.Error(t, ownerErr)
	require.Error(t, absentErr)
	assert.True(t, errors.Is(ownerErr, keeper.ErrNotFound))
	assert.True(t, errors.Is(absentErr, keeper.ErrNotFound))
	assert.Equal(t, keeper.StatusKind(ownerErr), keeper.StatusKind(absentErr))
}

func TestGetExpiredTreatedAsAbsent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("ephemeral"), 1)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Second)

	_, err = f.service.Get(ctx, "alice", id, false)
	assert.True(t, errors.Is(err, keeper.ErrNotFound))
	// The record is logically absent but physically still present.
	assert.Equal(t, 1, f.store.Len())
}

func TestBurnAfterRead(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("read me once"), 0)
	require.NoError(t, err)

	plaintext, err := f.service.Get(ctx, "alice", id, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("read me once"), plaintext)
	assert.Equal(t, 1, f.emitter.Count(metrics.SecretsDeleted))

	_, err = f.service.Get(ctx, "alice", id, false)
	assert.True(t, errors.Is(err, keeper.ErrNotFound))
	assert.Equal(t, 0, f.store.Len())
}

func TestBurnSkippedOnDecryptFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("retry me"), 0)
	require.NoError(t, err)

	f.cipher.DecryptErr = errors.New("kms unavailable")
	_, err = f.service.Get(ctx, "alice", id, true)
	require.Error(t, err)
	assert.True(t, keeper.IsCrypto(err))

	// The secret survives so the owner can retry once the key is healthy.
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, 0, f.emitter.Count(metrics.SecretsDeleted))

	f.cipher.DecryptErr = nil
	plaintext, err := f.service.Get(ctx, "alice", id, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("retry me"), plaintext)
}

func TestBurnRaceEmitsAtMostOneDeletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("contested"), 0)
	require.NoError(t, err)

	// Simulate the loser of a burn race: the record vanishes between the
	// decrypt and the conditional delete.
	plaintext, err := f.service.Get(ctx, "alice", id, false)
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(ctx, id))
	deletionsBefore := f.emitter.Count(metrics.SecretsDeleted)

	removed, err := f.store.DeleteIfPresent(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NotEmpty(t, plaintext)
	assert.Equal(t, deletionsBefore, f.emitter.Count(metrics.SecretsDeleted))
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, "alice", []byte("x"), 0)
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, "alice", id))
	require.NoError(t, f.service.Delete(ctx, "alice", id))
	require.NoError(t, f.service.Delete(ctx, "alice", "never-existed"))
	assert.Equal(t, 3, f.emitter.Count(metrics.SecretsDeleted))
}

func TestDeleteDoesNotCheckOwnership(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Baseline behavior: any caller who knows the id may delete it.
	id, err := f.service.Create(ctx, "alice", []byte("x"), 0)
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, "mallory", id))
	assert.Equal(t, 0, f.store.Len())
}

func TestListReturnsOwnSecretsIncludingExpired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	shortID, err := f.service.Create(ctx, "alice", []byte("short"), 1)
	require.NoError(t, err)
	longID, err := f.service.Create(ctx, "alice", []byte("long"), 3600)
	require.NoError(t, err)
	_, err = f.service.Create(ctx, "bob", []byte("not alice's"), 3600)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Second)

	entries, err := f.service.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ids := []string{entries[0].SecretID, entries[1].SecretID}
	assert.Contains(t, ids, shortID)
	assert.Contains(t, ids, longID)
	for _, e := range entries {
		assert.Equal(t, "alice", e.OwnerID)
	}

	// The expired secret's payload is gone for get, but its metadata stays
	// listed.
	_, err = f.service.Get(ctx, "alice", shortID, false)
	assert.True(t, errors.Is(err, keeper.ErrNotFound))
}

func TestListNeverExposesPayload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "alice", []byte("payload"), 0)
	require.NoError(t, err)

	entries, err := f.service.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Entry carries metadata only; there is no payload field to leak.
	assert.NotEmpty(t, entries[0].SecretID)
	assert.NotZero(t, entries[0].CreatedAt)
	assert.NotZero(t, entries[0].ExpiresAt)
}

func TestStoreFailurePropagatesAsRetryable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.store.Errs["put"] = &keeper.StoreError{Op: "put", Err: errors.New("throttled")}

	_, err := f.service.Create(ctx, "alice", []byte("x"), 0)
	require.Error(t, err)
	assert.True(t, keeper.IsStoreUnavailable(err))
	assert.Equal(t, 0, f.emitter.Count(metrics.SecretsCreated))
}

func TestEmitFailureDoesNotFailOperation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.emitter.Err = errors.New("sink down")

	id, err := f.service.Create(context.Background(), "alice", []byte("x"), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
