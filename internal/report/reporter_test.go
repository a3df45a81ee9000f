package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/secretkeeper/internal/report"
	"github.com/systmms/secretkeeper/pkg/keeper"
	"github.com/systmms/secretkeeper/tests/fakes"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func seed(t *testing.T, store *fakes.MemoryStore, secrets ...keeper.Secret) {
	t.Helper()
	for _, s := range secrets {
		require.NoError(t, store.Put(context.Background(), s))
	}
}

func TestRunAggregatesAndDispatches(t *testing.T) {
	t.Parallel()
	store := fakes.NewMemoryStore()
	pub := &fakes.RecordingPublisher{}

	// Secret A: lifetime 3600, still live at now=2000.
	// Secret B: lifetime 60, expired at now=2000.
	seed(t, store,
		keeper.Secret{SecretID: "a", OwnerID: "alice", CipherText: "c", CreatedAt: 1000, ExpiresAt: 4600},
		keeper.Secret{SecretID: "b", OwnerID: "alice", CipherText: "c", CreatedAt: 1000, ExpiresAt: 1060},
	)

	r := report.NewReporter(store, pub, report.WithClock(fixedClock(2000)))
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Expired)
	// Mean of both full configured lifetimes: (3600 + 60) / 2 = 1830s.
	assert.InDelta(t, 1830.0, summary.AvgLifetimeSeconds, 0.001)
	assert.InDelta(t, 30.5, summary.AvgLifetimeMinutes(), 0.001)

	require.Len(t, pub.Messages, 1)
	assert.Equal(t, report.Subject, pub.Subjects[0])
	assert.Equal(t,
		"Serverless Secret Keeper Summary\nTotal secrets: 2\nExpired: 1\nAvg TTL: 30.50 min",
		pub.Messages[0])
}

func TestRunEmptyStore(t *testing.T) {
	t.Parallel()
	store := fakes.NewMemoryStore()
	pub := &fakes.RecordingPublisher{}

	summary, err := report.NewReporter(store, pub).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Expired)
	assert.Zero(t, summary.AvgLifetimeSeconds)

	require.Len(t, pub.Messages, 1)
	assert.Contains(t, pub.Messages[0], "Total secrets: 0")
	assert.Contains(t, pub.Messages[0], "Avg TTL: 0.00 min")
}

func TestRunScanFailureAbortsBeforeDispatch(t *testing.T) {
	t.Parallel()
	store := fakes.NewMemoryStore()
	store.Errs["scan"] = &keeper.StoreError{Op: "scan", Err: errors.New("throttled")}
	pub := &fakes.RecordingPublisher{}

	_, err := report.NewReporter(store, pub).Run(context.Background())
	require.Error(t, err)
	assert.True(t, keeper.IsStoreUnavailable(err))
	assert.Empty(t, pub.Messages, "no partial dispatch after a failed scan")
}

func TestRunPublishFailureSurfaced(t *testing.T) {
	t.Parallel()
	store := fakes.NewMemoryStore()
	seed(t, store, keeper.Secret{SecretID: "a", OwnerID: "alice", CipherText: "c", CreatedAt: 1, ExpiresAt: 2})
	pub := &fakes.RecordingPublisher{Err: errors.New("topic gone")}

	summary, err := report.NewReporter(store, pub).Run(context.Background())
	require.Error(t, err)
	var notifErr *keeper.NotificationError
	assert.True(t, errors.As(err, &notifErr))
	// The scan completed; the summary is still reported to the caller.
	assert.Equal(t, 1, summary.Total)
}

func TestRunNeverMutatesStore(t *testing.T) {
	t.Parallel()
	store := fakes.NewMemoryStore()
	seed(t, store,
		keeper.Secret{SecretID: "a", OwnerID: "alice", CipherText: "c", CreatedAt: 1, ExpiresAt: 2},
		keeper.Secret{SecretID: "b", OwnerID: "bob", CipherText: "c", CreatedAt: 1, ExpiresAt: 9999999999},
	)

	_, err := report.NewReporter(store, &fakes.RecordingPublisher{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len(), "expired records are reaped out of band, not by the reporter")
	assert.Equal(t, 0, store.DeleteCalls)
}

func TestComputeCountsBoundaryExpiry(t *testing.T) {
	t.Parallel()
	// expires_at == now counts as expired.
	summary := report.Compute([]keeper.Secret{
		{SecretID: "a", CreatedAt: 0, ExpiresAt: 2000},
	}, 2000)
	assert.Equal(t, 1, summary.Expired)
}
