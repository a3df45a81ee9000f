package keeper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	skeeper "github.com/systmms/secretkeeper/internal/keeper"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

func TestHandleCreateGetDeleteList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Handle(ctx, skeeper.Request{
		Operation:   skeeper.OpCreate,
		RequesterID: "alice",
		Payload:     skeeper.Payload{Secret: "hello", TTL: 120},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", created.Status)
	require.NotEmpty(t, created.SecretID)

	got, err := f.service.Handle(ctx, skeeper.Request{
		Operation:   skeeper.OpGet,
		RequesterID: "alice",
		Payload:     skeeper.Payload{SecretID: created.SecretID},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Secret)

	listed, err := f.service.Handle(ctx, skeeper.Request{
		Operation:   skeeper.OpList,
		RequesterID: "alice",
	})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, created.SecretID, listed.Items[0].SecretID)
	assert.Equal(t, "alice", listed.Items[0].OwnerID)
	assert.Empty(t, listed.Secret)

	deleted, err := f.service.Handle(ctx, skeeper.Request{
		Operation:   skeeper.OpDelete,
		RequesterID: "alice",
		Payload:     skeeper.Payload{SecretID: created.SecretID},
	})
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
}

func TestHandleBurnAfterRead(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Handle(ctx, skeeper.Request{
		Operation:   skeeper.OpCreate,
		RequesterID: "alice",
		Payload:     skeeper.Payload{Secret: "once"},
	})
	require.NoError(t, err)

	got, err := f.service.Handle(ctx, skeeper.Request{
		Operation:   skeeper.OpGet,
		RequesterID: "alice",
		Payload:     skeeper.Payload{SecretID: created.SecretID, BurnAfterRead: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "once", got.Secret)

	_, err = f.service.Handle(ctx, skeeper.Request{
		Operation:   skeeper.OpGet,
		RequesterID: "alice",
		Payload:     skeeper.Payload{SecretID: created.SecretID},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, keeper.ErrNotFound))
}

func TestHandleUnknownOperation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, err := f.service.Handle(context.Background(), skeeper.Request{
		Operation:   "explode",
		RequesterID: "alice",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, keeper.ErrInvalidRequest))
	assert.Equal(t, "invalid_request", resp.Status)
}

func TestHandleFailureResponseCarriesOnlyStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, err := f.service.Handle(context.Background(), skeeper.Request{
		Operation:   skeeper.OpGet,
		RequesterID: "alice",
		Payload:     skeeper.Payload{SecretID: "missing"},
	})
	require.Error(t, err)
	assert.Equal(t, "not_found", resp.Status)
	assert.Empty(t, resp.Secret)
	assert.Empty(t, resp.SecretID)
	assert.Empty(t, resp.Items)
}
