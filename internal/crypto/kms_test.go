package crypto_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/secretkeeper/internal/crypto"
	"github.com/systmms/secretkeeper/pkg/keeper"
	"github.com/systmms/secretkeeper/tests/fakes"
)

func newGateway(t *testing.T, client crypto.KMSClientAPI) *crypto.KMSGateway {
	t.Helper()
	g, err := crypto.NewKMSGateway(context.Background(), "alias/secret-keeper-key", "us-east-1",
		crypto.Options{}, crypto.WithKMSClient(client))
	require.NoError(t, err)
	return g
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()
	g := newGateway(t, &fakes.FakeKMSClient{})
	ctx := context.Background()

	token, err := g.Encrypt(ctx, []byte("attack at dawn"))
	require.NoError(t, err)

	// The token is valid base64 of the oracle's blob.
	_, err = base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)

	plain, err := g.Decrypt(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, []byte("attack at dawn"), plain)
}

func TestEncryptOracleFailure(t *testing.T) {
	t.Parallel()
	g := newGateway(t, &fakes.FakeKMSClient{EncryptErr: errors.New("DisabledException")})

	_, err := g.Encrypt(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.True(t, keeper.IsCrypto(err))

	var ce *keeper.CryptoError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "encrypt", ce.Op)
	assert.Equal(t, "alias/secret-keeper-key", ce.KeyID)
}

func TestDecryptOracleFailure(t *testing.T) {
	t.Parallel()
	g := newGateway(t, &fakes.FakeKMSClient{DecryptErr: errors.New("InvalidCiphertextException")})

	token := base64.StdEncoding.EncodeToString([]byte("whatever"))
	_, err := g.Decrypt(context.Background(), token)
	require.Error(t, err)
	assert.True(t, keeper.IsCrypto(err))
}

func TestDecryptRejectsMalformedToken(t *testing.T) {
	t.Parallel()
	client := &fakes.FakeKMSClient{}
	g := newGateway(t, client)

	_, err := g.Decrypt(context.Background(), "not%%base64!!")
	require.Error(t, err)
	assert.True(t, keeper.IsCrypto(err))
	assert.Zero(t, client.DecryptCalls, "malformed tokens never reach the oracle")
}

func TestNewKMSGatewayRequiresKeyID(t *testing.T) {
	t.Parallel()
	_, err := crypto.NewKMSGateway(context.Background(), "", "us-east-1", crypto.Options{},
		crypto.WithKMSClient(&fakes.FakeKMSClient{}))
	assert.Error(t, err)
}
