package crypto

import (
	"context"
	"encoding/base64"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

// KMSClientAPI defines the interface for AWS KMS operations.
// This allows for mocking in tests.
type KMSClientAPI interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSGateway implements keeper.Cipher on top of AWS KMS under a single
// designated key. The gateway holds no state beyond its client; every call
// is independent.
type KMSGateway struct {
	client KMSClientAPI
	keyID  string
}

// Options configures optional gateway behavior.
type Options struct {
	// Endpoint overrides the KMS endpoint for LocalStack or testing.
	Endpoint string

	// Static credentials for LocalStack or testing.
	AccessKeyID     string
	SecretAccessKey string
}

// GatewayOption is a functional option for configuring the gateway.
type GatewayOption func(*KMSGateway)

// WithKMSClient sets a custom KMS client (for testing).
func WithKMSClient(client KMSClientAPI) GatewayOption {
	return func(g *KMSGateway) {
		g.client = client
	}
}

// NewKMSGateway creates a gateway bound to the given key in the given region.
func NewKMSGateway(ctx context.Context, keyID, region string, options Options, opts ...GatewayOption) (*KMSGateway, error) {
	if keyID == "" {
		return nil, fmt.Errorf("kms gateway requires a key id")
	}

	g := &KMSGateway{keyID: keyID}

	for _, opt := range opts {
		opt(g)
	}

	if g.client == nil {
		var configOpts []func(*awsconfig.LoadOptions) error
		configOpts = append(configOpts, awsconfig.WithRegion(region))

		if options.AccessKeyID != "" && options.SecretAccessKey != "" {
			configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(options.AccessKeyID, options.SecretAccessKey, ""),
			))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*kms.Options)
		if options.Endpoint != "" {
			endpoint := options.Endpoint
			clientOpts = append(clientOpts, func(o *kms.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		g.client = kms.NewFromConfig(cfg, clientOpts...)
	}

	return g, nil
}

// KeyID returns the designated key identifier.
func (g *KMSGateway) KeyID() string {
	return g.keyID
}

// Encrypt encrypts plaintext under the designated key and returns the
// ciphertext blob base64-encoded for storage as an opaque string.
func (g *KMSGateway) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	out, err := g.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     &g.keyID,
		Plaintext: plaintext,
	})
	if err != nil {
		return "", &keeper.CryptoError{Op: "encrypt", KeyID: g.keyID, Err: err}
	}
	if len(out.CiphertextBlob) == 0 {
		return "", &keeper.CryptoError{Op: "encrypt", KeyID: g.keyID, Err: fmt.Errorf("oracle returned empty ciphertext")}
	}
	return base64.StdEncoding.EncodeToString(out.CiphertextBlob), nil
}

// Decrypt decodes the stored token and asks the oracle to decrypt it. KMS
// infers the key from the ciphertext blob itself.
func (g *KMSGateway) Decrypt(ctx context.Context, cipherText string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return nil, &keeper.CryptoError{Op: "decrypt", KeyID: g.keyID, Err: fmt.Errorf("malformed ciphertext token: %w", err)}
	}

	out, err := g.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: blob,
	})
	if err != nil {
		return nil, &keeper.CryptoError{Op: "decrypt", KeyID: g.keyID, Err: err}
	}
	return out.Plaintext, nil
}
