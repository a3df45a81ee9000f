package store

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/systmms/secretkeeper/internal/logging"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

// DynamoDBClientAPI defines the interface for DynamoDB operations.
// This allows for mocking in tests.
type DynamoDBClientAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// record mirrors the table schema. Attribute names match the original
// SecretsTable layout; ttl doubles as the DynamoDB TTL attribute.
type record struct {
	SecretID   string `dynamodbav:"secret_id"`
	OwnerID    string `dynamodbav:"user_id"`
	CipherText string `dynamodbav:"cipher_text"`
	CreatedAt  int64  `dynamodbav:"created_at"`
	ExpiresAt  int64  `dynamodbav:"ttl"`
}

// DynamoDBStore implements keeper.Store on top of a DynamoDB table keyed by
// secret_id with a secondary index keyed by user_id.
type DynamoDBStore struct {
	client     DynamoDBClientAPI
	table      string
	ownerIndex string
	logger     *logging.Logger
}

// Options configures optional store behavior.
type Options struct {
	// OwnerIndex names the secondary index keyed by owner. Defaults to
	// user_id-index.
	OwnerIndex string

	// Endpoint overrides the DynamoDB endpoint for LocalStack or testing.
	Endpoint string

	// Static credentials for LocalStack or testing.
	AccessKeyID     string
	SecretAccessKey string

	// Logger receives warnings about malformed records skipped in scans.
	Logger *logging.Logger
}

// StoreOption is a functional option for configuring the store.
type StoreOption func(*DynamoDBStore)

// WithDynamoDBClient sets a custom DynamoDB client (for testing).
func WithDynamoDBClient(client DynamoDBClientAPI) StoreOption {
	return func(s *DynamoDBStore) {
		s.client = client
	}
}

// NewDynamoDBStore creates a store bound to the given table in the given
// region.
func NewDynamoDBStore(ctx context.Context, table, region string, options Options, opts ...StoreOption) (*DynamoDBStore, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb store requires a table name")
	}

	s := &DynamoDBStore{
		table:      table,
		ownerIndex: options.OwnerIndex,
		logger:     options.Logger,
	}
	if s.ownerIndex == "" {
		s.ownerIndex = "user_id-index"
	}
	if s.logger == nil {
		s.logger = logging.New(false, true)
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
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

		var clientOpts []func(*dynamodb.Options)
		if options.Endpoint != "" {
			endpoint := options.Endpoint
			clientOpts = append(clientOpts, func(o *dynamodb.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = dynamodb.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

// Put inserts or replaces the secret by its id.
func (s *DynamoDBStore) Put(ctx context.Context, secret keeper.Secret) error {
	item, err := attributevalue.MarshalMap(record{
		SecretID:   secret.SecretID,
		OwnerID:    secret.OwnerID,
		CipherText: secret.CipherText,
		CreatedAt:  secret.CreatedAt,
		ExpiresAt:  secret.ExpiresAt,
	})
	if err != nil {
		return &keeper.StoreError{Op: "put", Err: err}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return &keeper.StoreError{Op: "put", Err: err}
	}
	return nil
}

// Get fetches a secret by id. A consistent read keeps read-your-write
// visibility for a single caller.
func (s *DynamoDBStore) Get(ctx context.Context, secretID string) (keeper.Secret, bool, error) {
	consistent := true
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		Key:            keyFor(secretID),
		ConsistentRead: &consistent,
	})
	if err != nil {
		return keeper.Secret{}, false, &keeper.StoreError{Op: "get", Err: err}
	}
	if len(out.Item) == 0 {
		return keeper.Secret{}, false, nil
	}

	secret, err := unmarshalSecret(out.Item)
	if err != nil {
		// A corrupt record under a direct lookup is indistinguishable from
		// absence to the caller.
		s.logger.Warn("skipping malformed record for %s: %v", secretID, err)
		return keeper.Secret{}, false, nil
	}
	return secret, true, nil
}

// Delete removes the secret unconditionally. Deleting an absent id succeeds.
func (s *DynamoDBStore) Delete(ctx context.Context, secretID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       keyFor(secretID),
	})
	if err != nil {
		return &keeper.StoreError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteIfPresent deletes the secret only if it still exists, reporting
// whether this call removed it. DynamoDB's conditional delete makes this
// atomic per key, so of several racing burns at most one observes true.
func (s *DynamoDBStore) DeleteIfPresent(ctx context.Context, secretID string) (bool, error) {
	condition := "attribute_exists(secret_id)"
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &s.table,
		Key:                 keyFor(secretID),
		ConditionExpression: &condition,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return false, nil
		}
		return false, &keeper.StoreError{Op: "delete", Err: err}
	}
	return true, nil
}

// ScanAll returns every secret in the table, following pagination. Malformed
// items are skipped with a warning rather than aborting the scan.
func (s *DynamoDBStore) ScanAll(ctx context.Context) ([]keeper.Secret, error) {
	var secrets []keeper.Secret
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &s.table,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, &keeper.StoreError{Op: "scan", Err: err}
		}

		secrets = append(secrets, s.collect(out.Items)...)

		if len(out.LastEvaluatedKey) == 0 {
			return secrets, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// QueryByOwner returns all secrets for the owner via the secondary index, in
// store order, including expired ones.
func (s *DynamoDBStore) QueryByOwner(ctx context.Context, ownerID string) ([]keeper.Secret, error) {
	keyCondition := "user_id = :owner"
	values := map[string]types.AttributeValue{
		":owner": &types.AttributeValueMemberS{Value: ownerID},
	}

	var secrets []keeper.Secret
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 &s.table,
			IndexName:                 &s.ownerIndex,
			KeyConditionExpression:    &keyCondition,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, &keeper.StoreError{Op: "query", Err: err}
		}

		secrets = append(secrets, s.collect(out.Items)...)

		if len(out.LastEvaluatedKey) == 0 {
			return secrets, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (s *DynamoDBStore) collect(items []map[string]types.AttributeValue) []keeper.Secret {
	var secrets []keeper.Secret
	for _, item := range items {
		secret, err := unmarshalSecret(item)
		if err != nil {
			s.logger.Warn("skipping malformed record: %v", err)
			continue
		}
		secrets = append(secrets, secret)
	}
	return secrets
}

func keyFor(secretID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"secret_id": &types.AttributeValueMemberS{Value: secretID},
	}
}

func unmarshalSecret(item map[string]types.AttributeValue) (keeper.Secret, error) {
	var rec record
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return keeper.Secret{}, err
	}
	if rec.SecretID == "" {
		return keeper.Secret{}, fmt.Errorf("record has no secret_id")
	}
	return keeper.Secret{
		SecretID:   rec.SecretID,
		OwnerID:    rec.OwnerID,
		CipherText: rec.CipherText,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}
