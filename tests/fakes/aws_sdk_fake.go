package fakes

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// kmsPrefix marks blobs produced by the fake KMS so Decrypt can reject
// ciphertext it never issued, like the real service does.
var kmsPrefix = []byte("fake-kms:")

// FakeKMSClient is a reversible stand-in for the AWS KMS client.
type FakeKMSClient struct {
	// EncryptErr/DecryptErr force the corresponding call to fail.
	EncryptErr error
	DecryptErr error

	// EncryptCalls/DecryptCalls count invocations.
	EncryptCalls int
	DecryptCalls int
}

func (f *FakeKMSClient) Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error) {
	f.EncryptCalls++
	if f.EncryptErr != nil {
		return nil, f.EncryptErr
	}
	if params.KeyId == nil || *params.KeyId == "" {
		return nil, fmt.Errorf("NotFoundException: empty key id")
	}
	blob := append(append([]byte{}, kmsPrefix...), params.Plaintext...)
	return &kms.EncryptOutput{CiphertextBlob: blob}, nil
}

func (f *FakeKMSClient) Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	f.DecryptCalls++
	if f.DecryptErr != nil {
		return nil, f.DecryptErr
	}
	if !bytes.HasPrefix(params.CiphertextBlob, kmsPrefix) {
		return nil, fmt.Errorf("InvalidCiphertextException")
	}
	return &kms.DecryptOutput{Plaintext: params.CiphertextBlob[len(kmsPrefix):]}, nil
}

// FakeDynamoDBClient is an in-memory stand-in for the DynamoDB client. It
// honors the subset of semantics the store relies on: point lookups by
// secret_id, conditional deletes, scans with pagination and GSI queries by
// user_id.
type FakeDynamoDBClient struct {
	mu sync.Mutex

	// Items maps secret_id to the raw attribute map.
	Items map[string]map[string]ddbtypes.AttributeValue

	// Errs maps an operation ("put", "get", "delete", "scan", "query") to an
	// error to return.
	Errs map[string]error

	// PageSize, when > 0, makes Scan and Query return results one page at a
	// time to exercise pagination.
	PageSize int

	// DeleteCalls counts DeleteItem invocations.
	DeleteCalls int
}

// NewFakeDynamoDBClient returns an empty fake table.
func NewFakeDynamoDBClient() *FakeDynamoDBClient {
	return &FakeDynamoDBClient{
		Items: make(map[string]map[string]ddbtypes.AttributeValue),
		Errs:  make(map[string]error),
	}
}

func (f *FakeDynamoDBClient) keyOf(key map[string]ddbtypes.AttributeValue) (string, error) {
	attr, ok := key["secret_id"]
	if !ok {
		return "", fmt.Errorf("ValidationException: key missing secret_id")
	}
	s, ok := attr.(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("ValidationException: secret_id must be a string")
	}
	return s.Value, nil
}

func (f *FakeDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs["put"]; err != nil {
		return nil, err
	}
	id, err := f.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	copied := make(map[string]ddbtypes.AttributeValue, len(params.Item))
	for k, v := range params.Item {
		copied[k] = v
	}
	f.Items[id] = copied
	return &dynamodb.PutItemOutput{}, nil
}

func (f *FakeDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs["get"]; err != nil {
		return nil, err
	}
	id, err := f.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := f.Items[id]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *FakeDynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if err := f.Errs["delete"]; err != nil {
		return nil, err
	}
	id, err := f.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	_, exists := f.Items[id]
	if params.ConditionExpression != nil &&
		strings.Contains(*params.ConditionExpression, "attribute_exists") && !exists {
		return nil, &ddbtypes.ConditionalCheckFailedException{}
	}
	delete(f.Items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *FakeDynamoDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs["scan"]; err != nil {
		return nil, err
	}
	return f.page(f.allItems(), params.ExclusiveStartKey), nil
}

func (f *FakeDynamoDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs["query"]; err != nil {
		return nil, err
	}
	owner, ok := params.ExpressionAttributeValues[":owner"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("ValidationException: query missing :owner value")
	}

	var matched []map[string]ddbtypes.AttributeValue
	for _, item := range f.allItems() {
		if s, ok := item["user_id"].(*ddbtypes.AttributeValueMemberS); ok && s.Value == owner.Value {
			matched = append(matched, item)
		}
	}

	scanOut := f.page(matched, params.ExclusiveStartKey)
	return &dynamodb.QueryOutput{
		Items:            scanOut.Items,
		LastEvaluatedKey: scanOut.LastEvaluatedKey,
	}, nil
}

// allItems returns items in a stable order so pagination cursors are
// meaningful.
func (f *FakeDynamoDBClient) allItems() []map[string]ddbtypes.AttributeValue {
	ids := make([]string, 0, len(f.Items))
	for id := range f.Items {
		ids = append(ids, id)
	}
	sortStrings(ids)

	items := make([]map[string]ddbtypes.AttributeValue, 0, len(ids))
	for _, id := range ids {
		items = append(items, f.Items[id])
	}
	return items
}

func (f *FakeDynamoDBClient) page(items []map[string]ddbtypes.AttributeValue, startKey map[string]ddbtypes.AttributeValue) *dynamodb.ScanOutput {
	start := 0
	if startKey != nil {
		if s, ok := startKey["secret_id"].(*ddbtypes.AttributeValueMemberS); ok {
			for i, item := range items {
				if id, ok := item["secret_id"].(*ddbtypes.AttributeValueMemberS); ok && id.Value == s.Value {
					start = i + 1
					break
				}
			}
		}
	}

	end := len(items)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}

	out := &dynamodb.ScanOutput{Items: items[start:end]}
	if end < len(items) {
		out.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{
			"secret_id": items[end-1]["secret_id"],
		}
	}
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// FakeSNSClient records published messages.
type FakeSNSClient struct {
	// PublishErr forces Publish to fail.
	PublishErr error

	// Published records every publish call.
	Published []PublishedMessage
}

// PublishedMessage captures one SNS publish.
type PublishedMessage struct {
	TopicARN string
	Subject  string
	Message  string
}

func (f *FakeSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.PublishErr != nil {
		return nil, f.PublishErr
	}
	msg := PublishedMessage{}
	if params.TopicArn != nil {
		msg.TopicARN = *params.TopicArn
	}
	if params.Subject != nil {
		msg.Subject = *params.Subject
	}
	if params.Message != nil {
		msg.Message = *params.Message
	}
	f.Published = append(f.Published, msg)
	return &sns.PublishOutput{}, nil
}

// FakeCloudWatchClient records emitted metric data.
type FakeCloudWatchClient struct {
	// PutErr forces PutMetricData to fail.
	PutErr error

	// Metrics records (namespace, metric name) per datum received.
	Metrics []EmittedMetric
}

// EmittedMetric captures one metric datum.
type EmittedMetric struct {
	Namespace string
	Name      string
	Value     float64
	Unit      string
}

func (f *FakeCloudWatchClient) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if f.PutErr != nil {
		return nil, f.PutErr
	}
	for _, datum := range params.MetricData {
		m := EmittedMetric{Unit: string(datum.Unit)}
		if params.Namespace != nil {
			m.Namespace = *params.Namespace
		}
		if datum.MetricName != nil {
			m.Name = *datum.MetricName
		}
		if datum.Value != nil {
			m.Value = *datum.Value
		}
		f.Metrics = append(f.Metrics, m)
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}
