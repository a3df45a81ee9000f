package metrics

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchClientAPI defines the interface for CloudWatch operations.
// This allows for mocking in tests.
type CloudWatchClientAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchEmitter emits named counters into a CloudWatch namespace, one
// increment per triggering event, unit Count.
type CloudWatchEmitter struct {
	client    CloudWatchClientAPI
	namespace string
}

// EmitterOption is a functional option for configuring the emitter.
type EmitterOption func(*CloudWatchEmitter)

// WithCloudWatchClient sets a custom CloudWatch client (for testing).
func WithCloudWatchClient(client CloudWatchClientAPI) EmitterOption {
	return func(e *CloudWatchEmitter) {
		e.client = client
	}
}

// NewCloudWatchEmitter creates an emitter for the given namespace and region.
func NewCloudWatchEmitter(ctx context.Context, namespace, region string, opts ...EmitterOption) (*CloudWatchEmitter, error) {
	if namespace == "" {
		return nil, fmt.Errorf("cloudwatch emitter requires a namespace")
	}

	e := &CloudWatchEmitter{namespace: namespace}

	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		e.client = cloudwatch.NewFromConfig(cfg)
	}

	return e, nil
}

// EmitCount puts a single increment of the named counter.
func (e *CloudWatchEmitter) EmitCount(ctx context.Context, name string) error {
	value := 1.0
	_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &e.namespace,
		MetricData: []types.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Unit:       types.StandardUnitCount,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("cloudwatch put metric data: %w", err)
	}
	return nil
}
