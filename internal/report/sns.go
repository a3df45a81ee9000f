package report

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

// SNSClientAPI defines the interface for SNS operations.
// This allows for mocking in tests.
type SNSClientAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher implements keeper.Publisher on top of an SNS topic.
type SNSPublisher struct {
	client   SNSClientAPI
	topicARN string
}

// PublisherOption is a functional option for configuring the publisher.
type PublisherOption func(*SNSPublisher)

// WithSNSClient sets a custom SNS client (for testing).
func WithSNSClient(client SNSClientAPI) PublisherOption {
	return func(p *SNSPublisher) {
		p.client = client
	}
}

// NewSNSPublisher creates a publisher bound to the given topic.
func NewSNSPublisher(ctx context.Context, topicARN, region string, opts ...PublisherOption) (*SNSPublisher, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("sns publisher requires a topic ARN")
	}

	p := &SNSPublisher{topicARN: topicARN}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		p.client = sns.NewFromConfig(cfg)
	}

	return p, nil
}

// Publish sends the message to the topic. Failures wrap to
// NotificationError and are surfaced to the caller.
func (p *SNSPublisher) Publish(ctx context.Context, subject, message string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Subject:  &subject,
		Message:  &message,
	})
	if err != nil {
		return &keeper.NotificationError{Channel: p.topicARN, Err: err}
	}
	return nil
}
