package commands

import (
	"context"

	"github.com/systmms/secretkeeper/internal/config"
	"github.com/systmms/secretkeeper/internal/crypto"
	skerrors "github.com/systmms/secretkeeper/internal/errors"
	skeeper "github.com/systmms/secretkeeper/internal/keeper"
	"github.com/systmms/secretkeeper/internal/metrics"
	"github.com/systmms/secretkeeper/internal/report"
	"github.com/systmms/secretkeeper/internal/store"
)

// buildService wires the lifecycle service out of the configured adapters.
func buildService(ctx context.Context, cfg *config.Config) (*skeeper.Service, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	def := cfg.Definition

	gateway, err := crypto.NewKMSGateway(ctx, def.KMSKeyID, def.Region, crypto.Options{
		Endpoint: def.Endpoint,
	})
	if err != nil {
		return nil, wrapAWS("initialize KMS gateway", err)
	}

	ddb, err := store.NewDynamoDBStore(ctx, def.TableName, def.Region, store.Options{
		OwnerIndex: def.OwnerIndex,
		Endpoint:   def.Endpoint,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, wrapAWS("initialize secret store", err)
	}

	emitter, err := buildEmitter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return skeeper.NewService(gateway, ddb,
		skeeper.WithEmitter(emitter),
		skeeper.WithLogger(cfg.Logger),
		skeeper.WithDefaultTTL(def.DefaultTTLSeconds),
	), nil
}

// buildEmitter fans counters out to CloudWatch and the local Prometheus
// mirror.
func buildEmitter(ctx context.Context, cfg *config.Config) (metrics.Emitter, error) {
	def := cfg.Definition

	cw, err := metrics.NewCloudWatchEmitter(ctx, def.MetricsNamespace, def.Region)
	if err != nil {
		return nil, wrapAWS("initialize metrics emitter", err)
	}

	return metrics.Multi{cw, metrics.NewPrometheusEmitter()}, nil
}

// buildReporter wires the summary reporter out of the configured adapters.
func buildReporter(ctx context.Context, cfg *config.Config) (*report.Reporter, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	def := cfg.Definition

	if def.TopicARN == "" {
		return nil, skerrors.ConfigError{
			Field:      "topic_arn",
			Message:    "notification topic is required for reporting",
			Suggestion: "Set topic_arn in secretkeeper.yaml or export SECRETKEEPER_TOPIC_ARN",
		}
	}

	ddb, err := store.NewDynamoDBStore(ctx, def.TableName, def.Region, store.Options{
		OwnerIndex: def.OwnerIndex,
		Endpoint:   def.Endpoint,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, wrapAWS("initialize secret store", err)
	}

	publisher, err := report.NewSNSPublisher(ctx, def.TopicARN, def.Region)
	if err != nil {
		return nil, wrapAWS("initialize notification channel", err)
	}

	return report.NewReporter(ddb, publisher, report.WithLogger(cfg.Logger)), nil
}

func wrapAWS(what string, err error) error {
	return skerrors.UserError{
		Message:    "Failed to " + what,
		Details:    err.Error(),
		Suggestion: skerrors.AWSSuggestion(err),
		Err:        err,
	}
}
