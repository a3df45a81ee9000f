package config

import (
	"os"

	skerrors "github.com/systmms/secretkeeper/internal/errors"
	"github.com/systmms/secretkeeper/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "secretkeeper.yaml"

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the secretkeeper.yaml structure.
type Definition struct {
	// Region is the AWS region all clients are built in.
	Region string `yaml:"region"`

	// KMSKeyID is the designated encryption key (key id, ARN or alias).
	KMSKeyID string `yaml:"kms_key_id"`

	// TableName is the DynamoDB secrets table.
	TableName string `yaml:"table_name"`

	// OwnerIndex is the secondary index keyed by owner. Defaults to the
	// table's user_id-index.
	OwnerIndex string `yaml:"owner_index,omitempty"`

	// TopicARN is the SNS topic the summary report is published to.
	TopicARN string `yaml:"topic_arn,omitempty"`

	// DefaultTTLSeconds is the lifetime applied when a create request does
	// not specify one.
	DefaultTTLSeconds int64 `yaml:"default_ttl_seconds,omitempty"`

	// MetricsNamespace is the CloudWatch namespace counters are emitted to.
	MetricsNamespace string `yaml:"metrics_namespace,omitempty"`

	// Endpoint overrides the AWS endpoint for all clients. LocalStack and
	// tests only.
	Endpoint string `yaml:"endpoint,omitempty"`
}

const (
	defaultRegion     = "us-east-1"
	defaultOwnerIndex = "user_id-index"
	defaultNamespace  = "ServerlessSecretKeeper"
	defaultTTLSeconds = 3600
)

// Load reads and parses the secretkeeper.yaml file, applies environment
// overrides and validates the result.
func (c *Config) Load() error {
	if c.Path == "" {
		c.Path = DefaultPath
	}

	def := &Definition{}

	data, err := os.ReadFile(c.Path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, def); err != nil {
			return skerrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "invalid YAML: " + err.Error(),
				Suggestion: "Check for indentation errors and missing quotes",
			}
		}
	case os.IsNotExist(err):
		// Environment-only operation is allowed; overrides below must then
		// supply the required fields.
	default:
		return skerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	applyEnvOverrides(def)
	applyDefaults(def)

	if err := validate(def); err != nil {
		return err
	}

	c.Definition = def
	return nil
}

func applyEnvOverrides(def *Definition) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"SECRETKEEPER_REGION", &def.Region},
		{"SECRETKEEPER_KMS_KEY_ID", &def.KMSKeyID},
		{"SECRETKEEPER_TABLE_NAME", &def.TableName},
		{"SECRETKEEPER_TOPIC_ARN", &def.TopicARN},
		{"SECRETKEEPER_ENDPOINT", &def.Endpoint},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

func applyDefaults(def *Definition) {
	if def.Region == "" {
		def.Region = defaultRegion
	}
	if def.OwnerIndex == "" {
		def.OwnerIndex = defaultOwnerIndex
	}
	if def.MetricsNamespace == "" {
		def.MetricsNamespace = defaultNamespace
	}
	if def.DefaultTTLSeconds == 0 {
		def.DefaultTTLSeconds = defaultTTLSeconds
	}
}

func validate(def *Definition) error {
	if def.KMSKeyID == "" {
		return skerrors.ConfigError{
			Field:      "kms_key_id",
			Message:    "encryption key id is required",
			Suggestion: "Set kms_key_id in secretkeeper.yaml or export SECRETKEEPER_KMS_KEY_ID",
		}
	}
	if def.TableName == "" {
		return skerrors.ConfigError{
			Field:      "table_name",
			Message:    "secrets table name is required",
			Suggestion: "Set table_name in secretkeeper.yaml or export SECRETKEEPER_TABLE_NAME",
		}
	}
	if def.DefaultTTLSeconds < 0 {
		return skerrors.ConfigError{
			Field:      "default_ttl_seconds",
			Value:      def.DefaultTTLSeconds,
			Message:    "default lifetime must be positive",
			Suggestion: "Use a positive number of seconds, e.g. 3600",
		}
	}
	return nil
}
