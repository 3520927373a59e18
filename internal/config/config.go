package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaSourceTopic string   `envconfig:"KAFKA_SOURCE_TOPIC" default:"climate-index-jobs"`
	KafkaSinkTopic   string   `envconfig:"KAFKA_SINK_TOPIC" default:"climate-index-results"`
	KafkaGroupID     string   `envconfig:"KAFKA_GROUP_ID" default:"climate-index-engine"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	BatchSize          int           `envconfig:"BATCH_SIZE" default:"50"`
	BatchFlushInterval time.Duration `envconfig:"BATCH_FLUSH_INTERVAL" default:"500ms"`

	// Size of the LRU cache for resolved percentile thresholds. Zero disables
	// caching.
	PercentileCacheSize int `envconfig:"PERCENTILE_CACHE_SIZE" default:"256"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, fmt.Errorf("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, fmt.Errorf("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > maxBatchSize {
		return nil, fmt.Errorf("BATCH_SIZE must be between 1 and %d", maxBatchSize)
	}
	if cfg.BatchFlushInterval <= 0 {
		return nil, fmt.Errorf("BATCH_FLUSH_INTERVAL must be positive")
	}
	if cfg.PercentileCacheSize < 0 {
		return nil, fmt.Errorf("PERCENTILE_CACHE_SIZE must not be negative")
	}
	return &cfg, nil
}
