package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifacts and the dataset they are trained from.
	DatasetPath    string
	ModelPath      string
	FeaturesPath   string
	TrainIfMissing bool

	Tolerance       float64
	MaxUploadBytes  int64
	ResultCacheSize int

	// Kafka publishing of audit reports.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	tolerance, err := parseTolerance()
	if err != nil {
		return nil, err
	}

	maxUpload, err := parseMaxUploadBytes()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseResultCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetPath:    sharedcfg.EnvOrDefault("DATASET_PATH", "data/hydrogen_mock_1000.csv"),
		ModelPath:      sharedcfg.EnvOrDefault("MODEL_PATH", "artifacts/capacity_model.json"),
		FeaturesPath:   sharedcfg.EnvOrDefault("FEATURES_PATH", "artifacts/features.json"),
		TrainIfMissing: os.Getenv("TRAIN_IF_MISSING") == "true",

		Tolerance:       tolerance,
		MaxUploadBytes:  maxUpload,
		ResultCacheSize: cacheSize,

		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "capacity-audit-results"),
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH is required")
	}
	if cfg.FeaturesPath == "" {
		return nil, errors.New("FEATURES_PATH is required")
	}
	if cfg.TrainIfMissing && cfg.DatasetPath == "" {
		return nil, errors.New("TRAIN_IF_MISSING is true but DATASET_PATH is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// parseTolerance reads TOLERANCE, a fraction in (0, 1].
func parseTolerance() (float64, error) {
	s := os.Getenv("TOLERANCE")
	if s == "" {
		return 0.2, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > 1 {
		return 0, errors.New("invalid TOLERANCE: must be a number in (0, 1]")
	}
	return v, nil
}

func parseMaxUploadBytes() (int64, error) {
	s := os.Getenv("MAX_UPLOAD_BYTES")
	if s == "" {
		return 10 << 20, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid MAX_UPLOAD_BYTES: must be a positive integer")
	}
	return n, nil
}

// parseResultCacheSize reads RESULT_CACHE_SIZE. Zero disables the cache.
func parseResultCacheSize() (int, error) {
	s := os.Getenv("RESULT_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid RESULT_CACHE_SIZE: must be a non-negative integer")
	}
	return n, nil
}
