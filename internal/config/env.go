package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment overrides
const (
	EnvLogLevel   = "LABELBENCH_LOG_LEVEL"
	EnvLoadLevels = "LABELBENCH_LOAD_LEVELS"
	EnvTimeout    = "LABELBENCH_TIMEOUT"
	EnvOutputDir  = "LABELBENCH_OUTPUT_DIR"
	EnvStatusAddr = "LABELBENCH_STATUS_ADDR"
	EnvS3Bucket   = "LABELBENCH_S3_BUCKET"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(cfg *Config) error {
	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if raw := os.Getenv(EnvLoadLevels); raw != "" {
		levels, err := ParseLevels(raw)
		if err != nil {
			return &ValidationError{Field: EnvLoadLevels, Reason: err.Error()}
		}
		cfg.Sweep.LoadLevels = levels
	}

	if raw := os.Getenv(EnvTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return &ValidationError{Field: EnvTimeout, Reason: err.Error()}
		}
		cfg.Classifier.Timeout = d
	}

	cfg.Output.Dir = GetEnvOrDefault(EnvOutputDir, cfg.Output.Dir)
	cfg.Status.Addr = GetEnvOrDefault(EnvStatusAddr, cfg.Status.Addr)
	cfg.Output.S3.Bucket = GetEnvOrDefault(EnvS3Bucket, cfg.Output.S3.Bucket)

	return nil
}

// ParseLevels parses a comma separated list such as "10,50,100".
func ParseLevels(raw string) ([]int, error) {
	var levels []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid load level %q", part)
		}
		levels = append(levels, n)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no load levels in %q", raw)
	}
	return levels, nil
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
