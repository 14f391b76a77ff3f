// internal/config/validation.go - Configuration validation
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/valpere/tile_merge_tasker/internal/logging"
)

// Validate validates the configuration structure and values
func Validate(config *Config) error {
	if err := validateMerge(&config.Merge); err != nil {
		return fmt.Errorf("merge configuration invalid: %w", err)
	}

	if err := validateStore(&config.Store); err != nil {
		return fmt.Errorf("store configuration invalid: %w", err)
	}

	if config.Store.Type == StoreTypeHTTP {
		if err := validateJobManager(&config.JobManager); err != nil {
			return fmt.Errorf("job_manager configuration invalid: %w", err)
		}
	}

	if err := validateLogging(&config.Logging); err != nil {
		return fmt.Errorf("logging configuration invalid: %w", err)
	}

	return nil
}

// validateMerge validates merge generation parameters
func validateMerge(config *MergeConfig) error {
	if config.TileBatchSize <= 0 {
		return fmt.Errorf("tile_batch_size must be positive")
	}

	if config.TaskBatchSize <= 0 {
		return fmt.Errorf("task_batch_size must be positive")
	}

	validFormats := []string{"JPEG", "PNG"}
	if !contains(validFormats, config.TargetFormat) {
		return fmt.Errorf("invalid target_format: %s, must be one of %v", config.TargetFormat, validFormats)
	}
	config.TargetFormat = strings.ToUpper(config.TargetFormat)

	if config.CacheType == "" {
		return fmt.Errorf("cache_type is required")
	}

	return nil
}

// validateJobManager validates the job manager connection
func validateJobManager(config *JobManagerConfig) error {
	if config.URL == "" {
		return fmt.Errorf("url is required")
	}

	if u, err := url.Parse(config.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url: %s", config.URL)
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if config.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1")
	}

	if config.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative")
	}

	return nil
}

// validateStore validates the job store selection
func validateStore(config *StoreConfig) error {
	validTypes := []string{StoreTypeHTTP, StoreTypeSQLite, StoreTypeMemory}
	if !contains(validTypes, config.Type) {
		return fmt.Errorf("invalid type: %s, must be one of %v", config.Type, validTypes)
	}
	config.Type = strings.ToLower(config.Type)

	if config.Type == StoreTypeSQLite && config.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required for the sqlite store")
	}

	return nil
}

// validateLogging validates logging configuration parameters
func validateLogging(config *LoggingConfig) error {
	if !contains(logging.Levels, config.Level) {
		return fmt.Errorf("invalid log level: %s, must be one of %v", config.Level, logging.Levels)
	}

	validFormats := []string{"text", "json"}
	if !contains(validFormats, config.Format) {
		return fmt.Errorf("invalid log format: %s, must be one of %v", config.Format, validFormats)
	}

	validOutputs := []string{"stdout", "stderr"}
	if !contains(validOutputs, config.Output) {
		return fmt.Errorf("invalid log output: %s, must be one of %v", config.Output, validOutputs)
	}

	return nil
}

// contains checks if a string slice contains a specific string (case-insensitive)
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
