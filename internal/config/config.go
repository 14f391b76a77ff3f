// internal/config/config.go - Configuration management
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/jobstore"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

// Config represents the complete application configuration
type Config struct {
	Merge      MergeConfig      `mapstructure:"merge"`
	JobManager JobManagerConfig `mapstructure:"job_manager"`
	Store      StoreConfig      `mapstructure:"store"`
	Output     OutputConfig     `mapstructure:"output"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// MergeConfig contains merge task generation settings
type MergeConfig struct {
	TileBatchSize int    `mapstructure:"tile_batch_size"`
	TaskBatchSize int    `mapstructure:"task_batch_size"`
	TargetFormat  string `mapstructure:"target_format"`
	CacheType     string `mapstructure:"cache_type"`
	SourceDir     string `mapstructure:"source_dir"`
}

// JobManagerConfig contains the job manager service connection
type JobManagerConfig struct {
	URL        string            `mapstructure:"url"`
	Headers    map[string]string `mapstructure:"headers"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Attempts   int               `mapstructure:"attempts"`
	RetryDelay time.Duration     `mapstructure:"retry_delay"`
}

// StoreConfig selects where jobs are persisted
type StoreConfig struct {
	Type       string `mapstructure:"type"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// OutputConfig contains output formatting configuration
type OutputConfig struct {
	Pretty      bool `mapstructure:"pretty"`
	Compression bool `mapstructure:"compression"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Store types
const (
	StoreTypeHTTP   = "http"
	StoreTypeSQLite = "sqlite"
	StoreTypeMemory = "memory"
)

// Load loads configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from a viper instance, applying defaults first
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, internal.NewError(internal.ErrorCodeConfig, "failed to unmarshal configuration", err)
	}

	if err := Validate(&config); err != nil {
		return nil, internal.NewError(internal.ErrorCodeConfig, "configuration validation failed", err)
	}

	return &config, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Merge defaults
	v.SetDefault("merge.tile_batch_size", 10000)
	v.SetDefault("merge.task_batch_size", 100)
	v.SetDefault("merge.target_format", string(merge.TargetFormatJPEG))
	v.SetDefault("merge.cache_type", "GPKG")
	v.SetDefault("merge.source_dir", "")

	// Job manager defaults
	v.SetDefault("job_manager.timeout", 30*time.Second)
	v.SetDefault("job_manager.attempts", 1)
	v.SetDefault("job_manager.retry_delay", time.Second)

	// Store defaults
	v.SetDefault("store.type", StoreTypeHTTP)
	v.SetDefault("store.sqlite_path", "tasks.db")

	// Output defaults
	v.SetDefault("output.pretty", true)
	v.SetDefault("output.compression", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

// ToMergeOptions converts the merge section to tasker options
func (c *Config) ToMergeOptions() merge.Options {
	return merge.Options{
		TileBatchSize: c.Merge.TileBatchSize,
		TaskBatchSize: c.Merge.TaskBatchSize,
		TargetFormat:  merge.TargetFormat(c.Merge.TargetFormat),
		CacheType:     c.Merge.CacheType,
		SourceDir:     c.Merge.SourceDir,
	}
}

// ToHTTPConfig converts the job manager section to client settings
func (c *Config) ToHTTPConfig() jobstore.HTTPConfig {
	return jobstore.HTTPConfig{
		URL:        c.JobManager.URL,
		Headers:    c.JobManager.Headers,
		Timeout:    c.JobManager.Timeout,
		Attempts:   c.JobManager.Attempts,
		RetryDelay: c.JobManager.RetryDelay,
	}
}

// String summarises the effective configuration for debug logging
func (c *Config) String() string {
	return fmt.Sprintf("store=%s tileBatch=%d taskBatch=%d format=%s cache=%s",
		c.Store.Type, c.Merge.TileBatchSize, c.Merge.TaskBatchSize, c.Merge.TargetFormat, c.Merge.CacheType)
}
