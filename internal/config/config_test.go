// internal/config/config_test.go - Unit tests for configuration loading
package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	v.Set("job_manager.url", "http://job-manager:8080")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Merge.TileBatchSize)
	assert.Equal(t, 100, cfg.Merge.TaskBatchSize)
	assert.Equal(t, StoreTypeHTTP, cfg.Store.Type)
	assert.Equal(t, 30*time.Second, cfg.JobManager.Timeout)
	assert.Equal(t, 1, cfg.JobManager.Attempts)
	assert.Equal(t, "info", cfg.Logging.Level)

	opts := cfg.ToMergeOptions()
	assert.Equal(t, merge.DefaultOptions(), opts)
	assert.NoError(t, opts.Validate())

	httpCfg := cfg.ToHTTPConfig()
	assert.Equal(t, "http://job-manager:8080", httpCfg.URL)
	assert.Equal(t, time.Second, httpCfg.RetryDelay)
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
merge:
  tile_batch_size: 500
  task_batch_size: 20
  target_format: png
  source_dir: /layers
store:
  type: SQLite
  sqlite_path: /tmp/plan.db
logging:
  level: debug
  format: json
`)))

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Merge.TileBatchSize)
	assert.Equal(t, "PNG", cfg.Merge.TargetFormat)
	assert.Equal(t, StoreTypeSQLite, cfg.Store.Type)
	assert.Equal(t, "/tmp/plan.db", cfg.Store.SQLitePath)

	opts := cfg.ToMergeOptions()
	assert.Equal(t, merge.TargetFormatPNG, opts.TargetFormat)
	assert.Equal(t, "/layers", opts.SourceDir)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"zero tile batch", map[string]any{"store.type": "memory", "merge.tile_batch_size": 0}},
		{"negative task batch", map[string]any{"store.type": "memory", "merge.task_batch_size": -5}},
		{"unknown format", map[string]any{"store.type": "memory", "merge.target_format": "TIFF"}},
		{"unknown store", map[string]any{"store.type": "mongo"}},
		{"http store without url", map[string]any{"store.type": "http"}},
		{"relative job manager url", map[string]any{"job_manager.url": "jobs"}},
		{"zero attempts", map[string]any{"job_manager.url": "http://jm", "job_manager.attempts": 0}},
		{"bad log level", map[string]any{"store.type": "memory", "logging.level": "fatal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for key, value := range tt.values {
				v.Set(key, value)
			}
			_, err := LoadFrom(v)
			require.Error(t, err)
			assert.True(t, internal.HasCode(err, internal.ErrorCodeConfig))
		})
	}
}

func TestMemoryStoreNeedsNoJobManager(t *testing.T) {
	v := viper.New()
	v.Set("store.type", "memory")
	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Empty(t, cfg.JobManager.URL)
}
