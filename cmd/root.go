// cmd/root.go - Root command implementation
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/tile_merge_tasker/internal/config"
	"github.com/valpere/tile_merge_tasker/internal/logging"
)

var cfgFile string

// appFs is the filesystem descriptors and reports are read from and written to
var appFs = afero.NewOsFs()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tile-merge-tasker",
	Short: "Plan tile merge tasks for raster layer ingestions",
	Long: `TileMergeTasker splits the footprints of an ingestion's layers into disjoint
overlap regions and generates the tile merge tasks of every zoom level, from the
ingestion's resolution down to zoom 0. Tasks are persisted in batches to a job store.

Job stores:
- the job manager service via HTTP
- a local SQLite database
- process memory (planning only)

Examples:
  # Inspect the overlap regions of an ingestion
  tile-merge-tasker overlaps --descriptor ingestion.json --output overlaps.geojson

  # Inspect the regions as snapped to the tile grid of zoom 12
  tile-merge-tasker overlaps --descriptor ingestion.json --zoom 12

  # Count the tasks a merge job would contain
  tile-merge-tasker plan --descriptor ingestion.json --dest layers/orthophoto

  # Create the merge job in the job manager
  tile-merge-tasker create --descriptor ingestion.json --dest layers/orthophoto \
    --job-manager-url http://job-manager:8080

  # Create the merge job in a local database
  tile-merge-tasker create --descriptor ingestion.json --dest layers/orthophoto --store sqlite`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tile-merge-tasker.yaml)")

	// Merge flags
	rootCmd.PersistentFlags().Int("tile-batch-size", 10000, "maximum number of tiles in one merge task")
	rootCmd.PersistentFlags().Int("task-batch-size", 100, "number of merge tasks persisted per job store call")
	rootCmd.PersistentFlags().String("target-format", "JPEG", "image format of merged tiles (JPEG, PNG)")
	rootCmd.PersistentFlags().String("cache-type", "GPKG", "source type of the merge destination")
	rootCmd.PersistentFlags().String("source-dir", "", "directory prefixed to the ingestion origin directory")

	// Job store flags
	rootCmd.PersistentFlags().String("store", "http", "job store (http, sqlite, memory)")
	rootCmd.PersistentFlags().String("job-manager-url", "", "base URL of the job manager service")
	rootCmd.PersistentFlags().Int("attempts", 1, "job manager request attempts")
	rootCmd.PersistentFlags().String("sqlite-path", "tasks.db", "database file of the sqlite store")

	// Output flags
	rootCmd.PersistentFlags().Bool("pretty", true, "pretty print JSON output")
	rootCmd.PersistentFlags().Bool("compression", false, "gzip output files")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	viper.BindPFlag("merge.tile_batch_size", rootCmd.PersistentFlags().Lookup("tile-batch-size"))
	viper.BindPFlag("merge.task_batch_size", rootCmd.PersistentFlags().Lookup("task-batch-size"))
	viper.BindPFlag("merge.target_format", rootCmd.PersistentFlags().Lookup("target-format"))
	viper.BindPFlag("merge.cache_type", rootCmd.PersistentFlags().Lookup("cache-type"))
	viper.BindPFlag("merge.source_dir", rootCmd.PersistentFlags().Lookup("source-dir"))
	viper.BindPFlag("store.type", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("job_manager.url", rootCmd.PersistentFlags().Lookup("job-manager-url"))
	viper.BindPFlag("job_manager.attempts", rootCmd.PersistentFlags().Lookup("attempts"))
	viper.BindPFlag("store.sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	viper.BindPFlag("output.pretty", rootCmd.PersistentFlags().Lookup("pretty"))
	viper.BindPFlag("output.compression", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".tile-merge-tasker" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tile-merge-tasker")
	}

	// Environment variables, e.g. TILE_MERGE_TASKER_JOB_MANAGER_URL
	viper.SetEnvPrefix("TILE_MERGE_TASKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// setup loads the configuration and builds the logger every command uses
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "config", cfg.String())
	return cfg, logger, nil
}
