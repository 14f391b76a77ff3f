// cmd/create.go - Merge job creation command
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/valpere/tile_merge_tasker/internal/config"
	"github.com/valpere/tile_merge_tasker/internal/jobstore"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the merge job of an ingestion in the job store",
	Long: `Generate the merge tasks of an ingestion and persist them to the configured job
store in batches of --task-batch-size. The job is created together with the first
batch and later batches are appended to it. If appending fails the job is marked
Failed.

Examples:
  # Create the job in the job manager
  tile-merge-tasker create -d ingestion.json --dest layers/orthophoto --job-manager-url http://job-manager:8080

  # Create the job in a local database
  tile-merge-tasker create -d ingestion.json --dest layers/orthophoto --store sqlite --sqlite-path plan.db`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	addTaskFlags(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	targs, err := parseTaskArgs(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tasker, err := merge.NewTasker(cfg.ToMergeOptions(), store, logger)
	if err != nil {
		return err
	}

	return tasker.CreateMergeTilesTasks(cmd.Context(), targs.data, targs.destPath, targs.taskType, targs.jobType, targs.grids, targs.extent)
}

// openStore creates the configured job store and the function releasing it
func openStore(cfg *config.Config, logger *slog.Logger) (merge.Store, func(), error) {
	switch cfg.Store.Type {
	case config.StoreTypeHTTP:
		store, err := jobstore.NewHTTPStore(cfg.ToHTTPConfig(), logger)
		return store, func() {}, err
	case config.StoreTypeSQLite:
		store, err := jobstore.OpenSQLite(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close job database", "path", cfg.Store.SQLitePath, "error", err)
			}
		}, nil
	case config.StoreTypeMemory:
		return jobstore.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
}
