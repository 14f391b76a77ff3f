// cmd/plan.go - Merge job planning command
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/tile_merge_tasker/internal/config"
	"github.com/valpere/tile_merge_tasker/internal/jobstore"
	"github.com/valpere/tile_merge_tasker/internal/merge"
	"github.com/valpere/tile_merge_tasker/internal/output"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Summarise the merge tasks of an ingestion without creating a job",
	Long: `Generate every merge task of an ingestion into process memory and print a JSON
summary: the total task and tile counts, the counts per zoom level, and the size of
each persistence batch a job store would receive.

Examples:
  # Plan with the default batch sizes
  tile-merge-tasker plan --descriptor ingestion.json --dest layers/orthophoto

  # Plan smaller tasks with per-layer grids
  tile-merge-tasker plan -d ingestion.json --dest layers/orthophoto --tile-batch-size 500 --grids 2x1,1x1`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	addTaskFlags(planCmd)
	planCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	viper.Set("store.type", config.StoreTypeMemory)
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	targs, err := parseTaskArgs(cmd)
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")

	store := jobstore.NewMemoryStore()
	tasker, err := merge.NewTasker(cfg.ToMergeOptions(), store, logger)
	if err != nil {
		return err
	}

	err = tasker.CreateMergeTilesTasks(cmd.Context(), targs.data, targs.destPath, targs.taskType, targs.jobType, targs.grids, targs.extent)
	if err != nil {
		return err
	}

	summary := output.EmptyPlanSummary()
	if ids := store.Jobs(); len(ids) > 0 {
		job, err := store.Job(ids[0])
		if err != nil {
			return err
		}
		summary = output.NewPlanSummary(job)
	}

	writerConfig := &output.WriterConfig{
		Format:      output.FormatJSON,
		Pretty:      cfg.Output.Pretty,
		Compression: cfg.Output.Compression,
	}
	return writeReport(cmd, logger, writerConfig, outputPath, summary)
}
