// internal/merge/tasker.go - Merge job orchestration
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/paulmach/orb"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/overlap"
	"github.com/valpere/tile_merge_tasker/internal/tile"
)

// Tasker turns an ingestion into a job of merge tasks
type Tasker struct {
	opts       Options
	store      Store
	decomposer *overlap.Decomposer
	logger     *slog.Logger
}

// NewTasker creates a tasker. Invalid options are rejected before any work starts.
func NewTasker(opts Options, store Store, logger *slog.Logger) (*Tasker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, internal.NewError(internal.ErrorCodeConfig, "job store is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tasker{
		opts:       opts,
		store:      store,
		decomposer: overlap.NewDecomposer(logger),
		logger:     logger,
	}, nil
}

// jobRef is the job of a run: either not created yet or created with an id
type jobRef interface {
	isJobRef()
}

type jobNotCreated struct{}

type jobCreated struct {
	id string
}

func (jobNotCreated) isJobRef() {}
func (jobCreated) isJobRef()    {}

// run carries the fixed arguments of one CreateMergeTilesTasks call
type run struct {
	data     *ingestion.Params
	destPath string
	jobType  string
	taskType string
}

// CreateMergeTilesTasks generates the merge tasks of every zoom level and
// persists them in batches of TaskBatchSize. The job is created with the first
// batch; later batches are appended to it in generation order. When appending
// fails the job is marked failed and the append error is returned.
func (t *Tasker) CreateMergeTilesTasks(ctx context.Context, data *ingestion.Params, destPath, taskType, jobType string, grids []tile.Grid, extent orb.Bound) error {
	params, err := t.Parameters(data, destPath, grids, extent)
	if err != nil {
		return err
	}
	r := run{data: data, destPath: destPath, jobType: jobType, taskType: taskType}

	t.logger.Info("creating merge tasks",
		"product", data.Metadata.ProductID,
		"version", data.Metadata.ProductVersion,
		"layers", len(params.Layers),
		"maxZoom", params.MaxZoom)

	var ref jobRef = jobNotCreated{}
	buffer := make([]TaskParams, 0, t.opts.TaskBatchSize)
	total := 0
	for task, err := range t.BatchedTasks(params) {
		if err != nil {
			return err
		}
		buffer = append(buffer, task)
		total++
		if len(buffer) == t.opts.TaskBatchSize {
			next, err := t.flush(ctx, ref, r, buffer)
			if err != nil {
				return err
			}
			ref = next
			buffer = make([]TaskParams, 0, t.opts.TaskBatchSize)
		}
	}
	if len(buffer) > 0 {
		next, err := t.flush(ctx, ref, r, buffer)
		if err != nil {
			return err
		}
		ref = next
	}

	// any layer with area covers at least the zoom 0 tile, so only an ingestion
	// without files ends here with no job
	switch j := ref.(type) {
	case jobCreated:
		t.logger.Info("merge tasks created", "jobId", j.id, "tasks", total)
		return nil
	case jobNotCreated:
		return internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("ingestion %s produced no merge tasks", data.Metadata.ProductID), nil)
	default:
		return fmt.Errorf("unknown job reference %T", ref)
	}
}

// flush persists one batch, creating the job on the first call
func (t *Tasker) flush(ctx context.Context, ref jobRef, r run, tasks []TaskParams) (jobRef, error) {
	switch j := ref.(type) {
	case jobNotCreated:
		id, err := t.store.CreateLayerJob(ctx, r.data, r.destPath, r.jobType, r.taskType, tasks)
		if err != nil {
			t.logger.Error("failed to create merge job", "error", err)
			return ref, err
		}
		t.logger.Debug("merge job created", "jobId", id, "tasks", len(tasks))
		return jobCreated{id: id}, nil
	case jobCreated:
		if err := t.store.CreateTasks(ctx, j.id, tasks, r.taskType); err != nil {
			t.logger.Error("failed to append merge tasks", "jobId", j.id, "error", err)
			// best effort; a failure here leaves the job status as it was
			if statusErr := t.store.UpdateJobStatus(context.WithoutCancel(ctx), j.id, JobStatusFailed); statusErr != nil {
				t.logger.Error("failed to mark job as failed", "jobId", j.id, "error", statusErr)
			}
			return ref, err
		}
		t.logger.Debug("merge tasks appended", "jobId", j.id, "tasks", len(tasks))
		return ref, nil
	default:
		return ref, fmt.Errorf("unknown job reference %T", ref)
	}
}

// Parameters derives the generation parameters of an ingestion: one layer per
// file, and the max zoom from the ingestion resolution
func (t *Tasker) Parameters(data *ingestion.Params, destPath string, grids []tile.Grid, extent orb.Bound) (*Parameters, error) {
	if data == nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "ingestion parameters are required", nil)
	}
	maxZoom, err := tile.ResolutionToZoom(data.Metadata.MaxResolutionDeg)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "invalid max resolution", err)
	}
	layers, err := t.Layers(data)
	if err != nil {
		return nil, err
	}
	return &Parameters{
		Layers:   layers,
		DestPath: destPath,
		MaxZoom:  maxZoom,
		Grids:    grids,
		Extent:   ExtentFromBound(extent),
	}, nil
}

// Layers builds the layer list of an ingestion in file order
func (t *Tasker) Layers(data *ingestion.Params) ([]Layer, error) {
	layers := make([]Layer, len(data.FileNames))
	for i, fileName := range data.FileNames {
		footprint, err := data.Footprint(i)
		if err != nil {
			return nil, fmt.Errorf("footprint of %s: %w", fileName, err)
		}
		if footprint.IsEmpty() {
			return nil, internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("footprint of %s has no area", fileName), nil)
		}
		if err := footprint.Validate(); err != nil {
			return nil, fmt.Errorf("footprint of %s: %w", fileName, err)
		}
		layers[i] = Layer{
			FileName:  fileName,
			TilesPath: path.Join(t.opts.SourceDir, data.OriginDirectory, fileName),
			Footprint: footprint,
		}
	}
	return layers, nil
}
