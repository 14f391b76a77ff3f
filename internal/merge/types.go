// internal/merge/types.go - Merge task types
package merge

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/valpere/tile_merge_tasker/internal/geometry"
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/tile"
)

// Layer is one source file taking part in a merge
type Layer struct {
	FileName  string
	TilesPath string
	Footprint geometry.Polygon
}

// Overlap is an area covered by exactly the listed layers. Indices holds the
// position of each layer in the original input list.
type Overlap struct {
	Intersection geometry.Polygon
	Layers       []Layer
	Indices      []int
}

// Extent is a clipping rectangle in lon/lat
type Extent struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Source is one input of a merge task. The first source of a task is always the
// merge destination.
type Source struct {
	Type   string     `json:"type"`
	Path   string     `json:"path"`
	Grid   *tile.Grid `json:"grid,omitempty"`
	Extent *Extent    `json:"extent,omitempty"`
}

// TaskParams describes which tiles must be merged from which sources
type TaskParams struct {
	TargetFormat TargetFormat      `json:"targetFormat"`
	Batches      []tile.Coordinate `json:"batches"`
	Sources      []Source          `json:"sources"`
}

// Parameters holds everything needed to generate the merge tasks of one job
type Parameters struct {
	Layers   []Layer
	DestPath string
	MaxZoom  int
	Grids    []tile.Grid
	Extent   Extent
}

// TargetFormat is the image format of merged tiles
type TargetFormat string

const (
	TargetFormatJPEG TargetFormat = "JPEG"
	TargetFormatPNG  TargetFormat = "PNG"
)

// JobStatus represents the status of a job in the job store
type JobStatus string

const (
	JobStatusPending    JobStatus = "Pending"
	JobStatusInProgress JobStatus = "In-Progress"
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusFailed     JobStatus = "Failed"
	JobStatusExpired    JobStatus = "Expired"
	JobStatusAborted    JobStatus = "Aborted"
)

// Store persists jobs and their tasks
type Store interface {
	CreateLayerJob(ctx context.Context, data *ingestion.Params, destPath, jobType, taskType string, tasks []TaskParams) (string, error)
	CreateTasks(ctx context.Context, jobID string, tasks []TaskParams, taskType string) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus) error
}

// ExtentFromBound converts an orb bound
func ExtentFromBound(b orb.Bound) Extent {
	return Extent{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

// String returns a string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// IsValid checks if the job status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusInProgress, JobStatusCompleted, JobStatusFailed, JobStatusExpired, JobStatusAborted:
		return true
	default:
		return false
	}
}

// IsComplete returns true if the status is terminal
func (s JobStatus) IsComplete() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusExpired || s == JobStatusAborted
}
