// internal/jobstore/types.go - Job store payloads shared by all backends
package jobstore

import (
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

// JobParameters is the parameter document stored with a merge job
type JobParameters struct {
	Metadata          ingestion.Metadata `json:"metadata"`
	OriginDirectory   string             `json:"originDirectory"`
	FileNames         []string           `json:"fileNames"`
	LayerRelativePath string             `json:"layerRelativePath"`
}

// TaskRequest is one task in a job creation or task append request
type TaskRequest struct {
	Type       string           `json:"type"`
	Parameters merge.TaskParams `json:"parameters"`
}

// JobRequest is the job creation request. The job starts in Pending status.
type JobRequest struct {
	ResourceID  string          `json:"resourceId"`
	Version     string          `json:"version"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Status      merge.JobStatus `json:"status"`
	Parameters  JobParameters   `json:"parameters"`
	Tasks       []TaskRequest   `json:"tasks"`
}

// JobResponse is the reply to a job creation request
type JobResponse struct {
	ID string `json:"id"`
}

// StatusRequest changes the status of a job
type StatusRequest struct {
	Status merge.JobStatus `json:"status"`
}

// NewJobRequest builds the creation request of a layer merge job
func NewJobRequest(data *ingestion.Params, destPath, jobType, taskType string, tasks []merge.TaskParams) JobRequest {
	return JobRequest{
		ResourceID:  data.Metadata.ProductID,
		Version:     data.Metadata.ProductVersion,
		Type:        jobType,
		Description: data.Metadata.Description,
		Status:      merge.JobStatusPending,
		Parameters: JobParameters{
			Metadata:          data.Metadata,
			OriginDirectory:   data.OriginDirectory,
			FileNames:         data.FileNames,
			LayerRelativePath: destPath,
		},
		Tasks: NewTaskRequests(tasks, taskType),
	}
}

// NewTaskRequests wraps task parameters with their task type, keeping order
func NewTaskRequests(tasks []merge.TaskParams, taskType string) []TaskRequest {
	reqs := make([]TaskRequest, len(tasks))
	for i, t := range tasks {
		reqs[i] = TaskRequest{Type: taskType, Parameters: t}
	}
	return reqs
}
