// internal/jobstore/memory.go - In-memory job store
package jobstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

// MemoryJob is a job held by the memory store
type MemoryJob struct {
	ID      string
	Request JobRequest
	Status  merge.JobStatus
	Tasks   []TaskRequest
	// Batches records the size of every persistence call, in call order
	Batches []int
}

// MemoryStore keeps jobs in process memory. It is safe for concurrent use.
type MemoryStore struct {
	jobs  map[string]*MemoryJob
	order []string
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*MemoryJob),
	}
}

// CreateLayerJob stores a new job with its first batch of tasks
func (s *MemoryStore) CreateLayerJob(ctx context.Context, data *ingestion.Params, destPath, jobType, taskType string, tasks []merge.TaskParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", internal.NewError(internal.ErrorCodeStore, "failed to create job", err)
	}
	req := NewJobRequest(data, destPath, jobType, taskType, tasks)
	job := &MemoryJob{
		ID:      uuid.New().String(),
		Request: req,
		Status:  req.Status,
		Tasks:   slices.Clone(req.Tasks),
		Batches: []int{len(tasks)},
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return job.ID, nil
}

// CreateTasks appends tasks to an existing job
func (s *MemoryStore) CreateTasks(ctx context.Context, jobID string, tasks []merge.TaskParams, taskType string) error {
	if err := ctx.Err(); err != nil {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to create tasks for job %s", jobID), err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to create tasks for job %s", jobID), missing(jobID))
	}
	if job.Status.IsComplete() {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to create tasks for job %s", jobID), closed(jobID, job.Status))
	}
	job.Tasks = append(job.Tasks, NewTaskRequests(tasks, taskType)...)
	job.Batches = append(job.Batches, len(tasks))
	return nil
}

// UpdateJobStatus sets the status of a job
func (s *MemoryStore) UpdateJobStatus(ctx context.Context, jobID string, status merge.JobStatus) error {
	if !status.IsValid() {
		return invalidStatus(status)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to update status of job %s", jobID), missing(jobID))
	}
	job.Status = status
	return nil
}

// Job returns a copy of a stored job
func (s *MemoryStore) Job(jobID string) (MemoryJob, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return MemoryJob{}, missing(jobID)
	}
	cp := *job
	cp.Tasks = slices.Clone(job.Tasks)
	cp.Batches = slices.Clone(job.Batches)
	return cp, nil
}

// Jobs returns the ids of all jobs in creation order
func (s *MemoryStore) Jobs() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.order)
}

func missing(jobID string) error {
	return internal.NewError(internal.ErrorCodeNotFound, fmt.Sprintf("job %s not found", jobID), nil)
}

// closed is the cause of rejecting tasks for a job in a terminal status
func closed(jobID string, status merge.JobStatus) error {
	return internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("job %s is %s", jobID, status), nil)
}

func invalidStatus(status merge.JobStatus) error {
	return internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("invalid job status %q", status), nil)
}
