// internal/jobstore/sqlite.go - Local SQLite job store
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

// JobRecord is a row of the jobs table
type JobRecord struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	ResourceID  string `gorm:"type:varchar(255);index"`
	Version     string `gorm:"type:varchar(64)"`
	Type        string `gorm:"type:varchar(255)"`
	Description string
	Status      string         `gorm:"type:varchar(32)"`
	Parameters  datatypes.JSON `gorm:"type:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (JobRecord) TableName() string { return "jobs" }

// TaskRecord is a row of the tasks table. Seq keeps insertion order.
type TaskRecord struct {
	Seq        int64          `gorm:"primaryKey;autoIncrement"`
	ID         string         `gorm:"type:varchar(36);uniqueIndex"`
	JobID      string         `gorm:"type:varchar(36);index"`
	Type       string         `gorm:"type:varchar(255)"`
	Status     string         `gorm:"type:varchar(32)"`
	Parameters datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time
}

func (TaskRecord) TableName() string { return "tasks" }

// SQLiteStore keeps jobs and tasks in a SQLite database
type SQLiteStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and migrates its schema.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(path string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to open database %s", path), err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, internal.NewError(internal.ErrorCodeStore, "failed to access database", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&JobRecord{}, &TaskRecord{}); err != nil {
		return nil, internal.NewError(internal.ErrorCodeStore, "database migration failed", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &SQLiteStore{db: db, logger: log}, nil
}

// Close releases the database
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateLayerJob stores a new job with its first batch of tasks in one transaction
func (s *SQLiteStore) CreateLayerJob(ctx context.Context, data *ingestion.Params, destPath, jobType, taskType string, tasks []merge.TaskParams) (string, error) {
	req := NewJobRequest(data, destPath, jobType, taskType, tasks)
	params, err := json.Marshal(req.Parameters)
	if err != nil {
		return "", internal.NewError(internal.ErrorCodeStore, "failed to encode job parameters", err)
	}
	job := JobRecord{
		ID:          uuid.New().String(),
		ResourceID:  req.ResourceID,
		Version:     req.Version,
		Type:        req.Type,
		Description: req.Description,
		Status:      req.Status.String(),
		Parameters:  datatypes.JSON(params),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		return insertTasks(tx, job.ID, req.Tasks)
	})
	if err != nil {
		return "", internal.NewError(internal.ErrorCodeStore, "failed to create job", err)
	}
	s.logger.Debug("job stored", "jobId", job.ID, "tasks", len(tasks))
	return job.ID, nil
}

// CreateTasks appends tasks to an existing job
func (s *SQLiteStore) CreateTasks(ctx context.Context, jobID string, tasks []merge.TaskParams, taskType string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job JobRecord
		if err := tx.Select("id", "status").First(&job, "id = ?", jobID).Error; err != nil {
			return err
		}
		if status := merge.JobStatus(job.Status); status.IsComplete() {
			return closed(jobID, status)
		}
		return insertTasks(tx, jobID, NewTaskRequests(tasks, taskType))
	})
	if err != nil {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to create tasks for job %s", jobID), notFound(err, jobID))
	}
	return nil
}

// UpdateJobStatus sets the status of a job
func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status merge.JobStatus) error {
	if !status.IsValid() {
		return invalidStatus(status)
	}
	res := s.db.WithContext(ctx).Model(&JobRecord{}).Where("id = ?", jobID).Update("status", status.String())
	if res.Error != nil {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to update status of job %s", jobID), res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to update status of job %s", jobID), notFound(gorm.ErrRecordNotFound, jobID))
	}
	return nil
}

// Job loads a job record
func (s *SQLiteStore) Job(ctx context.Context, jobID string) (*JobRecord, error) {
	var job JobRecord
	if err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to load job %s", jobID), notFound(err, jobID))
	}
	return &job, nil
}

// Tasks loads the tasks of a job in insertion order
func (s *SQLiteStore) Tasks(ctx context.Context, jobID string) ([]merge.TaskParams, error) {
	var records []TaskRecord
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).Order("seq").Find(&records).Error; err != nil {
		return nil, internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to load tasks of job %s", jobID), err)
	}
	tasks := make([]merge.TaskParams, len(records))
	for i, r := range records {
		if err := json.Unmarshal(r.Parameters, &tasks[i]); err != nil {
			return nil, internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("corrupt task %s", r.ID), err)
		}
	}
	return tasks, nil
}

func insertTasks(tx *gorm.DB, jobID string, tasks []TaskRequest) error {
	if len(tasks) == 0 {
		return nil
	}
	records := make([]TaskRecord, len(tasks))
	for i, t := range tasks {
		params, err := json.Marshal(t.Parameters)
		if err != nil {
			return fmt.Errorf("failed to encode task parameters: %w", err)
		}
		records[i] = TaskRecord{
			ID:         uuid.New().String(),
			JobID:      jobID,
			Type:       t.Type,
			Status:     merge.JobStatusPending.String(),
			Parameters: datatypes.JSON(params),
		}
	}
	return tx.Create(&records).Error
}

func notFound(err error, jobID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.NewError(internal.ErrorCodeNotFound, fmt.Sprintf("job %s not found", jobID), err)
	}
	return err
}
