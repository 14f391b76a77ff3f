// internal/jobstore/http.go - Job manager HTTP client
package jobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

// HTTPConfig configures the job manager client
type HTTPConfig struct {
	URL        string
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
	Headers    map[string]string
}

// HTTPStore persists jobs through the job manager REST API
type HTTPStore struct {
	client  *http.Client
	baseURL string
	config  HTTPConfig
	logger  *slog.Logger
}

// HTTPError is a non-2xx reply of the job manager
type HTTPError struct {
	StatusCode int
	Kind       string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.StatusCode)
}

// Retryable reports whether the request may succeed when repeated
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// NewHTTPStore creates a job manager client
func NewHTTPStore(cfg HTTPConfig, logger *slog.Logger) (*HTTPStore, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, internal.NewError(internal.ErrorCodeConfig, fmt.Sprintf("invalid job manager URL %q", cfg.URL), err)
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPStore{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(base.String(), "/"),
		config:  cfg,
		logger:  logger,
	}, nil
}

// CreateLayerJob creates a job holding the first batch of tasks and returns its id
func (s *HTTPStore) CreateLayerJob(ctx context.Context, data *ingestion.Params, destPath, jobType, taskType string, tasks []merge.TaskParams) (string, error) {
	req := NewJobRequest(data, destPath, jobType, taskType, tasks)
	var resp JobResponse
	if err := s.send(ctx, http.MethodPost, "/jobs", req, &resp); err != nil {
		return "", internal.NewError(internal.ErrorCodeStore, "failed to create job", err)
	}
	if resp.ID == "" {
		return "", internal.NewError(internal.ErrorCodeStore, "job manager returned no job id", nil)
	}
	return resp.ID, nil
}

// CreateTasks appends tasks to an existing job
func (s *HTTPStore) CreateTasks(ctx context.Context, jobID string, tasks []merge.TaskParams, taskType string) error {
	path := "/jobs/" + url.PathEscape(jobID) + "/tasks"
	if err := s.send(ctx, http.MethodPost, path, NewTaskRequests(tasks, taskType), nil); err != nil {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to create tasks for job %s", jobID), err)
	}
	return nil
}

// UpdateJobStatus sets the status of a job
func (s *HTTPStore) UpdateJobStatus(ctx context.Context, jobID string, status merge.JobStatus) error {
	if !status.IsValid() {
		return invalidStatus(status)
	}
	path := "/jobs/" + url.PathEscape(jobID)
	if err := s.send(ctx, http.MethodPut, path, StatusRequest{Status: status}, nil); err != nil {
		return internal.NewError(internal.ErrorCodeStore, fmt.Sprintf("failed to update status of job %s", jobID), err)
	}
	return nil
}

// send performs one API call, repeating it on server and network errors up to
// the configured number of attempts
func (s *HTTPStore) send(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	made := 0
	for attempt := 1; attempt <= s.config.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(s.config.RetryDelay):
			}
		}

		made = attempt
		lastErr = s.do(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("job manager request failed",
			"method", method,
			"path", path,
			"attempt", attempt,
			"error", lastErr)
	}
	if made > 1 {
		return fmt.Errorf("failed after %d attempts: %w", made, lastErr)
	}
	return lastErr
}

func (s *HTTPStore) do(ctx context.Context, method, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TileMergeTasker/1.0")
	for key, value := range s.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return internal.NewError(internal.ErrorCodeNetwork, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return internal.NewError(internal.ErrorCodeNetwork, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Kind: statusKind(resp.StatusCode), Body: strings.TrimSpace(string(data))}
		if httpErr.Retryable() {
			s.logger.Error("job manager error", "method", method, "path", path, "status", resp.StatusCode, "body", httpErr.Body)
		} else {
			s.logger.Debug("job manager rejected request", "method", method, "path", path, "status", resp.StatusCode, "body", httpErr.Body)
		}
		return httpErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusKind(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal error"
	}
}

// shouldRetry retries network failures and 5xx replies, never client errors
func shouldRetry(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return internal.HasCode(err, internal.ErrorCodeNetwork)
}
