// internal/jobstore/jobstore_test.go - Unit tests for job store backends
package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/merge"
	"github.com/valpere/tile_merge_tasker/internal/tile"
)

var (
	_ merge.Store = (*HTTPStore)(nil)
	_ merge.Store = (*SQLiteStore)(nil)
	_ merge.Store = (*MemoryStore)(nil)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testIngestion() *ingestion.Params {
	return &ingestion.Params{
		FileNames:       []string{"a.gpkg", "b.gpkg"},
		OriginDirectory: "ingest/2024",
		Metadata: ingestion.Metadata{
			ProductID:        "orthophoto",
			ProductVersion:   "3.0",
			Description:      "spring flight",
			Footprint:        geojson.NewGeometry(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}.ToPolygon()),
			MaxResolutionDeg: 0.001,
		},
	}
}

func testTasks(zooms ...int) []merge.TaskParams {
	tasks := make([]merge.TaskParams, len(zooms))
	for i, z := range zooms {
		tasks[i] = merge.TaskParams{
			TargetFormat: merge.TargetFormatPNG,
			Batches:      []tile.Coordinate{tile.NewCoordinate(z, 0, 0)},
			Sources:      []merge.Source{{Type: "GPKG", Path: "/dest"}},
		}
	}
	return tasks
}

func TestNewJobRequest(t *testing.T) {
	req := NewJobRequest(testIngestion(), "layers/orthophoto", "Ingestion_Update", "tilesMerging", testTasks(3, 2))

	assert.Equal(t, "orthophoto", req.ResourceID)
	assert.Equal(t, "3.0", req.Version)
	assert.Equal(t, "Ingestion_Update", req.Type)
	assert.Equal(t, merge.JobStatusPending, req.Status)
	assert.Equal(t, "layers/orthophoto", req.Parameters.LayerRelativePath)
	require.Len(t, req.Tasks, 2)
	assert.Equal(t, "tilesMerging", req.Tasks[0].Type)
	assert.Equal(t, 3, req.Tasks[0].Parameters.Batches[0].Zoom)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.CreateLayerJob(ctx, testIngestion(), "dest", "job", "task", testTasks(2, 1))
	require.NoError(t, err)
	require.NoError(t, store.CreateTasks(ctx, id, testTasks(0), "task"))
	require.NoError(t, store.UpdateJobStatus(ctx, id, merge.JobStatusFailed))

	job, err := store.Job(id)
	require.NoError(t, err)
	assert.Equal(t, merge.JobStatusFailed, job.Status)
	assert.Equal(t, []int{2, 1}, job.Batches)
	require.Len(t, job.Tasks, 3)
	assert.Equal(t, 0, job.Tasks[2].Parameters.Batches[0].Zoom)
	assert.Equal(t, []string{id}, store.Jobs())

	err = store.CreateTasks(ctx, id, testTasks(0), "task")
	require.Error(t, err, "a failed job takes no more tasks")
	assert.True(t, internal.HasCode(err, internal.ErrorCodeStore))
	assert.True(t, internal.HasCode(err, internal.ErrorCodeValidation))

	err = store.UpdateJobStatus(ctx, id, merge.JobStatus("Paused"))
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeValidation))

	err = store.CreateTasks(ctx, "missing", testTasks(0), "task")
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeStore))
	assert.True(t, internal.HasCode(err, internal.ErrorCodeNotFound))
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(":memory:", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	id, err := store.CreateLayerJob(ctx, testIngestion(), "dest", "Ingestion_Update", "tilesMerging", testTasks(5, 4))
	require.NoError(t, err)
	require.NoError(t, store.CreateTasks(ctx, id, testTasks(3, 2, 1), "tilesMerging"))

	tasks, err := store.Tasks(ctx, id)
	require.NoError(t, err)
	zooms := make([]int, len(tasks))
	for i, task := range tasks {
		zooms[i] = task.Batches[0].Zoom
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1}, zooms, "tasks keep persistence order")
	assert.Equal(t, merge.TargetFormatPNG, tasks[0].TargetFormat)

	require.NoError(t, store.UpdateJobStatus(ctx, id, merge.JobStatusFailed))
	job, err := store.Job(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Failed", job.Status)
	assert.Equal(t, "orthophoto", job.ResourceID)

	var params JobParameters
	require.NoError(t, json.Unmarshal(job.Parameters, &params))
	assert.Equal(t, []string{"a.gpkg", "b.gpkg"}, params.FileNames)

	err = store.CreateTasks(ctx, id, testTasks(0), "tilesMerging")
	require.Error(t, err, "a failed job takes no more tasks")
	assert.True(t, internal.HasCode(err, internal.ErrorCodeValidation))
	tasks, err = store.Tasks(ctx, id)
	require.NoError(t, err)
	assert.Len(t, tasks, 5)

	err = store.UpdateJobStatus(ctx, id, merge.JobStatus("Paused"))
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeValidation))

	err = store.CreateTasks(ctx, "missing", testTasks(0), "tilesMerging")
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeStore))
	assert.True(t, internal.HasCode(err, internal.ErrorCodeNotFound))

	err = store.UpdateJobStatus(ctx, "missing", merge.JobStatusFailed)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeNotFound))
}

func newTestHTTPStore(t *testing.T, url string, attempts int) *HTTPStore {
	t.Helper()
	store, err := NewHTTPStore(HTTPConfig{
		URL:        url,
		Timeout:    5 * time.Second,
		Attempts:   attempts,
		RetryDelay: time.Millisecond,
	}, quietLogger())
	require.NoError(t, err)
	return store
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	var created JobRequest
	var appended []TaskRequest
	var status StatusRequest

	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"job-42"}`))
	})
	mux.HandleFunc("POST /jobs/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "job-42", r.PathValue("id"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&appended))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("PUT /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "job-42", r.PathValue("id"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&status))
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()
	store := newTestHTTPStore(t, server.URL+"/", 1)

	id, err := store.CreateLayerJob(ctx, testIngestion(), "dest", "Ingestion_Update", "tilesMerging", testTasks(2))
	require.NoError(t, err)
	assert.Equal(t, "job-42", id)
	assert.Equal(t, "orthophoto", created.ResourceID)
	require.Len(t, created.Tasks, 1)

	require.NoError(t, store.CreateTasks(ctx, id, testTasks(1, 0), "tilesMerging"))
	require.Len(t, appended, 2)
	assert.Equal(t, "tilesMerging", appended[1].Type)

	require.NoError(t, store.UpdateJobStatus(ctx, id, merge.JobStatusFailed))
	assert.Equal(t, merge.JobStatusFailed, status.Status)
}

func TestHTTPStoreRetries(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantKind  string
	}{
		{"server error is retried", http.StatusServiceUnavailable, 3, "internal error"},
		{"bad request is not retried", http.StatusBadRequest, 1, "bad request"},
		{"missing job is not retried", http.StatusNotFound, 1, "not found"},
		{"conflict is not retried", http.StatusConflict, 1, "conflict"},
		{"gateway error is retried", http.StatusBadGateway, 3, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			store := newTestHTTPStore(t, server.URL, 3)
			err := store.CreateTasks(context.Background(), "job-1", testTasks(0), "tilesMerging")
			require.Error(t, err)
			assert.True(t, internal.HasCode(err, internal.ErrorCodeStore))
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantCalls > 1 {
				assert.Contains(t, err.Error(), fmt.Sprintf("failed after %d attempts", tt.wantCalls))
			} else {
				assert.NotContains(t, err.Error(), "attempts", "a single request reports no attempt count")
			}

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantKind, httpErr.Kind)
		})
	}
}

func TestHTTPStoreRecoversAfterRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"job-7"}`))
	}))
	defer server.Close()

	store := newTestHTTPStore(t, server.URL, 2)
	id, err := store.CreateLayerJob(context.Background(), testIngestion(), "dest", "job", "task", testTasks(0))
	require.NoError(t, err)
	assert.Equal(t, "job-7", id)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPStoreRejectsUnknownStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	err := newTestHTTPStore(t, server.URL, 1).UpdateJobStatus(context.Background(), "job-1", merge.JobStatus("Paused"))
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeValidation))
	assert.Zero(t, calls.Load())
}

func TestHTTPStoreMissingJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := newTestHTTPStore(t, server.URL, 1).CreateLayerJob(context.Background(), testIngestion(), "dest", "job", "task", testTasks(0))
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeStore))
}

func TestNewHTTPStoreInvalidURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative/path"} {
		_, err := NewHTTPStore(HTTPConfig{URL: u}, nil)
		require.Error(t, err, u)
		assert.True(t, internal.HasCode(err, internal.ErrorCodeConfig))
	}
}
