// internal/output/types.go - Output handling types
package output

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
)

// Format represents different output formats supported by the application
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatJSON    Format = "json"
)

// WriterConfig contains configuration for creating writers
type WriterConfig struct {
	Format      Format
	Pretty      bool
	Compression bool
}

// Formatter turns a report value into bytes
type Formatter interface {
	Format(v any) ([]byte, error)
}

// Destination represents an output destination (file, stdout, etc.)
type Destination interface {
	io.WriteCloser
	Name() string
	Size() int64
}

// OverlapFeature is one overlap region in an overlaps report
type OverlapFeature struct {
	Geometry orb.MultiPolygon
	// Layers are the file names of the covering layers, Indices their input positions
	Layers  []string
	Indices []int
	// Zoom is set when the footprints were snapped to a zoom level
	Zoom  *int
	Tiles int
}

// ZoomSummary counts the work generated at one zoom level
type ZoomSummary struct {
	Zoom  int `json:"zoom"`
	Tasks int `json:"tasks"`
	Tiles int `json:"tiles"`
}

// PlanSummary describes the tasks a merge job would contain
type PlanSummary struct {
	JobID      string        `json:"jobId"`
	ResourceID string        `json:"resourceId"`
	Version    string        `json:"version"`
	Status     string        `json:"status"`
	Tasks      int           `json:"tasks"`
	Tiles      int           `json:"tiles"`
	Batches    []int         `json:"batches"`
	Zooms      []ZoomSummary `json:"zooms"`
}

// String returns a string representation of the format
func (f Format) String() string {
	return string(f)
}

// IsValid checks if the format is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatGeoJSON, FormatJSON:
		return true
	default:
		return false
	}
}

// Validate validates the writer configuration
func (c *WriterConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}
