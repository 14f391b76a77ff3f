// internal/output/formatter.go - Output formatting implementation
package output

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/paulmach/orb/geojson"

	"github.com/valpere/tile_merge_tasker/internal/jobstore"
	"github.com/valpere/tile_merge_tasker/internal/merge"
)

// GeoJSONFormatter formats overlap regions as a GeoJSON FeatureCollection
type GeoJSONFormatter struct {
	pretty bool
}

// NewGeoJSONFormatter creates a new GeoJSON formatter
func NewGeoJSONFormatter(pretty bool) *GeoJSONFormatter {
	return &GeoJSONFormatter{pretty: pretty}
}

// Format accepts []OverlapFeature
func (f *GeoJSONFormatter) Format(v any) ([]byte, error) {
	features, ok := v.([]OverlapFeature)
	if !ok {
		return nil, fmt.Errorf("geojson formatter cannot format %T", v)
	}

	fc := geojson.NewFeatureCollection()
	for _, of := range features {
		feature := geojson.NewFeature(of.Geometry)
		feature.Properties["layers"] = of.Layers
		feature.Properties["indices"] = of.Indices
		if of.Zoom != nil {
			feature.Properties["zoom"] = *of.Zoom
			feature.Properties["tiles"] = of.Tiles
		}
		fc.Append(feature)
	}

	if f.pretty {
		return json.MarshalIndent(fc, "", "  ")
	}
	return fc.MarshalJSON()
}

// JSONFormatter formats any value as plain JSON
type JSONFormatter struct {
	pretty bool
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(pretty bool) *JSONFormatter {
	return &JSONFormatter{pretty: pretty}
}

// Format marshals the value
func (f *JSONFormatter) Format(v any) ([]byte, error) {
	if f.pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// NewFormatter creates the formatter of a format
func NewFormatter(format Format, pretty bool) (Formatter, error) {
	switch format {
	case FormatGeoJSON:
		return NewGeoJSONFormatter(pretty), nil
	case FormatJSON:
		return NewJSONFormatter(pretty), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// NewOverlapFeature converts an overlap region. zoom is nil for unsnapped
// footprints; tiles is only reported with a zoom.
func NewOverlapFeature(ov merge.Overlap, zoom *int, tiles int) OverlapFeature {
	names := make([]string, len(ov.Layers))
	for i, l := range ov.Layers {
		names[i] = l.FileName
	}
	return OverlapFeature{
		Geometry: ov.Intersection.ToOrb(),
		Layers:   names,
		Indices:  ov.Indices,
		Zoom:     zoom,
		Tiles:    tiles,
	}
}

// NewPlanSummary counts the tasks and tiles of a planned job per zoom level,
// deepest zoom first
func NewPlanSummary(job jobstore.MemoryJob) PlanSummary {
	summary := PlanSummary{
		JobID:      job.ID,
		ResourceID: job.Request.ResourceID,
		Version:    job.Request.Version,
		Status:     job.Status.String(),
		Batches:    job.Batches,
		Zooms:      []ZoomSummary{},
	}

	byZoom := make(map[int]*ZoomSummary)
	for _, task := range job.Tasks {
		summary.Tasks++
		summary.Tiles += len(task.Parameters.Batches)
		if len(task.Parameters.Batches) == 0 {
			continue
		}
		// every tile of a task shares its zoom level
		z := task.Parameters.Batches[0].Zoom
		zs, ok := byZoom[z]
		if !ok {
			zs = &ZoomSummary{Zoom: z}
			byZoom[z] = zs
		}
		zs.Tasks++
		zs.Tiles += len(task.Parameters.Batches)
	}
	for _, zs := range byZoom {
		summary.Zooms = append(summary.Zooms, *zs)
	}
	slices.SortFunc(summary.Zooms, func(a, b ZoomSummary) int { return cmp.Compare(b.Zoom, a.Zoom) })
	return summary
}

// EmptyPlanSummary describes a plan that produced no job
func EmptyPlanSummary() PlanSummary {
	return PlanSummary{Batches: []int{}, Zooms: []ZoomSummary{}}
}
