// internal/merge/generator.go - Overlap and merge task generation
package merge

import (
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"

	"github.com/valpere/tile_merge_tasker/internal/geometry"
	"github.com/valpere/tile_merge_tasker/internal/tile"
)

// LayerOverlaps lazily yields the disjoint overlap regions of the layers
func (t *Tasker) LayerOverlaps(layers []Layer) iter.Seq2[Overlap, error] {
	return func(yield func(Overlap, error) bool) {
		footprints := make([]geometry.Polygon, len(layers))
		for i, l := range layers {
			footprints[i] = l.Footprint
		}
		for region, err := range t.decomposer.Decompose(footprints) {
			if err != nil {
				yield(Overlap{}, err)
				return
			}
			ov := Overlap{
				Intersection: region.Intersection,
				Layers:       make([]Layer, len(region.Members)),
				Indices:      region.Members,
			}
			for i, m := range region.Members {
				ov.Layers[i] = layers[m]
			}
			if !yield(ov, nil) {
				return
			}
		}
	}
}

// ZoomOverlaps yields the overlap regions of the layers after snapping each
// footprint's bounding box outward to the tile grid of the zoom level
func (t *Tasker) ZoomOverlaps(layers []Layer, zoom int) iter.Seq2[Overlap, error] {
	bounds := make([]orb.Bound, len(layers))
	for i, l := range layers {
		bounds[i] = l.Footprint.Bound()
	}
	return t.LayerOverlaps(snapLayers(layers, bounds, zoom))
}

// BatchedTasks lazily yields the merge tasks of every zoom level, from MaxZoom
// down to 0. Each overlap region is split into tasks of at most TileBatchSize
// tiles.
func (t *Tasker) BatchedTasks(params *Parameters) iter.Seq2[TaskParams, error] {
	return func(yield func(TaskParams, error) bool) {
		// snapping always starts from the original bounds, never a previous zoom
		bounds := make([]orb.Bound, len(params.Layers))
		for i, l := range params.Layers {
			bounds[i] = l.Footprint.Bound()
		}

		for zoom := params.MaxZoom; zoom >= 0; zoom-- {
			snapped := snapLayers(params.Layers, bounds, zoom)
			for ov, err := range t.LayerOverlaps(snapped) {
				if err != nil {
					yield(TaskParams{}, fmt.Errorf("zoom %d: %w", zoom, err))
					return
				}
				tiles := tile.Encode(ov.Intersection, zoom)
				for batch := range tile.Batches(t.opts.TileBatchSize, tiles) {
					if !yield(t.newTask(batch, ov, params), nil) {
						return
					}
				}
			}
		}
	}
}

// newTask builds the task of one tile batch. Grids are matched by the layer's
// position in the original layer list.
func (t *Tasker) newTask(batch []tile.Coordinate, ov Overlap, params *Parameters) TaskParams {
	sources := make([]Source, 0, len(ov.Layers)+1)
	sources = append(sources, Source{
		Type: t.opts.CacheType,
		Path: params.DestPath,
	})
	for i, layer := range ov.Layers {
		extent := params.Extent
		src := Source{
			Type:   sourceType(layer.FileName),
			Path:   layer.TilesPath,
			Extent: &extent,
		}
		if idx := ov.Indices[i]; idx < len(params.Grids) {
			grid := params.Grids[idx]
			src.Grid = &grid
		}
		sources = append(sources, src)
	}
	return TaskParams{
		TargetFormat: t.opts.TargetFormat,
		Batches:      batch,
		Sources:      sources,
	}
}

func snapLayers(layers []Layer, bounds []orb.Bound, zoom int) []Layer {
	snapped := make([]Layer, len(layers))
	for i, l := range layers {
		snapped[i] = Layer{
			FileName:  l.FileName,
			TilesPath: l.TilesPath,
			Footprint: geometry.FromBound(tile.SnapBound(bounds[i], zoom)),
		}
	}
	return snapped
}

// sourceType is the upper-cased file extension, or the whole name without one
func sourceType(fileName string) string {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if ext == "" {
		ext = fileName
	}
	return strings.ToUpper(ext)
}
