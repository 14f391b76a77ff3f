// internal/tile/ranger.go - Footprint to tile coordinate encoding
package tile

import (
	"iter"

	"github.com/paulmach/orb/maptile"

	"github.com/valpere/tile_merge_tasker/internal/geometry"
)

// Encode yields the tiles at zoom whose centre lies inside the footprint, row by
// row from north to south and west to east. For footprints aligned with the tile
// grid of that zoom the result is exactly the set of covered tiles.
func Encode(footprint geometry.Polygon, zoom int) iter.Seq[Coordinate] {
	return func(yield func(Coordinate) bool) {
		if footprint.IsEmpty() {
			return
		}
		prepared := footprint.Prepare()
		r := RangeForBound(footprint.Bound(), zoom)
		z := maptile.Zoom(zoom)
		for y := r.MinY; y <= r.MaxY; y++ {
			for x := r.MinX; x <= r.MaxX; x++ {
				center := maptile.New(uint32(x), uint32(y), z).Bound().Center()
				if !prepared.Contains(center) {
					continue
				}
				if !yield(NewCoordinate(zoom, x, y)) {
					return
				}
			}
		}
	}
}

// Batches groups consecutive items into slices of size elements. The final slice
// may be shorter; no slice is ever empty. size must be positive.
func Batches[T any](size int, items iter.Seq[T]) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		batch := make([]T, 0, size)
		for item := range items {
			batch = append(batch, item)
			if len(batch) == size {
				if !yield(batch) {
					return
				}
				batch = make([]T, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch)
		}
	}
}
