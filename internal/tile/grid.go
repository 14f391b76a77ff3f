// internal/tile/grid.go - Tile grid snapping and resolution conversion
package tile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// tileSize is the pixel width of a tile
const tileSize = 256

// gridEpsilon absorbs floating point noise when a value sits on a tile edge
const gridEpsilon = 1e-9

// maxLatitude is the northern limit of the Web Mercator tile grid
const maxLatitude = 85.05112877980659

// RangeForBound returns the smallest tile range whose tiles cover the bound at the
// given zoom. A bound without width or height still covers one tile.
func RangeForBound(b orb.Bound, zoom int) Range {
	z := maptile.Zoom(zoom)
	topLeft := maptile.Fraction(clampPoint(orb.Point{b.Min[0], b.Max[1]}), z)
	bottomRight := maptile.Fraction(clampPoint(orb.Point{b.Max[0], b.Min[1]}), z)

	r := Range{
		Zoom: zoom,
		MinX: int(math.Floor(topLeft[0] + gridEpsilon)),
		MinY: int(math.Floor(topLeft[1] + gridEpsilon)),
		MaxX: int(math.Ceil(bottomRight[0]-gridEpsilon)) - 1,
		MaxY: int(math.Ceil(bottomRight[1]-gridEpsilon)) - 1,
	}

	last := (1 << uint(zoom)) - 1
	r.MinX = clampInt(r.MinX, 0, last)
	r.MinY = clampInt(r.MinY, 0, last)
	r.MaxX = clampInt(max(r.MaxX, r.MinX), 0, last)
	r.MaxY = clampInt(max(r.MaxY, r.MinY), 0, last)
	return r
}

// Bound returns the lon/lat bound covered by the tile range
func (r Range) Bound() orb.Bound {
	z := maptile.Zoom(r.Zoom)
	first := maptile.New(uint32(r.MinX), uint32(r.MinY), z).Bound()
	last := maptile.New(uint32(r.MaxX), uint32(r.MaxY), z).Bound()
	return first.Union(last)
}

// SnapBound expands the bound outward to the tile edges of the given zoom
func SnapBound(b orb.Bound, zoom int) orb.Bound {
	return RangeForBound(b, zoom).Bound()
}

// ResolutionToZoom returns the shallowest zoom level whose tiles are at least as
// detailed as the given resolution in degrees per pixel
func ResolutionToZoom(degreesPerPixel float64) (int, error) {
	if math.IsNaN(degreesPerPixel) || degreesPerPixel <= 0 {
		return 0, fmt.Errorf("resolution must be positive, got %v", degreesPerPixel)
	}
	zoom := math.Ceil(math.Log2(360/(tileSize*degreesPerPixel)) - gridEpsilon)
	return clampInt(int(zoom), 0, MaxZoom), nil
}

// ZoomResolution returns the longitude resolution in degrees per pixel at zoom
func ZoomResolution(zoom int) float64 {
	return 360 / (tileSize * math.Exp2(float64(zoom)))
}

func clampPoint(p orb.Point) orb.Point {
	return orb.Point{
		math.Max(-180, math.Min(180, p[0])),
		math.Max(-maxLatitude, math.Min(maxLatitude, p[1])),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
