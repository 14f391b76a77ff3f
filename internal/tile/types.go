// internal/tile/types.go - Tile pyramid types
package tile

import (
	"fmt"
)

// MaxZoom is the deepest zoom level supported by the tile grid
const MaxZoom = 22

// Coordinate represents a tile coordinate in the tile pyramid
type Coordinate struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

// Range represents an inclusive rectangle of tiles at a single zoom level
type Range struct {
	Zoom int `json:"zoom"`
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// Grid describes the tile matrix layout of a source layer at zoom 0
type Grid string

const (
	GridOneOnOne Grid = "1x1"
	GridTwoOnOne Grid = "2x1"
)

// NewCoordinate creates a new tile coordinate
func NewCoordinate(zoom, x, y int) Coordinate {
	return Coordinate{Zoom: zoom, X: x, Y: y}
}

// String returns a string representation of the tile coordinate
func (c Coordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Zoom, c.X, c.Y)
}

// Validate checks that the coordinate lies inside the pyramid
func (c Coordinate) Validate() error {
	if c.Zoom < 0 || c.Zoom > MaxZoom {
		return fmt.Errorf("zoom level must be between 0 and %d, got %d", MaxZoom, c.Zoom)
	}
	maxTile := 1 << uint(c.Zoom)
	if c.X < 0 || c.X >= maxTile {
		return fmt.Errorf("X coordinate must be between 0 and %d, got %d", maxTile-1, c.X)
	}
	if c.Y < 0 || c.Y >= maxTile {
		return fmt.Errorf("Y coordinate must be between 0 and %d, got %d", maxTile-1, c.Y)
	}
	return nil
}

// Count returns the total number of tiles in the range
func (r Range) Count() int64 {
	if r.MaxX < r.MinX || r.MaxY < r.MinY {
		return 0
	}
	return int64(r.MaxX-r.MinX+1) * int64(r.MaxY-r.MinY+1)
}

// IsValid checks if the grid is a known layout
func (g Grid) IsValid() bool {
	switch g {
	case GridOneOnOne, GridTwoOnOne:
		return true
	default:
		return false
	}
}

// ParseGrid converts a textual grid name
func ParseGrid(s string) (Grid, error) {
	g := Grid(s)
	if !g.IsValid() {
		return "", fmt.Errorf("invalid grid %q, must be one of %q, %q", s, GridOneOnOne, GridTwoOnOne)
	}
	return g, nil
}
