// internal/geometry/polygon.go - Polygon model backed by the clipping library
package geometry

import (
	"fmt"
	"math"

	pc "github.com/murphy214/polyclip"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/valpere/tile_merge_tasker/internal"
)

// areaEpsilon is the smallest contour area, in square degrees, treated as non-empty
const areaEpsilon = 1e-12

// crossEpsilon is the cross product magnitude below which three points are collinear
const crossEpsilon = 1e-12

// Polygon is a planar region in lon/lat coordinates. Contours follow the even-odd
// fill rule and are stored open (the closing point is implicit).
type Polygon struct {
	p pc.Polygon
}

// Empty returns a polygon without any contour
func Empty() Polygon {
	return Polygon{}
}

// FromBound creates the rectangle covering the bound
func FromBound(b orb.Bound) Polygon {
	c := rectContour(b.Min[0], b.Min[1], b.Max[0], b.Max[1])
	return Polygon{p: pc.Polygon{c}}.clean()
}

// FromOrb converts an orb polygonal geometry. Points and lines are rejected.
func FromOrb(g orb.Geometry) (Polygon, error) {
	var rings []orb.Ring
	switch v := g.(type) {
	case orb.Bound:
		return FromBound(v), nil
	case orb.Ring:
		rings = append(rings, v)
	case orb.Polygon:
		rings = append(rings, v...)
	case orb.MultiPolygon:
		for _, poly := range v {
			rings = append(rings, poly...)
		}
	case nil:
		return Polygon{}, internal.NewError(internal.ErrorCodeGeometry, "footprint is missing", nil)
	default:
		return Polygon{}, internal.NewError(internal.ErrorCodeGeometry,
			fmt.Sprintf("unsupported footprint type %s", g.GeoJSONType()), nil)
	}

	var out pc.Polygon
	for i, ring := range rings {
		contour, err := ringToContour(ring)
		if err != nil {
			return Polygon{}, internal.NewError(internal.ErrorCodeGeometry, fmt.Sprintf("invalid ring %d", i), err)
		}
		out.Add(contour)
	}
	return Polygon{p: out}.clean(), nil
}

// FromGeoJSON decodes a GeoJSON geometry object
func FromGeoJSON(data []byte) (Polygon, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return Polygon{}, internal.NewError(internal.ErrorCodeGeometry, "failed to decode GeoJSON footprint", err)
	}
	return FromOrb(g.Geometry())
}

// IsEmpty reports whether the polygon covers no area
func (p Polygon) IsEmpty() bool {
	for _, c := range p.p {
		if math.Abs(contourArea(c)) > areaEpsilon {
			return false
		}
	}
	return true
}

// Bound returns the bounding box of the polygon, the zero bound when empty
func (p Polygon) Bound() orb.Bound {
	if len(p.p) == 0 {
		return orb.Bound{}
	}
	r := p.p.BoundingBox()
	return orb.Bound{
		Min: orb.Point{r.Min.X, r.Min.Y},
		Max: orb.Point{r.Max.X, r.Max.Y},
	}
}

// Contains reports whether the point lies inside the polygon under the even-odd rule
func (p Polygon) Contains(pt orb.Point) bool {
	return p.Prepare().Contains(pt)
}

// Prepared is a polygon converted once for repeated containment queries
type Prepared struct {
	rings []orb.Ring
	bound orb.Bound
}

// Prepare converts the contours to closed rings
func (p Polygon) Prepare() Prepared {
	rings := make([]orb.Ring, len(p.p))
	for i, c := range p.p {
		rings[i] = contourToRing(c)
	}
	return Prepared{rings: rings, bound: p.Bound()}
}

// Contains reports whether the point lies inside the prepared polygon
func (pp Prepared) Contains(pt orb.Point) bool {
	if len(pp.rings) == 0 || !pp.bound.Contains(pt) {
		return false
	}
	inside := false
	for _, r := range pp.rings {
		if planar.RingContains(r, pt) {
			inside = !inside
		}
	}
	return inside
}

// ToOrb converts the polygon to an orb multipolygon. Every contour nested an odd
// number of times becomes a hole of the innermost outer ring containing it.
func (p Polygon) ToOrb() orb.MultiPolygon {
	rings := make([]orb.Ring, len(p.p))
	for i, c := range p.p {
		rings[i] = contourToRing(c)
	}

	depth := make([]int, len(rings))
	parent := make([]int, len(rings))
	for i := range rings {
		parent[i] = -1
		sample := samplePoint(rings[i])
		for j := range rings {
			if i == j || !planar.RingContains(rings[j], sample) {
				continue
			}
			depth[i]++
			if parent[i] == -1 || math.Abs(planar.Area(rings[j])) < math.Abs(planar.Area(rings[parent[i]])) {
				parent[i] = j
			}
		}
	}

	index := make(map[int]int)
	var mp orb.MultiPolygon
	for i, ring := range rings {
		if depth[i]%2 == 0 {
			if ring.Orientation() != orb.CCW {
				ring.Reverse()
			}
			index[i] = len(mp)
			mp = append(mp, orb.Polygon{ring})
		}
	}
	for i, ring := range rings {
		if depth[i]%2 == 1 {
			owner, ok := index[parent[i]]
			if !ok {
				continue
			}
			if ring.Orientation() != orb.CW {
				ring.Reverse()
			}
			mp[owner] = append(mp[owner], ring)
		}
	}
	return mp
}

// Validate reports a geometry error when a contour crosses itself. Contours
// touching at a vertex or along an edge are accepted.
func (p Polygon) Validate() error {
	for k, c := range p.p {
		if i, j, ok := selfCrossing(c); ok {
			return internal.NewError(internal.ErrorCodeGeometry,
				fmt.Sprintf("contour %d crosses itself at edges %d and %d", k, i, j), nil)
		}
	}
	return nil
}

// Contours returns the number of contours
func (p Polygon) Contours() int {
	return len(p.p)
}

// clean drops degenerate contours produced by clipping touching edges
func (p Polygon) clean() Polygon {
	out := make(pc.Polygon, 0, len(p.p))
	for _, c := range p.p {
		if len(c) >= 3 && math.Abs(contourArea(c)) > areaEpsilon {
			out = append(out, c)
		}
	}
	return Polygon{p: out}
}

func ringToContour(ring orb.Ring) (pc.Contour, error) {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("ring has %d distinct points, need at least 3", len(ring))
	}
	contour := make(pc.Contour, 0, len(ring))
	for _, pt := range ring {
		if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) || math.IsInf(pt[0], 0) || math.IsInf(pt[1], 0) {
			return nil, fmt.Errorf("non-finite coordinate %v", pt)
		}
		contour.Add(pc.Point{X: pt[0], Y: pt[1]})
	}
	return contour, nil
}

func contourToRing(c pc.Contour) orb.Ring {
	ring := make(orb.Ring, 0, len(c)+1)
	for _, pt := range c {
		ring = append(ring, orb.Point{pt.X, pt.Y})
	}
	if len(c) > 0 {
		ring = append(ring, orb.Point{c[0].X, c[0].Y})
	}
	return ring
}

// contourArea is the signed shoelace area
func contourArea(c pc.Contour) float64 {
	var sum float64
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return sum / 2
}

// selfCrossing finds two non-adjacent edges of the contour whose interiors cross
func selfCrossing(c pc.Contour) (int, int, bool) {
	n := len(c)
	for i := 0; i < n; i++ {
		a1, a2 := c[i], c[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsCross(a1, a2, c[j], c[(j+1)%n]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func segmentsCross(p1, p2, q1, q2 pc.Point) bool {
	d1, d2 := orientation(q1, q2, p1), orientation(q1, q2, p2)
	d3, d4 := orientation(p1, p2, q1), orientation(p1, p2, q2)
	return d1*d2 < 0 && d3*d4 < 0
}

// orientation is the sign of the turn a->b->c, zero within crossEpsilon
func orientation(a, b, c pc.Point) int {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	switch {
	case cross > crossEpsilon:
		return 1
	case cross < -crossEpsilon:
		return -1
	default:
		return 0
	}
}

// samplePoint returns a point just inside the ring next to its first edge
func samplePoint(ring orb.Ring) orb.Point {
	a, b := ring[0], ring[1]
	mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	// inward normal depends on orientation
	nx, ny := -(b[1] - a[1]), b[0]-a[0]
	if ring.Orientation() == orb.CW {
		nx, ny = -nx, -ny
	}
	length := math.Hypot(nx, ny)
	if length == 0 {
		return mid
	}
	const step = 1e-9
	return orb.Point{mid[0] + nx/length*step, mid[1] + ny/length*step}
}
