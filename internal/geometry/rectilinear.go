// internal/geometry/rectilinear.go - Exact set operations on axis-aligned polygons
package geometry

import (
	"slices"

	pc "github.com/murphy214/polyclip"
	"github.com/paulmach/orb"
)

// isRectilinear reports whether every edge of the polygon is horizontal or vertical
func (p Polygon) isRectilinear() bool {
	for _, c := range p.p {
		for i := range c {
			a, b := c[i], c[(i+1)%len(c)]
			if a.X != b.X && a.Y != b.Y {
				return false
			}
		}
	}
	return true
}

// gridVertex and gridEdge index the grid spanned by the operands' coordinates
type gridVertex struct{ i, j int }

type gridEdge struct{ from, to gridVertex }

func (e gridEdge) dir() (int, int) {
	return e.to.i - e.from.i, e.to.j - e.from.j
}

// rectilinearOp combines two axis-aligned polygons on the grid spanned by their
// vertex coordinates. Every grid cell lies entirely inside or outside each operand,
// so testing the cell centre decides membership exactly. keep selects the cells of
// the result from their membership in a and b.
//
// The result is the outline of the kept cells: outer rings counter-clockwise,
// holes clockwise, no two contours sharing an edge. Cells touching only at a
// corner end up in separate contours.
func rectilinearOp(a, b Polygon, keep func(inA, inB bool) bool) Polygon {
	xs := gridCoords(a, b, func(pt pc.Point) float64 { return pt.X })
	ys := gridCoords(a, b, func(pt pc.Point) float64 { return pt.Y })
	nx, ny := len(xs)-1, len(ys)-1
	if nx < 1 || ny < 1 {
		return Empty()
	}

	pa, pb := a.Prepare(), b.Prepare()
	cells := make([][]bool, ny)
	for j := range cells {
		cells[j] = make([]bool, nx)
		cy := (ys[j] + ys[j+1]) / 2
		for i := range cells[j] {
			center := orb.Point{(xs[i] + xs[i+1]) / 2, cy}
			cells[j][i] = keep(pa.Contains(center), pb.Contains(center))
		}
	}
	in := func(i, j int) bool {
		return i >= 0 && j >= 0 && i < nx && j < ny && cells[j][i]
	}

	// boundary edges keep the kept cell on their left
	var edges []gridEdge
	outgoing := make(map[gridVertex][]gridEdge)
	add := func(from, to gridVertex) {
		e := gridEdge{from: from, to: to}
		edges = append(edges, e)
		outgoing[from] = append(outgoing[from], e)
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if !in(i, j) {
				continue
			}
			if !in(i, j-1) {
				add(gridVertex{i, j}, gridVertex{i + 1, j})
			}
			if !in(i+1, j) {
				add(gridVertex{i + 1, j}, gridVertex{i + 1, j + 1})
			}
			if !in(i, j+1) {
				add(gridVertex{i + 1, j + 1}, gridVertex{i, j + 1})
			}
			if !in(i-1, j) {
				add(gridVertex{i, j + 1}, gridVertex{i, j})
			}
		}
	}

	// the next edge turns left when it can, which splits corner-touching cells
	next := func(e gridEdge) gridEdge {
		dx, dy := e.dir()
		candidates := outgoing[e.to]
		for _, want := range [][2]int{{-dy, dx}, {dx, dy}, {dy, -dx}} {
			for _, n := range candidates {
				if ndx, ndy := n.dir(); ndx == want[0] && ndy == want[1] {
					return n
				}
			}
		}
		return candidates[0]
	}

	var out pc.Polygon
	used := make(map[gridEdge]bool, len(edges))
	for _, start := range edges {
		if used[start] {
			continue
		}
		var loop []gridEdge
		for e := start; !used[e]; e = next(e) {
			used[e] = true
			loop = append(loop, e)
		}

		var contour pc.Contour
		for k, e := range loop {
			pdx, pdy := loop[(k+len(loop)-1)%len(loop)].dir()
			if dx, dy := e.dir(); dx == pdx && dy == pdy {
				continue
			}
			contour.Add(pc.Point{X: xs[e.from.i], Y: ys[e.from.j]})
		}
		out = append(out, contour)
	}
	return Polygon{p: out}.clean()
}

func gridCoords(a, b Polygon, axis func(pc.Point) float64) []float64 {
	var coords []float64
	for _, p := range []Polygon{a, b} {
		for _, c := range p.p {
			for _, pt := range c {
				coords = append(coords, axis(pt))
			}
		}
	}
	slices.Sort(coords)
	return slices.Compact(coords)
}

func rectContour(minX, minY, maxX, maxY float64) pc.Contour {
	return pc.Contour{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}
