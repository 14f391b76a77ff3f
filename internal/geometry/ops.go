// internal/geometry/ops.go - Polygon set operations
package geometry

import (
	"fmt"

	pc "github.com/murphy214/polyclip"

	"github.com/valpere/tile_merge_tasker/internal"
)

// Intersect returns the area common to all polygons. The result is empty when
// the polygons do not all overlap or when no polygon is given.
func Intersect(polys ...Polygon) (Polygon, error) {
	if len(polys) == 0 {
		return Empty(), nil
	}
	acc := polys[0]
	for _, next := range polys[1:] {
		if acc.IsEmpty() || next.IsEmpty() || !acc.Bound().Intersects(next.Bound()) {
			return Empty(), nil
		}
		var err error
		acc, err = construct(pc.INTERSECTION, acc, next)
		if err != nil {
			return Empty(), err
		}
	}
	return acc, nil
}

// Union returns the area covered by either polygon
func Union(a, b Polygon) (Polygon, error) {
	switch {
	case a.IsEmpty():
		return b, nil
	case b.IsEmpty():
		return a, nil
	}
	return construct(pc.UNION, a, b)
}

// Difference returns the area of a not covered by b
func Difference(a, b Polygon) (Polygon, error) {
	if a.IsEmpty() || b.IsEmpty() || !a.Bound().Intersects(b.Bound()) {
		return a, nil
	}
	return construct(pc.DIFFERENCE, a, b)
}

// construct runs one clipping operation. Axis-aligned operands, such as tile grid
// snapped footprints, are combined exactly on their coordinate grid; anything else
// goes through the clipping library.
func construct(op pc.Op, subject, clipping Polygon) (Polygon, error) {
	for _, operand := range []Polygon{subject, clipping} {
		if err := operand.Validate(); err != nil {
			return Empty(), internal.NewError(internal.ErrorCodeGeometry, fmt.Sprintf("%s failed", opName(op)), err)
		}
	}
	if subject.isRectilinear() && clipping.isRectilinear() {
		return rectilinearOp(subject, clipping, cellRule(op)), nil
	}
	return clip(op, func() pc.Polygon {
		return subject.p.Construct(op, clipping.p)
	})
}

// clip runs the clipping library, which signals malformed input by panicking.
// That panic is reported as a geometry error.
func clip(op pc.Op, run func() pc.Polygon) (result Polygon, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Empty()
			err = internal.NewError(internal.ErrorCodeGeometry, fmt.Sprintf("%s failed", opName(op)), fmt.Errorf("%v", r))
		}
	}()
	return Polygon{p: run()}.clean(), nil
}

func cellRule(op pc.Op) func(inA, inB bool) bool {
	switch op {
	case pc.UNION:
		return func(inA, inB bool) bool { return inA || inB }
	case pc.INTERSECTION:
		return func(inA, inB bool) bool { return inA && inB }
	case pc.DIFFERENCE:
		return func(inA, inB bool) bool { return inA && !inB }
	default:
		return func(inA, inB bool) bool { return inA != inB }
	}
}

func opName(op pc.Op) string {
	switch op {
	case pc.UNION:
		return "union"
	case pc.INTERSECTION:
		return "intersection"
	case pc.DIFFERENCE:
		return "difference"
	default:
		return "clipping"
	}
}
