// internal/geometry/polygon_test.go - Unit tests for polygon model and set operations
package geometry

import (
	"testing"

	pc "github.com/murphy214/polyclip"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tile_merge_tasker/internal"
)

func rect(minX, minY, maxX, maxY float64) Polygon {
	return FromBound(orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}})
}

func TestFromBound(t *testing.T) {
	p := rect(0, 0, 2, 1)
	assert.False(t, p.IsEmpty())
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 1}}, p.Bound())
	assert.True(t, p.Contains(orb.Point{1, 0.5}))
	assert.False(t, p.Contains(orb.Point{3, 0.5}))

	assert.True(t, rect(0, 0, 0, 1).IsEmpty(), "zero-width bound has no area")
}

func TestFromOrb(t *testing.T) {
	tests := []struct {
		name    string
		geom    orb.Geometry
		wantErr bool
	}{
		{"polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}, false},
		{"multipolygon", orb.MultiPolygon{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
		}, false},
		{"bound", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, false},
		{"point", orb.Point{1, 1}, true},
		{"line", orb.LineString{{0, 0}, {1, 1}}, true},
		{"degenerate ring", orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}, true},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromOrb(tt.geom)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, internal.HasCode(err, internal.ErrorCodeGeometry))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFromGeoJSON(t *testing.T) {
	p, err := FromGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`))
	require.NoError(t, err)
	assert.True(t, p.Contains(orb.Point{2, 2}))

	_, err = FromGeoJSON([]byte(`{"type":`))
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeGeometry))
}

func TestIntersect(t *testing.T) {
	a := rect(0, 0, 2, 2)
	b := rect(1, 1, 3, 3)
	c := rect(1.5, 0, 4, 1.5)

	got, err := Intersect(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 2, 2}, boundSlice(got.Bound()), 1e-9)

	got, err = Intersect(a, b, c)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 1, 2, 1.5}, boundSlice(got.Bound()), 1e-9)

	got, err = Intersect(a, rect(5, 5, 6, 6))
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	got, err = Intersect(a, rect(2, 0, 3, 2))
	require.NoError(t, err)
	assert.True(t, got.IsEmpty(), "touching edges share no area")

	got, err = Intersect()
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestUnionAndDifference(t *testing.T) {
	outer := rect(0, 0, 4, 4)
	inner := rect(1, 1, 2, 2)

	diff, err := Difference(outer, inner)
	require.NoError(t, err)
	assert.False(t, diff.IsEmpty())
	assert.True(t, diff.Contains(orb.Point{0.5, 0.5}))
	assert.False(t, diff.Contains(orb.Point{1.5, 1.5}))

	mp := diff.ToOrb()
	assert.True(t, planar.MultiPolygonContains(mp, orb.Point{3.5, 3.5}))
	assert.False(t, planar.MultiPolygonContains(mp, orb.Point{1.5, 1.5}))

	back, err := Union(diff, inner)
	require.NoError(t, err)
	assert.True(t, back.Contains(orb.Point{1.5, 1.5}))
	assert.True(t, back.Contains(orb.Point{3.5, 3.5}))
	assert.Equal(t, 1, back.Contours(), "cells merge back into a single rectangle")

	rest, err := Difference(inner, outer)
	require.NoError(t, err)
	assert.True(t, rest.IsEmpty())

	same, err := Union(Empty(), inner)
	require.NoError(t, err)
	assert.Equal(t, inner.Bound(), same.Bound())
}

func TestRectilinearMerge(t *testing.T) {
	u, err := Union(rect(0, 0, 1, 1), rect(1, 0, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, u.Contours())
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 1}}, u.Bound())

	l, err := Difference(rect(0, 0, 2, 2), rect(1, 1, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Contours(), "L shape is a single outline")
	assert.True(t, l.Contains(orb.Point{0.5, 1.5}))
	assert.True(t, l.Contains(orb.Point{1.5, 0.5}))
	assert.False(t, l.Contains(orb.Point{1.5, 1.5}))
	mp := l.ToOrb()
	require.Len(t, mp, 1)
	require.Len(t, mp[0], 1)
	assert.Len(t, mp[0][0], 7, "six corners and the closing point")

	holed, err := Difference(rect(0, 0, 4, 4), rect(1, 1, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, holed.Contours())
	mp = holed.ToOrb()
	require.Len(t, mp, 1)
	assert.Len(t, mp[0], 2, "outer ring with one hole")

	diagonal, err := Union(rect(0, 0, 1, 1), rect(1, 1, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, diagonal.Contours(), "corner-touching cells stay separate")
	assert.True(t, diagonal.Contains(orb.Point{0.5, 0.5}))
	assert.True(t, diagonal.Contains(orb.Point{1.5, 1.5}))
	assert.False(t, diagonal.Contains(orb.Point{1.5, 0.5}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ring    orb.Ring
		wantErr bool
	}{
		{"square", orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}, false},
		{"triangle", orb.Ring{{1, -1}, {5, -1}, {3, 6}, {1, -1}}, false},
		{"collinear points", orb.Ring{{0, 0}, {2, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}, false},
		{"bowtie", orb.Ring{{0, 0}, {4, 4}, {4, 1}, {0, 4}, {0, 0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromOrb(orb.Polygon{tt.ring})
			require.NoError(t, err)
			err = p.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, internal.HasCode(err, internal.ErrorCodeGeometry))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSelfCrossingOperandFails(t *testing.T) {
	bowtie, err := FromOrb(orb.Polygon{{{0, 0}, {4, 4}, {4, 1}, {0, 4}, {0, 0}}})
	require.NoError(t, err)

	_, err = Intersect(bowtie, rect(1, 1, 3, 3))
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeGeometry))

	_, err = Union(rect(1, 1, 3, 3), bowtie)
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeGeometry))
}

func TestClipRecoversPanic(t *testing.T) {
	got, err := clip(pc.DIFFERENCE, func() pc.Polygon {
		panic("sweep line out of order")
	})
	require.Error(t, err)
	assert.True(t, internal.HasCode(err, internal.ErrorCodeGeometry))
	assert.Contains(t, err.Error(), "difference failed")
	assert.Contains(t, err.Error(), "sweep line out of order")
	assert.True(t, got.IsEmpty())

	got, err = clip(pc.UNION, func() pc.Polygon {
		return pc.Polygon{rectContour(0, 0, 1, 1)}
	})
	require.NoError(t, err)
	assert.False(t, got.IsEmpty())
}

func TestGeneralPolygonDifference(t *testing.T) {
	outer, err := FromOrb(orb.Polygon{{{0, -4}, {4, 0}, {0, 4}, {-4, 0}, {0, -4}}})
	require.NoError(t, err)
	inner, err := FromOrb(orb.Polygon{{{0, -1}, {1, 0}, {0, 1}, {-1, 0}, {0, -1}}})
	require.NoError(t, err)

	diff, err := Difference(outer, inner)
	require.NoError(t, err)
	assert.True(t, diff.Contains(orb.Point{2, 0}))
	assert.False(t, diff.Contains(orb.Point{0, 0}))

	mp := diff.ToOrb()
	require.Len(t, mp, 1)
	assert.Len(t, mp[0], 2, "outer ring with one hole")
}

func boundSlice(b orb.Bound) []float64 {
	return []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
