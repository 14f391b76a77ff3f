// internal/overlap/decomposer.go - Disjoint overlap decomposition of layer footprints
package overlap

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"

	"github.com/paulmach/orb/geojson"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/geometry"
)

// Region is an area covered by every footprint listed in Members. Members are
// indices into the decomposed footprint list, in input order.
type Region struct {
	Intersection geometry.Polygon
	Members      []int
}

// Coverage is the area already attributed to emitted regions. The zero value
// means nothing has been attributed yet.
type Coverage struct {
	area geometry.Polygon
	set  bool
}

// IsSet reports whether any region has been attributed
func (c Coverage) IsSet() bool {
	return c.set
}

// Area returns the attributed area
func (c Coverage) Area() geometry.Polygon {
	return c.area
}

// Step attributes the area common to the subgroup's footprints that is not yet
// covered. It reports false, with the coverage unchanged, when the subgroup adds
// no new area.
func Step(cov Coverage, footprints []geometry.Polygon, members []int) (Region, Coverage, bool, error) {
	group := make([]geometry.Polygon, len(members))
	for i, m := range members {
		group[i] = footprints[m]
	}

	raw, err := geometry.Intersect(group...)
	if err != nil {
		return Region{}, cov, false, err
	}
	if raw.IsEmpty() {
		return Region{}, cov, false, nil
	}

	if !cov.set {
		return Region{Intersection: raw, Members: members}, Coverage{area: raw, set: true}, true, nil
	}

	novel, err := geometry.Difference(raw, cov.area)
	if err != nil {
		return Region{}, cov, false, err
	}
	if novel.IsEmpty() {
		return Region{}, cov, false, nil
	}
	covered, err := geometry.Union(cov.area, novel)
	if err != nil {
		return Region{}, cov, false, err
	}
	return Region{Intersection: novel, Members: members}, Coverage{area: covered, set: true}, true, nil
}

// Decomposer splits the union of a set of footprints into disjoint regions, each
// attributed to the largest subgroup of footprints that covers it
type Decomposer struct {
	logger *slog.Logger
}

// NewDecomposer creates a decomposer. A nil logger uses slog.Default().
func NewDecomposer(logger *slog.Logger) *Decomposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decomposer{logger: logger}
}

// Decompose lazily yields the overlap regions of the footprints. Subgroups are
// visited from the full set down to singletons, so a region is always claimed by
// the largest subgroup whose common area contains it. A geometry failure is
// yielded with an empty region and ends the sequence.
func (d *Decomposer) Decompose(footprints []geometry.Polygon) iter.Seq2[Region, error] {
	return func(yield func(Region, error) bool) {
		var cov Coverage
		for members := range Subgroups(len(footprints)) {
			region, next, ok, err := Step(cov, footprints, members)
			if err != nil {
				d.logFailure(err, footprints, members)
				yield(Region{}, internal.NewError(internal.ErrorCodeGeometry,
					fmt.Sprintf("failed to calculate overlaps of subgroup %v", members), err))
				return
			}
			if !ok {
				continue
			}
			cov = next
			if !yield(region, nil) {
				return
			}
		}
	}
}

func (d *Decomposer) logFailure(err error, footprints []geometry.Polygon, members []int) {
	d.logger.Error("failed to calculate overlaps", "error", err, "subgroup", members)

	collection := geojson.NewFeatureCollection()
	for _, m := range members {
		f := geojson.NewFeature(footprints[m].ToOrb())
		f.Properties["index"] = m
		collection.Append(f)
	}
	data, mErr := json.Marshal(collection)
	if mErr != nil {
		d.logger.Debug("failing footprints could not be encoded", "error", mErr)
		return
	}
	d.logger.Debug("failing footprints", "footprints", string(data))
}
