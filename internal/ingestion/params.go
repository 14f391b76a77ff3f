// internal/ingestion/params.go - Ingestion descriptor model and loader
package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/afero"

	"github.com/valpere/tile_merge_tasker/internal"
	"github.com/valpere/tile_merge_tasker/internal/geometry"
)

// Params describes one ingestion request: a set of source files sharing metadata
type Params struct {
	FileNames       []string `json:"fileNames" validate:"required,min=1,dive,required"`
	OriginDirectory string   `json:"originDirectory"`
	Metadata        Metadata `json:"metadata" validate:"required"`
	// Footprints optionally overrides the metadata footprint per file, by position
	Footprints []*geojson.Geometry `json:"footprints,omitempty"`
}

// Metadata contains the product metadata of an ingestion
type Metadata struct {
	ProductID        string            `json:"productId" validate:"required"`
	ProductVersion   string            `json:"productVersion" validate:"required"`
	ProductType      string            `json:"productType,omitempty"`
	Description      string            `json:"description,omitempty"`
	Footprint        *geojson.Geometry `json:"footprint" validate:"required"`
	MaxResolutionDeg float64           `json:"maxResolutionDeg" validate:"gt=0"`
}

// Load reads and validates an ingestion descriptor from the filesystem
func Load(fs afero.Fs, path string) (*Params, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("failed to read descriptor %s", path), err)
	}
	return Parse(data)
}

// Parse decodes and validates an ingestion descriptor
func Parse(data []byte) (*Params, error) {
	var params Params
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "failed to decode descriptor", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

// Validate checks required fields and footprint consistency
func (p *Params) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(p); err != nil {
		return internal.NewError(internal.ErrorCodeValidation, "invalid descriptor", err)
	}
	if len(p.Footprints) > 0 && len(p.Footprints) != len(p.FileNames) {
		return internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("footprints count %d does not match file count %d", len(p.Footprints), len(p.FileNames)), nil)
	}
	return nil
}

// Footprint returns the footprint of the i-th file as a polygon
func (p *Params) Footprint(i int) (geometry.Polygon, error) {
	g := p.Metadata.Footprint
	if i < len(p.Footprints) && p.Footprints[i] != nil {
		g = p.Footprints[i]
	}
	if g == nil {
		return geometry.Polygon{}, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("file %d has no footprint", i), nil)
	}
	return geometry.FromOrb(g.Geometry())
}
