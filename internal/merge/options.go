// internal/merge/options.go - Tasker options
package merge

import (
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/valpere/tile_merge_tasker/internal"
)

// Options configures merge task generation
type Options struct {
	// TileBatchSize is the number of tiles in one merge task
	TileBatchSize int `default:"10000" validate:"gt=0"`
	// TaskBatchSize is the number of merge tasks persisted per job store call
	TaskBatchSize int          `default:"100" validate:"gt=0"`
	TargetFormat  TargetFormat `default:"JPEG" validate:"oneof=JPEG PNG"`
	// CacheType is the source type of the merge destination
	CacheType string `default:"GPKG" validate:"required"`
	SourceDir string
}

// DefaultOptions returns the options with every default applied
func DefaultOptions() Options {
	var opts Options
	if err := defaults.Set(&opts); err != nil {
		// defaults are static struct tags
		panic(err)
	}
	return opts
}

// Validate checks the options, returning a configuration error
func (o Options) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(o); err != nil {
		return internal.NewError(internal.ErrorCodeConfig, "invalid merge options", err)
	}
	return nil
}
