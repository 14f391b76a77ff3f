// cmd/overlaps.go - Overlap region inspection command
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb/simplify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/tile_merge_tasker/internal/config"
	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/jobstore"
	"github.com/valpere/tile_merge_tasker/internal/merge"
	"github.com/valpere/tile_merge_tasker/internal/output"
	"github.com/valpere/tile_merge_tasker/internal/tile"
)

// overlapsCmd represents the overlaps command
var overlapsCmd = &cobra.Command{
	Use:   "overlaps",
	Short: "Write the overlap regions of an ingestion as GeoJSON",
	Long: `Decompose the footprints of an ingestion's layers into disjoint regions, each
attributed to the largest set of layers covering it, and write them as a GeoJSON
FeatureCollection. Every feature lists the covering layers.

With --zoom the footprints are first snapped outward to the tile grid of that zoom
level, as merge task generation does, and each feature also reports its tile count.

Examples:
  # Raw footprint overlaps to stdout
  tile-merge-tasker overlaps --descriptor ingestion.json

  # Overlaps at zoom 10, compressed
  tile-merge-tasker overlaps --descriptor ingestion.json --zoom 10 --output z10.geojson --compression`,
	RunE: runOverlaps,
}

func init() {
	rootCmd.AddCommand(overlapsCmd)

	overlapsCmd.Flags().StringP("descriptor", "d", "", "ingestion descriptor file (JSON)")
	overlapsCmd.Flags().IntP("zoom", "z", -1, "snap footprints to this zoom level (default: raw footprints)")
	overlapsCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	overlapsCmd.Flags().Float64("simplify", 0, "Douglas-Peucker tolerance in degrees applied to written geometries (0 disables)")
	overlapsCmd.MarkFlagRequired("descriptor")
}

func runOverlaps(cmd *cobra.Command, args []string) error {
	// Inspection never touches a job store
	viper.Set("store.type", config.StoreTypeMemory)
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	descriptor, _ := cmd.Flags().GetString("descriptor")
	zoom, _ := cmd.Flags().GetInt("zoom")
	outputPath, _ := cmd.Flags().GetString("output")
	tolerance, _ := cmd.Flags().GetFloat64("simplify")
	if tolerance < 0 {
		return fmt.Errorf("simplify tolerance must be non-negative")
	}
	if zoom > tile.MaxZoom {
		return fmt.Errorf("zoom must be at most %d", tile.MaxZoom)
	}

	data, err := ingestion.Load(appFs, descriptor)
	if err != nil {
		return err
	}

	tasker, err := merge.NewTasker(cfg.ToMergeOptions(), jobstore.NewMemoryStore(), logger)
	if err != nil {
		return err
	}
	layers, err := tasker.Layers(data)
	if err != nil {
		return err
	}

	regions := tasker.LayerOverlaps(layers)
	var zoomRef *int
	if zoom >= 0 {
		regions = tasker.ZoomOverlaps(layers, zoom)
		zoomRef = &zoom
	}

	features := []output.OverlapFeature{}
	for ov, err := range regions {
		if err != nil {
			return err
		}
		tiles := 0
		if zoomRef != nil {
			for range tile.Encode(ov.Intersection, zoom) {
				tiles++
			}
		}
		feature := output.NewOverlapFeature(ov, zoomRef, tiles)
		if tolerance > 0 {
			feature.Geometry = simplify.DouglasPeucker(tolerance).MultiPolygon(feature.Geometry)
		}
		features = append(features, feature)
	}
	logger.Info("overlap regions computed", "layers", len(layers), "regions", len(features))

	writerConfig := &output.WriterConfig{
		Format:      output.FormatGeoJSON,
		Pretty:      cfg.Output.Pretty,
		Compression: cfg.Output.Compression,
	}
	return writeReport(cmd, logger, writerConfig, outputPath, features)
}

// writeReport writes one report to the output path, or to the command's output
// stream when no path is given
func writeReport(cmd *cobra.Command, logger *slog.Logger, cfg *output.WriterConfig, outputPath string, report any) (err error) {
	var w *output.Writer
	if outputPath == "" || outputPath == "-" {
		w, err = output.NewStreamWriter(cmd.OutOrStdout(), cfg.Format, cfg.Pretty)
	} else {
		w, err = output.NewWriter(appFs, cfg, outputPath)
	}
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", w.Name(), closeErr)
		}
		if err == nil {
			logger.Debug("report written", "destination", w.Name(), "bytes", w.Size())
		}
	}()
	return w.Write(report)
}
