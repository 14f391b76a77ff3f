// cmd/flags.go - Shared flag parsing
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/valpere/tile_merge_tasker/internal/ingestion"
	"github.com/valpere/tile_merge_tasker/internal/tile"
)

// worldExtent is the extent of sources when none is given
var worldExtent = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// addTaskFlags registers the flags shared by plan and create
func addTaskFlags(c *cobra.Command) {
	c.Flags().StringP("descriptor", "d", "", "ingestion descriptor file (JSON)")
	c.Flags().String("dest", "", "layer relative path of the merge destination")
	c.Flags().String("grids", "", "comma separated tile grid per layer, in file order (1x1, 2x1)")
	c.Flags().String("extent", "", "source extent as minX,minY,maxX,maxY (default: whole world)")
	c.Flags().String("job-type", "Ingestion_Update", "job type")
	c.Flags().String("task-type", "tilesMerging", "task type")
	c.MarkFlagRequired("descriptor")
	c.MarkFlagRequired("dest")
}

// taskArgs holds the parsed task flags
type taskArgs struct {
	data     *ingestion.Params
	destPath string
	grids    []tile.Grid
	extent   orb.Bound
	jobType  string
	taskType string
}

func parseTaskArgs(c *cobra.Command) (*taskArgs, error) {
	descriptor, _ := c.Flags().GetString("descriptor")
	destPath, _ := c.Flags().GetString("dest")
	gridsFlag, _ := c.Flags().GetString("grids")
	extentFlag, _ := c.Flags().GetString("extent")
	jobType, _ := c.Flags().GetString("job-type")
	taskType, _ := c.Flags().GetString("task-type")

	data, err := ingestion.Load(appFs, descriptor)
	if err != nil {
		return nil, err
	}
	grids, err := parseGrids(gridsFlag)
	if err != nil {
		return nil, err
	}
	extent, err := parseExtent(extentFlag)
	if err != nil {
		return nil, err
	}
	return &taskArgs{
		data:     data,
		destPath: destPath,
		grids:    grids,
		extent:   extent,
		jobType:  jobType,
		taskType: taskType,
	}, nil
}

// parseGrids parses a comma separated grid list. An empty string means no grids.
func parseGrids(s string) ([]tile.Grid, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	grids := make([]tile.Grid, len(parts))
	for i, part := range parts {
		g, err := tile.ParseGrid(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("grid %d: %w", i, err)
		}
		grids[i] = g
	}
	return grids, nil
}

// parseExtent parses minX,minY,maxX,maxY. An empty string is the whole world.
func parseExtent(s string) (orb.Bound, error) {
	if strings.TrimSpace(s) == "" {
		return worldExtent, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("extent must have 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid extent value %q: %w", part, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("extent minimum exceeds maximum")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
