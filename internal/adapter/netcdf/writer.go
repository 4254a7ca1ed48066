// Package netcdf serializes annual grids to self-describing NetCDF (classic
// CDF) files and reads them back for validation.
package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/couchcryptid/climate-data-etl/internal/domain"
)

// Coordinate variable names in exported files.
const (
	dimYear = "calendar_year"
	dimLat  = "lat"
	dimLon  = "lon"
)

// Exporter writes annual grids to NetCDF files.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates a NetCDF exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes the grid to path. An existing file at the exact path is
// removed first, so exporting is an unconditional overwrite and never merges
// with stale output.
func (e *Exporter) Export(_ context.Context, grid domain.AnnualGrid, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing output %s: %w", path, err)
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("open netcdf writer %s: %w", path, err)
	}

	years := make([]int32, len(grid.Years))
	for i, y := range grid.Years {
		years[i] = int32(y)
	}

	if err := cw.AddVar(dimYear, api.Variable{
		Values:     years,
		Dimensions: []string{dimYear},
	}); err != nil {
		return fmt.Errorf("write %s: %w", dimYear, err)
	}
	if err := cw.AddVar(dimLat, api.Variable{
		Values:     grid.Lats,
		Dimensions: []string{dimLat},
	}); err != nil {
		return fmt.Errorf("write %s: %w", dimLat, err)
	}
	if err := cw.AddVar(dimLon, api.Variable{
		Values:     grid.Lons,
		Dimensions: []string{dimLon},
	}); err != nil {
		return fmt.Errorf("write %s: %w", dimLon, err)
	}

	slug := domain.VariableSlug(grid.Meta.Variable)
	varAttrs, err := util.NewOrderedMap(
		[]string{"long_name", "cell_method"},
		map[string]interface{}{
			"long_name":   grid.Meta.Variable,
			"cell_method": "time: " + grid.Meta.Aggregation + " within calendar_year",
		},
	)
	if err != nil {
		return fmt.Errorf("build variable attributes: %w", err)
	}
	if err := cw.AddVar(slug, api.Variable{
		Values:     nestedValues(grid),
		Dimensions: []string{dimYear, dimLat, dimLon},
		Attributes: varAttrs,
	}); err != nil {
		return fmt.Errorf("write %s: %w", slug, err)
	}

	global, err := util.NewOrderedMap(
		[]string{"variable", "aggregation", "simulation", "warming_level", "centered_year", "created_at"},
		map[string]interface{}{
			"variable":      grid.Meta.Variable,
			"aggregation":   grid.Meta.Aggregation,
			"simulation":    grid.Meta.Simulation,
			"warming_level": grid.Meta.WarmingLevel,
			"centered_year": int32(grid.Meta.CenteredYear),
			"created_at":    grid.Meta.CreatedAt.UTC().Format(time.RFC3339),
		},
	)
	if err != nil {
		return fmt.Errorf("build global attributes: %w", err)
	}
	if err := cw.AddGlobalAttrs(global); err != nil {
		return fmt.Errorf("write global attributes: %w", err)
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("close netcdf writer %s: %w", path, err)
	}

	e.logger.Info("netcdf export complete",
		"path", path,
		"variable", slug,
		"years", len(grid.Years),
		"grid", fmt.Sprintf("%dx%d", len(grid.Lats), len(grid.Lons)),
	)
	return nil
}

// nestedValues converts the flat dense array into the nested slices the CDF
// writer expects for a 3-D variable.
func nestedValues(grid domain.AnnualGrid) [][][]float64 {
	out := make([][][]float64, len(grid.Years))
	for yi := range grid.Years {
		out[yi] = make([][]float64, len(grid.Lats))
		for la := range grid.Lats {
			row := make([]float64, len(grid.Lons))
			for lo := range grid.Lons {
				row[lo] = grid.Values.Get(yi, la, lo)
			}
			out[yi][la] = row
		}
	}
	return out
}
