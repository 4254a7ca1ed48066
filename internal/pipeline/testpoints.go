package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
)

// TestPointsPath derives the validation CSV path from the primary output
// path by replacing its extension, e.g. "out.nc" -> "out_test_points.csv".
func TestPointsPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_test_points.csv"
}

// writeTestPoints writes sampled validation rows to a CSV, truncating any
// existing file. The value column is named after the variable.
func writeTestPoints(path, variable string, points []domain.TestPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"calendar_year", "lat", "lon", domain.VariableSlug(variable)}); err != nil {
		f.Close()
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.Itoa(p.Year),
			strconv.FormatFloat(p.Lat, 'g', -1, 64),
			strconv.FormatFloat(p.Lon, 'g', -1, 64),
			strconv.FormatFloat(p.Value, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
