package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

// ClimateArray is a fetched warming-level dataset for one variable and one
// cached area: a dense grid over (simulation, warming_level, time_offset,
// lat, lon). Time offsets are month counts relative to each slice's window
// midpoint, -180..179 for the standard 30-year window.
type ClimateArray struct {
	Variable      string
	Simulations   []string
	WarmingLevels []float64
	TimeOffsets   []int
	Lats          []float64
	Lons          []float64

	// CenteredYears[si][wi] is the calendar year at the midpoint of the
	// window for simulation si at warming level wi.
	CenteredYears [][]int

	Values *sparse.DenseArray // (simulation, warming_level, time_offset, lat, lon)
}

// Validate checks that the coordinate axes agree with the value grid shape.
func (ca *ClimateArray) Validate() error {
	if ca.Values == nil {
		return fmt.Errorf("climate array %q: nil values", ca.Variable)
	}
	want := []int{len(ca.Simulations), len(ca.WarmingLevels), len(ca.TimeOffsets), len(ca.Lats), len(ca.Lons)}
	if len(ca.Values.Shape) != len(want) {
		return fmt.Errorf("climate array %q: expected 5 axes, got %d", ca.Variable, len(ca.Values.Shape))
	}
	for i, n := range want {
		if ca.Values.Shape[i] != n {
			return fmt.Errorf("climate array %q: axis %d has %d values but grid dimension is %d",
				ca.Variable, i, n, ca.Values.Shape[i])
		}
	}
	if len(ca.CenteredYears) != len(ca.Simulations) {
		return fmt.Errorf("climate array %q: centered_years has %d rows for %d simulations",
			ca.Variable, len(ca.CenteredYears), len(ca.Simulations))
	}
	for si, row := range ca.CenteredYears {
		if len(row) != len(ca.WarmingLevels) {
			return fmt.Errorf("climate array %q: centered_years row %d has %d entries for %d warming levels",
				ca.Variable, si, len(row), len(ca.WarmingLevels))
		}
	}
	return nil
}

// WarmingSlice is a ClimateArray narrowed to one simulation and one warming
// level: a 3-D grid over (time_offset, lat, lon) plus the scalar centered year.
type WarmingSlice struct {
	Variable     string
	Simulation   string
	WarmingLevel float64
	CenteredYear int
	TimeOffsets  []int
	Lats         []float64
	Lons         []float64

	Values *sparse.DenseArray // (time_offset, lat, lon)
}

// Metadata travels with an annual grid into the exported file.
type Metadata struct {
	Variable     string
	Aggregation  string
	Simulation   string
	WarmingLevel float64
	CenteredYear int
	CreatedAt    time.Time
}

// AnnualGrid is the durable pipeline output: one value per
// (calendar_year, lat, lon) cell, produced by reducing a WarmingSlice.
type AnnualGrid struct {
	Years []int
	Lats  []float64
	Lons  []float64
	Meta  Metadata

	Values *sparse.DenseArray // (calendar_year, lat, lon)
}

// VariableSlug converts a catalog variable name into a file-safe identifier,
// e.g. "Precipitation (total)" -> "precipitation_total". Used for both the
// NetCDF variable name and the test-point CSV value column.
func VariableSlug(name string) string {
	var b strings.Builder
	lastUnderscore := true // swallow leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
