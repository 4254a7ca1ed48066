// Command validate performs integrity checks on an exported annual NetCDF
// file and its companion test-point CSV: metadata presence, year-axis
// consistency with the centered window, value sanity, and CSV cross-checks
// against the grid.
//
// Usage:
//
//	go run ./cmd/validate -file precip_riverside_annual.nc
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/couchcryptid/climate-data-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/pipeline"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxTestPoints is the sampling cap: 3 years x 2 lats x 2 lons.
const maxTestPoints = 12

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "exported NetCDF file to validate")
	testPoints := flag.String("test-points", "", "test-point CSV path (default: derived from -file)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}
	csvPath := *testPoints
	if csvPath == "" {
		csvPath = pipeline.TestPointsPath(*file)
	}

	if code := run(*file, csvPath); code != 0 {
		os.Exit(code)
	}
}

func run(ncPath, csvPath string) int {
	fmt.Println("=== Annual Export Validation ===")
	fmt.Println()

	grid, err := netcdf.ReadAnnual(ncPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", ncPath, err)
		return 1
	}
	fmt.Printf("File: %s\n", ncPath)
	fmt.Printf("Variable: %s (%s), simulation %s, warming level %g, centered year %d\n",
		grid.Meta.Variable, grid.Meta.Aggregation, grid.Meta.Simulation,
		grid.Meta.WarmingLevel, grid.Meta.CenteredYear)
	fmt.Printf("Grid: %d years x %d lats x %d lons\n",
		len(grid.Years), len(grid.Lats), len(grid.Lons))

	phases := []*phase{
		validateMetadata(grid),
		validateYearAxis(grid),
		validateValues(grid),
		validateTestPoints(grid, csvPath),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateMetadata(grid domain.AnnualGrid) *phase {
	p := &phase{name: "metadata"}

	if grid.Meta.Variable == "" {
		p.errorf("variable attribute is empty")
	}
	if _, err := domain.ParseAggregation(grid.Meta.Aggregation); err != nil {
		p.errorf("aggregation attribute: %v", err)
	}
	if grid.Meta.Simulation == "" {
		p.errorf("simulation attribute is empty")
	}
	if grid.Meta.WarmingLevel <= 0 {
		p.errorf("warming level %g is not positive", grid.Meta.WarmingLevel)
	}
	if grid.Meta.CenteredYear < 1950 || grid.Meta.CenteredYear > 2100 {
		p.errorf("centered year %d is outside 1950..2100", grid.Meta.CenteredYear)
	}
	if grid.Meta.CreatedAt.IsZero() {
		p.errorf("created_at attribute is zero")
	}
	return p
}

func validateYearAxis(grid domain.AnnualGrid) *phase {
	p := &phase{name: "year axis"}

	if len(grid.Years) == 0 {
		p.errorf("no years")
		return p
	}
	for i := 1; i < len(grid.Years); i++ {
		if grid.Years[i] != grid.Years[i-1]+1 {
			p.errorf("years are not consecutive at index %d: %d then %d",
				i, grid.Years[i-1], grid.Years[i])
		}
	}

	// A full monthly window spans centered-15 .. centered+14.
	c := grid.Meta.CenteredYear
	if first := grid.Years[0]; first < c-15 {
		p.errorf("first year %d is before window start %d", first, c-15)
	}
	if last := grid.Years[len(grid.Years)-1]; last > c+14 {
		p.errorf("last year %d is after window end %d", last, c+14)
	}
	if len(grid.Years) > 30 {
		p.errorf("%d years exceeds the 30-year window", len(grid.Years))
	}
	return p
}

func validateValues(grid domain.AnnualGrid) *phase {
	p := &phase{name: "values"}

	if grid.Values == nil || len(grid.Values.Elements) == 0 {
		p.errorf("no values")
		return p
	}
	for i, v := range grid.Values.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			p.errorf("non-finite value at flat index %d: %g", i, v)
			if len(p.errors) >= 10 {
				p.errorf("(further non-finite values suppressed)")
				return p
			}
		}
	}

	vals := grid.Values.Elements
	fmt.Printf("Values: min=%g max=%g mean=%g stddev=%g\n",
		floats.Min(vals), floats.Max(vals), stat.Mean(vals, nil), stat.StdDev(vals, nil))
	return p
}

func validateTestPoints(grid domain.AnnualGrid, csvPath string) *phase {
	p := &phase{name: "test points"}

	f, err := os.Open(csvPath)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Test points: %s not found, skipping cross-check\n", csvPath)
		return p
	}
	if err != nil {
		p.errorf("open %s: %v", csvPath, err)
		return p
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		p.errorf("read %s: %v", csvPath, err)
		return p
	}
	if len(rows) == 0 {
		p.errorf("%s is empty", csvPath)
		return p
	}

	slug := domain.VariableSlug(grid.Meta.Variable)
	header := rows[0]
	want := []string{"calendar_year", "lat", "lon", slug}
	if len(header) != len(want) {
		p.errorf("header has %d columns, want %d", len(header), len(want))
		return p
	}
	for i, col := range want {
		if header[i] != col {
			p.errorf("header column %d is %q, want %q", i, header[i], col)
		}
	}

	points := rows[1:]
	if len(points) > maxTestPoints {
		p.errorf("%d test points exceeds the cap of %d", len(points), maxTestPoints)
	}

	for i, row := range points {
		if len(row) != 4 {
			p.errorf("row %d has %d fields", i+1, len(row))
			continue
		}
		year, err := strconv.Atoi(row[0])
		if err != nil {
			p.errorf("row %d year %q: %v", i+1, row[0], err)
			continue
		}
		lat, errLat := strconv.ParseFloat(row[1], 64)
		lon, errLon := strconv.ParseFloat(row[2], 64)
		val, errVal := strconv.ParseFloat(row[3], 64)
		if errLat != nil || errLon != nil || errVal != nil {
			p.errorf("row %d has unparseable coordinates or value", i+1)
			continue
		}

		yi := indexOfYear(grid.Years, year)
		if yi < 0 {
			p.errorf("row %d year %d is not on the grid's year axis", i+1, year)
			continue
		}
		la := nearestIndex(grid.Lats, lat)
		lo := nearestIndex(grid.Lons, lon)
		got := grid.Values.Get(yi, la, lo)
		if math.Abs(got-val) > 1e-9 {
			p.errorf("row %d (%d, %g, %g): CSV value %g but grid has %g",
				i+1, year, lat, lon, val, got)
		}
	}
	return p
}

func indexOfYear(years []int, year int) int {
	for i, y := range years {
		if y == year {
			return i
		}
	}
	return -1
}

func nearestIndex(axis []float64, v float64) int {
	best := 0
	bestDist := math.Abs(axis[0] - v)
	for i, a := range axis[1:] {
		if d := math.Abs(a - v); d < bestDist {
			best = i + 1
			bestDist = d
		}
	}
	return best
}
