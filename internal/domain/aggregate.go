package domain

import (
	"fmt"
	"sort"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregation is a reduction operator applied along the time axis within
// each calendar year.
type Aggregation string

const (
	AggregationSum  Aggregation = "sum"
	AggregationMin  Aggregation = "min"
	AggregationMax  Aggregation = "max"
	AggregationMean Aggregation = "mean"
)

// ParseAggregation validates an operator name. It is called before any
// catalog access so an unknown operator fails without a fetch.
func ParseAggregation(name string) (Aggregation, error) {
	switch Aggregation(name) {
	case AggregationSum, AggregationMin, AggregationMax, AggregationMean:
		return Aggregation(name), nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnsupportedAggregation)
	}
}

// Aggregate groups a warming slice's time axis by calendar year and reduces
// each group with the given operator, producing one cell per
// (calendar_year, lat, lon). The lat/lon axes pass through untouched.
func Aggregate(ws WarmingSlice, agg Aggregation) (AnnualGrid, error) {
	if _, err := ParseAggregation(string(agg)); err != nil {
		return AnnualGrid{}, err
	}

	years, err := CalendarYears(ws.TimeOffsets, ws.CenteredYear)
	if err != nil {
		return AnnualGrid{}, err
	}
	if got, want := ws.Values.Shape[0], len(years); got != want {
		return AnnualGrid{}, fmt.Errorf("time axis has %d entries but grid has %d: %w", want, got, ErrMapping)
	}

	// Group time indices by calendar year. Group sizes are 12 except
	// possibly at the window edges, where floor division can truncate.
	groups := make(map[int][]int)
	for t, y := range years {
		groups[y] = append(groups[y], t)
	}
	distinct := make([]int, 0, len(groups))
	for y := range groups {
		distinct = append(distinct, y)
	}
	sort.Ints(distinct)

	nLat, nLon := len(ws.Lats), len(ws.Lons)
	out := sparse.ZerosDense(len(distinct), nLat, nLon)
	vals := make([]float64, 0, 12)
	for yi, y := range distinct {
		for la := 0; la < nLat; la++ {
			for lo := 0; lo < nLon; lo++ {
				vals = vals[:0]
				for _, t := range groups[y] {
					vals = append(vals, ws.Values.Get(t, la, lo))
				}
				out.Set(reduce(vals, agg), yi, la, lo)
			}
		}
	}

	return AnnualGrid{
		Years:  distinct,
		Lats:   append([]float64(nil), ws.Lats...),
		Lons:   append([]float64(nil), ws.Lons...),
		Values: out,
		Meta: Metadata{
			Variable:     ws.Variable,
			Aggregation:  string(agg),
			Simulation:   ws.Simulation,
			WarmingLevel: ws.WarmingLevel,
			CenteredYear: ws.CenteredYear,
			CreatedAt:    clock.Now(),
		},
	}, nil
}

func reduce(vals []float64, agg Aggregation) float64 {
	switch agg {
	case AggregationSum:
		return floats.Sum(vals)
	case AggregationMin:
		return floats.Min(vals)
	case AggregationMax:
		return floats.Max(vals)
	default: // AggregationMean; ParseAggregation has already run
		return stat.Mean(vals, nil)
	}
}
