package domain

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// warmingLevelTolerance absorbs float drift between a CLI-supplied warming
// level (e.g. 2.0) and the catalog's stored coordinate value.
const warmingLevelTolerance = 1e-6

// SelectSlice narrows a ClimateArray to one simulation and one warming level,
// copying the (time_offset, lat, lon) block and extracting the slice's
// centered year. Returns ErrSelection if either coordinate is absent.
func SelectSlice(ca *ClimateArray, simulation string, warmingLevel float64) (WarmingSlice, error) {
	si := -1
	for i, s := range ca.Simulations {
		if s == simulation {
			si = i
			break
		}
	}
	if si < 0 {
		return WarmingSlice{}, fmt.Errorf("simulation %q: %w", simulation, ErrSelection)
	}

	wi := -1
	for i, wl := range ca.WarmingLevels {
		if math.Abs(wl-warmingLevel) < warmingLevelTolerance {
			wi = i
			break
		}
	}
	if wi < 0 {
		return WarmingSlice{}, fmt.Errorf("warming level %g: %w", warmingLevel, ErrSelection)
	}

	nt, nLat, nLon := len(ca.TimeOffsets), len(ca.Lats), len(ca.Lons)
	values := sparse.ZerosDense(nt, nLat, nLon)
	for t := 0; t < nt; t++ {
		for la := 0; la < nLat; la++ {
			for lo := 0; lo < nLon; lo++ {
				values.Set(ca.Values.Get(si, wi, t, la, lo), t, la, lo)
			}
		}
	}

	return WarmingSlice{
		Variable:     ca.Variable,
		Simulation:   simulation,
		WarmingLevel: ca.WarmingLevels[wi],
		CenteredYear: ca.CenteredYears[si][wi],
		TimeOffsets:  append([]int(nil), ca.TimeOffsets...),
		Lats:         append([]float64(nil), ca.Lats...),
		Lons:         append([]float64(nil), ca.Lons...),
		Values:       values,
	}, nil
}
