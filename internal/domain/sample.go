package domain

import (
	"math"
	"math/rand"
	"sort"
)

// Sample size caps: up to 3 years x 2 lats x 2 lons = 12 test points.
const (
	maxSampleYears = 3
	maxSampleLats  = 2
	maxSampleLons  = 2
)

// BBox is a closed-interval bounding box used to restrict test-point
// sampling to a sub-region.
type BBox struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// TestPoint is one sampled (calendar_year, lat, lon, value) validation row.
type TestPoint struct {
	Year  int
	Lat   float64
	Lon   float64
	Value float64
}

// SampleTestPoints draws up to 12 validation points from an annual grid:
// at most 3 distinct years, 2 latitudes, and 2 longitudes, each chosen
// uniformly without replacement from the grid's coordinate sets. A bounding
// box, when given, restricts the lat/lon candidates to the closed interval;
// the year set is never filtered. If the box excludes every latitude or
// every longitude the sampler returns ok=false and no points, a soft skip
// so batch runs over many regions keep going.
//
// Values are read back through a nearest-neighbor lookup, tolerating float
// drift between a requested coordinate and the stored axis value.
func SampleTestPoints(g AnnualGrid, box *BBox, rng *rand.Rand) ([]TestPoint, bool) {
	lats := g.Lats
	lons := g.Lons
	if box != nil {
		lats = filterRange(lats, box.MinLat, box.MaxLat)
		lons = filterRange(lons, box.MinLon, box.MaxLon)
		if len(lats) == 0 || len(lons) == 0 {
			return nil, false
		}
	}

	years := sampleInts(g.Years, maxSampleYears, rng)
	sampleLats := sampleFloats(lats, maxSampleLats, rng)
	sampleLons := sampleFloats(lons, maxSampleLons, rng)

	points := make([]TestPoint, 0, len(years)*len(sampleLats)*len(sampleLons))
	for _, y := range years {
		yi := indexOfYear(g.Years, y)
		for _, lat := range sampleLats {
			la := nearestIndex(g.Lats, lat)
			for _, lon := range sampleLons {
				lo := nearestIndex(g.Lons, lon)
				points = append(points, TestPoint{
					Year:  y,
					Lat:   g.Lats[la],
					Lon:   g.Lons[lo],
					Value: g.Values.Get(yi, la, lo),
				})
			}
		}
	}
	return points, true
}

func filterRange(coords []float64, min, max float64) []float64 {
	out := make([]float64, 0, len(coords))
	for _, c := range coords {
		if c >= min && c <= max {
			out = append(out, c)
		}
	}
	return out
}

// sampleInts picks up to n distinct values without replacement, returned in
// ascending order for stable CSV output.
func sampleInts(vals []int, n int, rng *rand.Rand) []int {
	if len(vals) <= n {
		out := append([]int(nil), vals...)
		sort.Ints(out)
		return out
	}
	out := make([]int, n)
	for i, idx := range rng.Perm(len(vals))[:n] {
		out[i] = vals[idx]
	}
	sort.Ints(out)
	return out
}

func sampleFloats(vals []float64, n int, rng *rand.Rand) []float64 {
	if len(vals) <= n {
		out := append([]float64(nil), vals...)
		sort.Float64s(out)
		return out
	}
	out := make([]float64, n)
	for i, idx := range rng.Perm(len(vals))[:n] {
		out[i] = vals[idx]
	}
	sort.Float64s(out)
	return out
}

func indexOfYear(years []int, y int) int {
	for i, v := range years {
		if v == y {
			return i
		}
	}
	return 0
}

func nearestIndex(coords []float64, want float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range coords {
		if d := math.Abs(c - want); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
