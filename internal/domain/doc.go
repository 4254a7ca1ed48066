// Package domain models downscaled climate-projection data retrieved from the
// Cal-Adapt Analytics Engine and the annual-aggregation procedure applied to it.
//
// # Warming-Level Data Conventions
//
// The catalog serves precipitation and temperature projections aligned by
// warming level rather than calendar date: each simulation contributes a
// 30-year window of monthly values centered on the year that simulation
// crosses a given global-mean-temperature threshold (1.5, 2.0, 3.0 degrees C).
//
// Time axis:
//
//	time_offset counts months relative to the window midpoint, -180..179
//	inclusive (30 years at monthly resolution). The "centered year" attribute
//	of a (simulation, warming_level) slice is the calendar year at the window
//	midpoint.
//
// Calendar-year mapping:
//
//	calendar_year = centered_year + floor(time_offset / 12)
//
//	Floor division must round toward negative infinity: offset -1 belongs to
//	centered_year - 1. A cast-style truncation toward zero would silently put
//	the eleven months before the midpoint in the wrong year. With the
//	standard window the mapping covers exactly 30 consecutive years,
//	centered_year - 15 through centered_year + 14.
//
// # Annual Aggregation
//
// A warming slice is grouped by calendar year and reduced along the time
// axis only, with one of sum, min, max, or mean. Cells for the lat/lon grid
// pass through unchanged; the output holds one float64 per
// (calendar_year, lat, lon). The operator is validated before any catalog
// access so a bad batch entry fails before network work starts.
//
// Sum of monthly totals gives annual precipitation; max over monthly
// maximum temperature gives the annual extreme; mean over monthly maxima
// stands in for mean temperature where the catalog has no direct mean
// variable.
//
// # Validation Sampling
//
// Exported grids are spot-checked by sampling up to 3 years x 2 latitudes x
// 2 longitudes (12 points) without replacement, optionally restricted to a
// bounding box. Randomness comes from an injected rand source so runs are
// reproducible under a fixed seed. A bounding box that excludes every grid
// point degrades to a skipped sample rather than an error, keeping
// multi-county batch runs alive.
package domain
