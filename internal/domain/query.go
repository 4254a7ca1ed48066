package domain

import "fmt"

// ApproachWarmingLevel aligns simulations by global-mean-temperature
// threshold rather than calendar date. It is the only approach the annual
// aggregation pipeline understands.
const ApproachWarmingLevel = "Warming Level"

// FetchQuery names a dataset to retrieve from the catalog.
type FetchQuery struct {
	Variable          string
	DownscalingMethod string // "Statistical" or "Dynamical"
	Resolution        string // e.g. "3 km"
	Timescale         string // e.g. "monthly"
	CachedArea        string // county name, e.g. "Riverside County"
	Approach          string // e.g. "Warming Level"
}

// Key returns a stable identity string for caching.
func (q FetchQuery) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		q.Variable, q.DownscalingMethod, q.Resolution, q.Timescale, q.CachedArea, q.Approach)
}
