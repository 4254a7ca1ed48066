package domain

import "errors"

// Sentinel errors for the aggregation core. Callers match with errors.Is;
// wrap sites add the offending coordinate or operator name.
var (
	// ErrSelection indicates a requested simulation or warming level is not
	// present in the fetched array.
	ErrSelection = errors.New("coordinate not present in array")

	// ErrMapping indicates a malformed time-offset axis (empty, or out of
	// step with the data grid).
	ErrMapping = errors.New("malformed time axis")

	// ErrUnsupportedAggregation indicates an unknown reduction operator.
	// Validated before any catalog access so bad batch entries fail fast.
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")
)
