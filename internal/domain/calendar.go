package domain

import "fmt"

// CalendarYears maps a relative monthly time-offset axis onto absolute
// calendar years anchored at centeredYear:
//
//	calendar_year[i] = centeredYear + floor(offsets[i] / 12)
//
// Floor division (round toward negative infinity) is required so that
// negative offsets land in years before the center: offset -1 belongs to the
// year preceding centeredYear, not to centeredYear itself as truncation
// toward zero would give. Returns ErrMapping for an empty axis.
func CalendarYears(offsets []int, centeredYear int) ([]int, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("empty time-offset axis: %w", ErrMapping)
	}
	years := make([]int, len(offsets))
	for i, off := range offsets {
		years[i] = centeredYear + floorDiv(off, 12)
	}
	return years, nil
}

// floorDiv divides rounding toward negative infinity. Go's integer division
// truncates toward zero, which is wrong for negative month offsets.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
