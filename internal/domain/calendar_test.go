package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarYears_Boundaries(t *testing.T) {
	const centered = 2045

	tests := []struct {
		name     string
		offset   int
		expected int
	}{
		{"month before midpoint", -1, centered - 1},
		{"midpoint", 0, centered},
		{"last month of center year", 11, centered},
		{"first month of next year", 12, centered + 1},
		{"window start", -180, centered - 15},
		{"window end", 179, centered + 14},
		{"one year back", -12, centered - 1},
		{"thirteen months back", -13, centered - 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			years, err := CalendarYears([]int{tt.offset}, centered)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.expected}, years)
		})
	}
}

func TestCalendarYears_FullWindow(t *testing.T) {
	const centered = 2050

	offsets := make([]int, 0, 360)
	for off := -180; off <= 179; off++ {
		offsets = append(offsets, off)
	}

	years, err := CalendarYears(offsets, centered)
	require.NoError(t, err)
	require.Len(t, years, 360)

	// Monotonic non-decreasing, exactly 12 offsets per year, 30 distinct years.
	counts := make(map[int]int)
	for i, y := range years {
		counts[y]++
		if i > 0 {
			assert.GreaterOrEqual(t, y, years[i-1])
		}
	}
	assert.Len(t, counts, 30)
	for y, n := range counts {
		assert.Equal(t, 12, n, "year %d", y)
	}
	assert.Equal(t, centered-15, years[0])
	assert.Equal(t, centered+14, years[len(years)-1])
}

func TestCalendarYears_EmptyAxis(t *testing.T) {
	_, err := CalendarYears(nil, 2050)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMapping)
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{0, 12, 0},
		{11, 12, 0},
		{12, 12, 1},
		{-1, 12, -1},
		{-12, 12, -1},
		{-13, 12, -2},
		{-180, 12, -15},
		{179, 12, 14},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, floorDiv(tt.a, tt.b), "floorDiv(%d, %d)", tt.a, tt.b)
	}
}
