package domain

import (
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClimateArray() *ClimateArray {
	// 2 simulations x 2 warming levels x 2 months x 2 lats x 2 lons, with
	// every cell stamped so slices are distinguishable.
	values := sparse.ZerosDense(2, 2, 2, 2, 2)
	for si := 0; si < 2; si++ {
		for wi := 0; wi < 2; wi++ {
			for ti := 0; ti < 2; ti++ {
				for la := 0; la < 2; la++ {
					for lo := 0; lo < 2; lo++ {
						values.Set(float64(1000*si+100*wi+10*ti+2*la+lo), si, wi, ti, la, lo)
					}
				}
			}
		}
	}
	return &ClimateArray{
		Variable:      "Precipitation (total)",
		Simulations:   []string{"sim-a", "sim-b"},
		WarmingLevels: []float64{1.5, 2.0},
		TimeOffsets:   []int{-1, 0},
		Lats:          []float64{33.5, 33.75},
		Lons:          []float64{-116.5, -116.25},
		CenteredYears: [][]int{{2038, 2045}, {2041, 2049}},
		Values:        values,
	}
}

func TestSelectSlice(t *testing.T) {
	ws, err := SelectSlice(testClimateArray(), "sim-b", 2.0)
	require.NoError(t, err)

	assert.Equal(t, "sim-b", ws.Simulation)
	assert.Equal(t, 2.0, ws.WarmingLevel)
	assert.Equal(t, 2049, ws.CenteredYear)
	assert.Equal(t, []int{-1, 0}, ws.TimeOffsets)
	require.Equal(t, []int{2, 2, 2}, ws.Values.Shape)
	assert.Equal(t, 1100.0, ws.Values.Get(0, 0, 0))
	assert.Equal(t, 1113.0, ws.Values.Get(1, 1, 1))
}

func TestSelectSlice_ToleratesWarmingLevelDrift(t *testing.T) {
	ws, err := SelectSlice(testClimateArray(), "sim-a", 1.5+1e-9)
	require.NoError(t, err)
	assert.Equal(t, 2038, ws.CenteredYear)
}

func TestSelectSlice_UnknownSimulation(t *testing.T) {
	_, err := SelectSlice(testClimateArray(), "sim-z", 2.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelection)
	assert.Contains(t, err.Error(), "sim-z")
}

func TestSelectSlice_UnknownWarmingLevel(t *testing.T) {
	_, err := SelectSlice(testClimateArray(), "sim-a", 4.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelection)
}

func TestClimateArray_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, testClimateArray().Validate())
	})

	t.Run("axis mismatch", func(t *testing.T) {
		ca := testClimateArray()
		ca.Lats = ca.Lats[:1]
		assert.Error(t, ca.Validate())
	})

	t.Run("centered years mismatch", func(t *testing.T) {
		ca := testClimateArray()
		ca.CenteredYears = ca.CenteredYears[:1]
		assert.Error(t, ca.Validate())
	})

	t.Run("nil values", func(t *testing.T) {
		ca := testClimateArray()
		ca.Values = nil
		assert.Error(t, ca.Validate())
	})
}

func TestVariableSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Precipitation (total)", "precipitation_total"},
		{"Maximum air temperature at 2m", "maximum_air_temperature_at_2m"},
		{"Minimum air temperature at 2m", "minimum_air_temperature_at_2m"},
		{"  Odd -- Name  ", "odd_name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VariableSlug(tt.in), tt.in)
	}
}
