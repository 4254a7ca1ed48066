package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	event := domain.ExportEvent{
		ID:           "run-1",
		County:       "Riverside County",
		Variable:     "Precipitation (total)",
		Aggregation:  "sum",
		Simulation:   "LOCA2_ACCESS-CM2_r2i1p1f1_historical+ssp245",
		WarmingLevel: 2.0,
		CenteredYear: 2045,
		OutputPath:   "precip_riverside_annual.nc",
		FirstYear:    2030,
		LastYear:     2059,
		TestPoints:   12,
		CompletedAt:  now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("run-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"county":"Riverside County"`)
	assert.Contains(t, string(msg.Value), `"aggregation":"sum"`)
	assert.Contains(t, string(msg.Value), `"test_points":12`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "variable", msg.Headers[0].Key)
	assert.Equal(t, []byte("precipitation_total"), msg.Headers[0].Value)
	assert.Equal(t, "aggregation", msg.Headers[1].Key)
	assert.Equal(t, []byte("sum"), msg.Headers[1].Value)
	assert.Equal(t, "completed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}
