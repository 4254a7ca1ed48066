package caladapt

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testQuery() domain.FetchQuery {
	return domain.FetchQuery{
		Variable:          "Precipitation (total)",
		DownscalingMethod: "Statistical",
		Resolution:        "3 km",
		Timescale:         "monthly",
		CachedArea:        "Riverside County",
		Approach:          domain.ApproachWarmingLevel,
	}
}

func testDocument() gridDocument {
	return gridDocument{
		Variable:      "Precipitation (total)",
		Simulations:   []string{"sim-a"},
		WarmingLevels: []float64{2.0},
		TimeOffsets:   []int{-1, 0},
		Lat:           []float64{33.5, 33.75},
		Lon:           []float64{-116.5},
		CenteredYears: [][]int{{2045}},
		Values:        []float64{1, 2, 3, 4},
	}
}

func TestClient_FetchClimateArray_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data", r.URL.Path)
		assert.Equal(t, "Precipitation (total)", r.URL.Query().Get("variable"))
		assert.Equal(t, "Statistical", r.URL.Query().Get("downscaling_method"))
		assert.Equal(t, "3 km", r.URL.Query().Get("resolution"))
		assert.Equal(t, "monthly", r.URL.Query().Get("timescale"))
		assert.Equal(t, "Riverside County", r.URL.Query().Get("cached_area"))
		assert.Equal(t, "Warming Level", r.URL.Query().Get("approach"))
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(testDocument()))
	}))
	defer srv.Close()

	ca, err := testClient(srv.URL).FetchClimateArray(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, "Precipitation (total)", ca.Variable)
	assert.Equal(t, []string{"sim-a"}, ca.Simulations)
	assert.Equal(t, [][]int{{2045}}, ca.CenteredYears)
	require.Equal(t, []int{1, 1, 2, 2, 1}, ca.Values.Shape)
	assert.Equal(t, 1.0, ca.Values.Get(0, 0, 0, 0, 0))
	assert.Equal(t, 4.0, ca.Values.Get(0, 0, 1, 1, 0))
}

func TestClient_FetchClimateArray_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such cached area", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchClimateArray(context.Background(), testQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "no such cached area")
}

func TestClient_FetchClimateArray_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchClimateArray(context.Background(), testQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog response")
}

func TestClient_FetchClimateArray_ShapeMismatch(t *testing.T) {
	doc := testDocument()
	doc.Values = doc.Values[:3]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchClimateArray(context.Background(), testQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 values for 4 grid cells")
}

func TestClient_FetchClimateArray_NoTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(testDocument()))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = ""
	_, err := c.FetchClimateArray(context.Background(), testQuery())
	require.NoError(t, err)
}
