package caladapt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
	"github.com/ctessum/sparse"
)

// Client fetches warming-level climate grids from the catalog's HTTP API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a catalog client. The token may be empty for
// unauthenticated endpoints such as the mock catalog.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchClimateArray retrieves the dataset named by the query.
func (c *Client) FetchClimateArray(ctx context.Context, q domain.FetchQuery) (*domain.ClimateArray, error) {
	params := url.Values{
		"variable":           {q.Variable},
		"downscaling_method": {q.DownscalingMethod},
		"resolution":         {q.Resolution},
		"timescale":          {q.Timescale},
		"cached_area":        {q.CachedArea},
		"approach":           {q.Approach},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.CatalogRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog API error: status %d: %s", resp.StatusCode, body)
	}

	var doc gridDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		c.metrics.CatalogRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	ca, err := doc.toDomain()
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.CatalogRequests.WithLabelValues("success").Inc()
	c.logger.Debug("catalog fetch complete",
		"variable", q.Variable,
		"cached_area", q.CachedArea,
		"simulations", len(ca.Simulations),
		"warming_levels", len(ca.WarmingLevels),
	)
	return ca, nil
}

// gridDocument is the catalog wire format: coordinate axes plus a flat
// row-major value block in (simulation, warming_level, time_offset, lat, lon)
// order.
type gridDocument struct {
	Variable      string    `json:"variable"`
	Simulations   []string  `json:"simulations"`
	WarmingLevels []float64 `json:"warming_levels"`
	TimeOffsets   []int     `json:"time_offsets"`
	Lat           []float64 `json:"lat"`
	Lon           []float64 `json:"lon"`
	CenteredYears [][]int   `json:"centered_years"`
	Values        []float64 `json:"values"`
}

func (d *gridDocument) toDomain() (*domain.ClimateArray, error) {
	want := len(d.Simulations) * len(d.WarmingLevels) * len(d.TimeOffsets) * len(d.Lat) * len(d.Lon)
	if len(d.Values) != want {
		return nil, fmt.Errorf("catalog response for %q: %d values for %d grid cells", d.Variable, len(d.Values), want)
	}

	values := sparse.ZerosDense(len(d.Simulations), len(d.WarmingLevels), len(d.TimeOffsets), len(d.Lat), len(d.Lon))
	copy(values.Elements, d.Values)

	ca := &domain.ClimateArray{
		Variable:      d.Variable,
		Simulations:   d.Simulations,
		WarmingLevels: d.WarmingLevels,
		TimeOffsets:   d.TimeOffsets,
		Lats:          d.Lat,
		Lons:          d.Lon,
		CenteredYears: d.CenteredYears,
		Values:        values,
	}
	if err := ca.Validate(); err != nil {
		return nil, err
	}
	return ca, nil
}
