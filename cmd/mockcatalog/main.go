// Command mockcatalog serves synthetic warming-level climate grids over the
// same HTTP surface the real catalog exposes, for local development and smoke
// testing without network access to the upstream service.
//
// Usage:
//
//	go run ./cmd/mockcatalog -addr :8081
//
// Then point the exporter at it:
//
//	CATALOG_BASE_URL=http://localhost:8081 go run ./cmd/export ...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// gridDocument mirrors the catalog wire format: coordinate axes plus a flat
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

// county centroids for the areas the mock knows how to serve.
var counties = map[string]struct{ lat, lon float64 }{
	"Riverside County":      {33.74, -115.99},
	"San Bernardino County": {34.84, -116.18},
	"Tulare County":         {36.22, -118.80},
}

var simulations = []string{
	"LOCA2_ACCESS-CM2_r2i1p1f1_historical+ssp245",
	"LOCA2_EC-Earth3_r1i1p1f1_historical+ssp245",
	"LOCA2_MPI-ESM1-2-HR_r3i1p1f1_historical+ssp370",
}

var warmingLevels = []float64{1.5, 2.0, 3.0}

// centeredYears[si][wi]: hotter simulations reach each level earlier.
var centeredYears = [][]int{
	{2034, 2045, 2067},
	{2031, 2042, 2063},
	{2029, 2039, 2058},
}

const gridSize = 4 // lat x lon cells per county

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	addr := flag.String("addr", ":8081", "listen address")
	seed := flag.Int64("seed", 1, "base seed for synthetic values")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /data", dataHandler(*seed, logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock catalog listening", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func dataHandler(seed int64, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		variable := q.Get("variable")
		area := q.Get("cached_area")

		if variable == "" || area == "" {
			http.Error(w, "variable and cached_area are required", http.StatusBadRequest)
			return
		}
		centroid, ok := counties[area]
		if !ok {
			http.Error(w, fmt.Sprintf("unknown cached_area %q", area), http.StatusNotFound)
			return
		}

		doc := synthesize(variable, area, centroid.lat, centroid.lon, seed)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			logger.Error("encode response", "error", err)
			return
		}
		logger.Info("served grid",
			"variable", variable,
			"cached_area", area,
			"values", len(doc.Values),
		)
	}
}

// synthesize builds a deterministic grid for the requested variable and area.
// The same (variable, area, seed) triple always yields the same values, so
// repeated exports are byte-stable.
func synthesize(variable, area string, centerLat, centerLon float64, seed int64) *gridDocument {
	offsets := make([]int, 360)
	for i := range offsets {
		offsets[i] = i - 180
	}

	lats := make([]float64, gridSize)
	lons := make([]float64, gridSize)
	for i := 0; i < gridSize; i++ {
		lats[i] = centerLat + float64(i-gridSize/2)*0.03
		lons[i] = centerLon + float64(i-gridSize/2)*0.03
	}

	h := fnv.New64a()
	h.Write([]byte(variable))
	h.Write([]byte{0})
	h.Write([]byte(area))
	rng := rand.New(rand.NewSource(seed + int64(h.Sum64()&0x7fffffff)))

	values := make([]float64, 0, len(simulations)*len(warmingLevels)*len(offsets)*gridSize*gridSize)
	for si := range simulations {
		for _, wl := range warmingLevels {
			base := 10 + 5*wl + float64(si)
			for range offsets {
				for range lats {
					for range lons {
						values = append(values, base+rng.Float64()*4)
					}
				}
			}
		}
	}

	years := make([][]int, len(simulations))
	for si := range years {
		years[si] = append([]int(nil), centeredYears[si]...)
	}

	return &gridDocument{
		Variable:      variable,
		Simulations:   simulations,
		WarmingLevels: warmingLevels,
		TimeOffsets:   offsets,
		Lat:           lats,
		Lon:           lons,
		CenteredYears: years,
		Values:        values,
	}
}
