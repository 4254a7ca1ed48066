// Command export retrieves downscaled climate projections for a county,
// aggregates monthly values into annual summaries for one simulation and
// warming level, writes the result to a NetCDF file, and optionally emits a
// small CSV of sampled validation points.
//
// Single run:
//
//	go run ./cmd/export \
//	  --county "Riverside County" \
//	  --variable "Precipitation (total)" \
//	  --aggregation sum \
//	  --simulation LOCA2_ACCESS-CM2_r2i1p1f1_historical+ssp245 \
//	  --warming-level 2.0 \
//	  --output precip_riverside_annual.nc \
//	  --generate-test-points
//
// Batch run from a jobs file:
//
//	go run ./cmd/export --jobs jobs.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/couchcryptid/climate-data-etl/internal/adapter/caladapt"
	httpadapter "github.com/couchcryptid/climate-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-data-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/climate-data-etl/internal/config"
	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
	"github.com/couchcryptid/climate-data-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	county := flag.String("county", "", `county name to fetch data for (e.g. "Riverside County")`)
	variable := flag.String("variable", "", `variable name (e.g. "Precipitation (total)")`)
	aggregation := flag.String("aggregation", "", "annual reduction operator: sum, min, max, or mean")
	simulation := flag.String("simulation", "", "simulation to select")
	warmingLevel := flag.Float64("warming-level", 2.0, "warming level to select (e.g. 2.0)")
	output := flag.String("output", "", "path for the output NetCDF file")
	genTestPoints := flag.Bool("generate-test-points", false, "write a CSV of sampled validation points alongside the output")
	bboxFlag := flag.String("bbox", "", "restrict test points to minLon,maxLon,minLat,maxLat")
	jobsFile := flag.String("jobs", "", "JSON batch file; replaces the single-run flags")
	seed := flag.Int64("seed", 0, "test-point sampling seed (overrides SAMPLE_SEED; 0 means clock-seeded)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := caladapt.NewClient(cfg.CatalogBaseURL, cfg.CatalogToken, cfg.CatalogTimeout, metrics, logger)
	fetcher := caladapt.NewCachedFetcher(client, cfg.CatalogCacheSize, metrics)
	exporter := netcdf.NewExporter(logger)

	var notifier pipeline.Notifier
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		notifier = writer
		logger.Info("completion events enabled", "topic", cfg.KafkaTopic)
	}

	sampleSeed := cfg.SampleSeed
	if *seed != 0 {
		sampleSeed = *seed
	}
	var rng *rand.Rand
	if sampleSeed != 0 {
		rng = rand.New(rand.NewSource(sampleSeed))
	}

	p := pipeline.New(fetcher, exporter, notifier, pipeline.FetchDefaults{
		DownscalingMethod: cfg.DownscalingMethod,
		Resolution:        cfg.Resolution,
		Timescale:         cfg.Timescale,
	}, rng, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	if *jobsFile != "" {
		jobs, err := loadJobs(*jobsFile)
		if err != nil {
			return err
		}
		bar := pb.StartNew(len(jobs))
		err = p.RunBatch(ctx, jobs, func() { bar.Increment() })
		bar.Finish()
		return err
	}

	if *county == "" || *variable == "" || *aggregation == "" || *simulation == "" || *output == "" {
		flag.Usage()
		return errors.New("missing required flags: --county, --variable, --aggregation, --simulation, --output")
	}

	box, err := parseBBox(*bboxFlag)
	if err != nil {
		return err
	}

	return p.Run(ctx, pipeline.Job{
		County:             *county,
		Variable:           *variable,
		Aggregation:        *aggregation,
		Simulation:         *simulation,
		WarmingLevel:       *warmingLevel,
		OutputPath:         *output,
		GenerateTestPoints: *genTestPoints,
		BBox:               box,
	})
}

// jobsDocument is the batch file format: shared parameters plus one entry
// per (county, variable, aggregation, output) combination.
type jobsDocument struct {
	Simulation         string     `json:"simulation"`
	WarmingLevel       float64    `json:"warming_level"`
	GenerateTestPoints bool       `json:"generate_test_points"`
	Jobs               []jobEntry `json:"jobs"`
}

type jobEntry struct {
	County      string `json:"county"`
	Variable    string `json:"variable"`
	Aggregation string `json:"aggregation"`
	Output      string `json:"output"`

	// Optional per-entry overrides of the shared parameters.
	Simulation   string  `json:"simulation,omitempty"`
	WarmingLevel float64 `json:"warming_level,omitempty"`
}

func loadJobs(path string) ([]pipeline.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	var doc jobsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse jobs file %s: %w", path, err)
	}
	if len(doc.Jobs) == 0 {
		return nil, fmt.Errorf("jobs file %s contains no jobs", path)
	}

	jobs := make([]pipeline.Job, 0, len(doc.Jobs))
	for i, e := range doc.Jobs {
		if e.County == "" || e.Variable == "" || e.Aggregation == "" || e.Output == "" {
			return nil, fmt.Errorf("jobs file %s: entry %d is missing county, variable, aggregation, or output", path, i)
		}
		job := pipeline.Job{
			County:             e.County,
			Variable:           e.Variable,
			Aggregation:        e.Aggregation,
			Simulation:         doc.Simulation,
			WarmingLevel:       doc.WarmingLevel,
			OutputPath:         e.Output,
			GenerateTestPoints: doc.GenerateTestPoints,
		}
		if e.Simulation != "" {
			job.Simulation = e.Simulation
		}
		if e.WarmingLevel != 0 {
			job.WarmingLevel = e.WarmingLevel
		}
		if job.Simulation == "" {
			return nil, fmt.Errorf("jobs file %s: entry %d has no simulation", path, i)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// parseBBox parses "minLon,maxLon,minLat,maxLat". An empty string means no box.
func parseBBox(s string) (*domain.BBox, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must be minLon,maxLon,minLat,maxLat, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox component %q: %w", p, err)
		}
		vals[i] = v
	}
	return &domain.BBox{MinLon: vals[0], MaxLon: vals[1], MinLat: vals[2], MaxLat: vals[3]}, nil
}
