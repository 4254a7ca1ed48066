package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
	"github.com/google/uuid"
)

// DataFetcher retrieves a labeled climate array from the catalog.
type DataFetcher interface {
	FetchClimateArray(ctx context.Context, q domain.FetchQuery) (*domain.ClimateArray, error)
}

// Exporter writes an annual grid to a self-describing array file.
type Exporter interface {
	Export(ctx context.Context, grid domain.AnnualGrid, path string) error
}

// Notifier publishes an event after each successful export.
type Notifier interface {
	Publish(ctx context.Context, event domain.ExportEvent) error
}

// FetchDefaults are the catalog parameters shared by every job in a run.
type FetchDefaults struct {
	DownscalingMethod string
	Resolution        string
	Timescale         string
}

// Job is one (county, variable, aggregation) export combination.
type Job struct {
	County             string
	Variable           string
	Aggregation        string
	Simulation         string
	WarmingLevel       float64
	OutputPath         string
	GenerateTestPoints bool
	BBox               *domain.BBox
}

// Pipeline orchestrates the fetch-slice-aggregate-export-sample sequence.
type Pipeline struct {
	fetcher  DataFetcher
	exporter Exporter
	notifier Notifier // nil disables completion events
	defaults FetchDefaults
	rng      *rand.Rand
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Pipeline. Pass a nil notifier to disable completion events
// and a nil rng for clock-seeded sampling.
func New(f DataFetcher, e Exporter, n Notifier, defaults FetchDefaults, rng *rand.Rand, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pipeline{
		fetcher:  f,
		exporter: e,
		notifier: n,
		defaults: defaults,
		rng:      rng,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// export job.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no export jobs completed yet")
	}
	return nil
}

// Run executes one export job end to end. The aggregation operator is
// validated before the fetch so a bad operator never costs a catalog call.
func (p *Pipeline) Run(ctx context.Context, job Job) error {
	if err := p.run(ctx, job); err != nil {
		p.metrics.JobsFailed.Inc()
		return err
	}
	p.metrics.JobsCompleted.Inc()
	p.ready.Store(true)
	return nil
}

func (p *Pipeline) run(ctx context.Context, job Job) error {
	agg, err := domain.ParseAggregation(job.Aggregation)
	if err != nil {
		return err
	}

	start := time.Now()
	p.logger.Info("export job started",
		"county", job.County,
		"variable", job.Variable,
		"aggregation", job.Aggregation,
		"simulation", job.Simulation,
		"warming_level", job.WarmingLevel,
	)

	fetchStart := time.Now()
	ca, err := p.fetcher.FetchClimateArray(ctx, domain.FetchQuery{
		Variable:          job.Variable,
		DownscalingMethod: p.defaults.DownscalingMethod,
		Resolution:        p.defaults.Resolution,
		Timescale:         p.defaults.Timescale,
		CachedArea:        job.County,
		Approach:          domain.ApproachWarmingLevel,
	})
	if err != nil {
		return fmt.Errorf("fetch %s for %s: %w", job.Variable, job.County, err)
	}
	p.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())

	ws, err := domain.SelectSlice(ca, job.Simulation, job.WarmingLevel)
	if err != nil {
		return err
	}
	p.logger.Info("slice selected", "centered_year", ws.CenteredYear)

	grid, err := domain.Aggregate(ws, agg)
	if err != nil {
		return err
	}

	exportStart := time.Now()
	if err := p.exporter.Export(ctx, grid, job.OutputPath); err != nil {
		return fmt.Errorf("export %s: %w", job.OutputPath, err)
	}
	p.metrics.ExportDuration.Observe(time.Since(exportStart).Seconds())

	testPoints := 0
	if job.GenerateTestPoints {
		testPoints, err = p.sampleTestPoints(grid, job)
		if err != nil {
			return err
		}
	}

	p.notifyCompleted(ctx, job, grid, testPoints)

	p.metrics.JobDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("export job complete",
		"output", job.OutputPath,
		"years", len(grid.Years),
		"test_points", testPoints,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// sampleTestPoints draws validation points and writes the companion CSV.
// An empty bounding-box intersection degrades to a logged skip so batch runs
// over many regions keep going.
func (p *Pipeline) sampleTestPoints(grid domain.AnnualGrid, job Job) (int, error) {
	points, ok := domain.SampleTestPoints(grid, job.BBox, p.rng)
	if !ok {
		p.metrics.SamplesSkipped.Inc()
		p.logger.Warn("bounding box excludes all grid points, skipping test points",
			"county", job.County,
			"output", job.OutputPath,
		)
		return 0, nil
	}

	path := TestPointsPath(job.OutputPath)
	if err := writeTestPoints(path, grid.Meta.Variable, points); err != nil {
		return 0, fmt.Errorf("write test points %s: %w", path, err)
	}
	p.metrics.TestPointsWritten.Add(float64(len(points)))
	p.logger.Info("test points written", "path", path, "rows", len(points))
	return len(points), nil
}

// notifyCompleted publishes a completion event. Publish failures are logged
// rather than failing the job: the export on disk is already good.
func (p *Pipeline) notifyCompleted(ctx context.Context, job Job, grid domain.AnnualGrid, testPoints int) {
	if p.notifier == nil {
		return
	}

	event := domain.ExportEvent{
		ID:           uuid.NewString(),
		County:       job.County,
		Variable:     grid.Meta.Variable,
		Aggregation:  grid.Meta.Aggregation,
		Simulation:   grid.Meta.Simulation,
		WarmingLevel: grid.Meta.WarmingLevel,
		CenteredYear: grid.Meta.CenteredYear,
		OutputPath:   job.OutputPath,
		TestPoints:   testPoints,
		CompletedAt:  grid.Meta.CreatedAt,
	}
	if len(grid.Years) > 0 {
		event.FirstYear = grid.Years[0]
		event.LastYear = grid.Years[len(grid.Years)-1]
	}

	if err := p.notifier.Publish(ctx, event); err != nil {
		p.logger.Warn("publish completion event failed", "error", err, "output", job.OutputPath)
	}
}

// RunBatch processes jobs strictly sequentially with per-item error
// isolation: a failing combination is logged and counted but does not abort
// the rest of the batch. progress, when non-nil, is called after each job.
func (p *Pipeline) RunBatch(ctx context.Context, jobs []Job, progress func()) error {
	p.metrics.BatchRunning.Set(1)
	defer p.metrics.BatchRunning.Set(0)

	p.logger.Info("batch started", "jobs", len(jobs))

	failed := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch interrupted: %w", err)
		}
		if err := p.Run(ctx, job); err != nil {
			failed++
			p.logger.Error("export job failed",
				"error", err,
				"county", job.County,
				"variable", job.Variable,
				"aggregation", job.Aggregation,
			)
		}
		if progress != nil {
			progress()
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d export jobs failed", failed, len(jobs))
	}
	p.logger.Info("batch complete", "jobs", len(jobs))
	return nil
}
