//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-data-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/climate-data-etl/internal/config"
	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
	"github.com/couchcryptid/climate-data-etl/internal/pipeline"
	"github.com/ctessum/sparse"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testEventsTopic = "test-climate-export-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka boots a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafkatc.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkatc.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// stubFetcher serves a fixed one-simulation array so the pipeline can run
// without a catalog.
type stubFetcher struct{}

func (stubFetcher) FetchClimateArray(_ context.Context, q domain.FetchQuery) (*domain.ClimateArray, error) {
	offsets := make([]int, 24)
	for i := range offsets {
		offsets[i] = i - 12
	}
	values := sparse.ZerosDense(1, 1, 24, 2, 2)
	for i := range values.Elements {
		values.Elements[i] = 1
	}
	return &domain.ClimateArray{
		Variable:      q.Variable,
		Simulations:   []string{"sim-a"},
		WarmingLevels: []float64{2.0},
		TimeOffsets:   offsets,
		Lats:          []float64{33.5, 33.75},
		Lons:          []float64{-116.5, -116.25},
		CenteredYears: [][]int{{2045}},
		Values:        values,
	}, nil
}

// TestExportPublishesCompletionEvent runs a full export job against real
// Kafka and verifies the completion event lands on the topic.
func TestExportPublishesCompletionEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testEventsTopic,
	}

	notifier := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	p := pipeline.New(
		stubFetcher{},
		netcdf.NewExporter(discardLogger()),
		notifier,
		pipeline.FetchDefaults{DownscalingMethod: "Statistical", Resolution: "3 km", Timescale: "monthly"},
		nil,
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	outputPath := filepath.Join(t.TempDir(), "precip_riverside_annual.nc")
	require.NoError(t, p.Run(ctx, pipeline.Job{
		County:             "Riverside County",
		Variable:           "Precipitation (total)",
		Aggregation:        "sum",
		Simulation:         "sim-a",
		WarmingLevel:       2.0,
		OutputPath:         outputPath,
		GenerateTestPoints: true,
	}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
	defer cancelRead()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read completion event")

	var event domain.ExportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))

	assert.Equal(t, "Riverside County", event.County)
	assert.Equal(t, "Precipitation (total)", event.Variable)
	assert.Equal(t, "sum", event.Aggregation)
	assert.Equal(t, 2045, event.CenteredYear)
	assert.Equal(t, 2044, event.FirstYear)
	assert.Equal(t, 2045, event.LastYear)
	assert.Equal(t, outputPath, event.OutputPath)
	assert.Equal(t, 8, event.TestPoints)
	assert.Equal(t, string(msg.Key), event.ID)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "precipitation_total", headers["variable"])
	_, err = time.Parse(time.RFC3339, headers["completed_at"])
	assert.NoError(t, err, "completed_at should be valid RFC3339")

	// The exported file itself round-trips.
	grid, err := netcdf.ReadAnnual(outputPath)
	require.NoError(t, err)
	assert.Equal(t, []int{2044, 2045}, grid.Years)
}
