// Package influx ships fit metrics to InfluxDB. When no server is
// reachable the manager degrades to a gzip line-protocol file so points
// from offline runs can be replayed later.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/internal/pitch"
)

// Bucket names used by the fit metrics.
const (
	BucketFitResults      = "fit_results"
	BucketBatchSummary    = "batch_summary"
	BucketToolPerformance = "tool_performance"
)

// Provisioned buckets expire points after 90 days.
const bucketRetentionSeconds = 60 * 60 * 24 * 90

// DefaultBucketNames are the default InfluxDB buckets provisioned on connect.
var DefaultBucketNames = []string{
	BucketFitResults,
	BucketBatchSummary,
	BucketToolPerformance,
}

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		IsValid:     false,
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
	}
}

// Connect dials InfluxDB and provisions the org, buckets and write APIs.
// A server that does not answer the ping is not an error: the manager
// falls back to the backup file instead.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influxdb.Enabled is false")
	}

	url := fmt.Sprintf("%s://%s:%s",
		viper.GetString("influx.protocol"),
		viper.GetString("influx.host"),
		viper.GetString("influx.port"),
	)
	m.Client = influxdb2.NewClientWithOptions(url, viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(context.Background())
	if err != nil || !running {
		m.IsValid = false
		if err := m.openBackup(); err != nil {
			return err
		}
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
		return nil
	}

	m.IsValid = true
	if err := m.ensureOrgAndBuckets(); err != nil {
		return err
	}
	m.createWriters()
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

// openBackup opens the gzip stream that stands in for the write APIs.
func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	m.Logger.Info().Str("backupPath", m.BackupPath).
		Msg("Failed to initialize InfluxDB client, writing to backup file")

	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %v", err)
	}
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) ensureOrgAndBuckets() error {
	ctx := context.Background()
	orgName := viper.GetString("influx.org")

	orgsAPI := m.Client.OrganizationsAPI()
	org, err := orgsAPI.FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = orgsAPI.CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	bucketsAPI := m.Client.BucketsAPI()
	for _, bucket := range m.BucketNames {
		if _, err := bucketsAPI.FindBucketByName(ctx, bucket); err == nil {
			continue
		}
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		expire := domain.RetentionRuleTypeExpire
		_, err := bucketsAPI.CreateBucketWithName(ctx, org, bucket, domain.RetentionRule{
			Type:         &expire,
			EverySeconds: bucketRetentionSeconds,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

// createWriters opens one async write API per bucket and drains its error
// channel into the log.
func (m *Manager) createWriters() {
	orgName := viper.GetString("influx.org")
	for _, bucket := range m.BucketNames {
		w := m.Client.WriteAPI(orgName, bucket)
		m.Writers[bucket] = w

		go func(bucket string, errCh <-chan error) {
			for writeErr := range errCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucket).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, w.Errors())
	}
	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint hands the point to the bucket's write API, or appends it as
// line protocol to the backup stream when the server is unreachable.
func (m *Manager) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		w, ok := m.Writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
	}
	return nil
}

// Flush drains buffered writes and the backup stream.
func (m *Manager) Flush() {
	for _, writer := range m.Writers {
		writer.Flush()
	}
	if m.BackupWriter != nil {
		m.BackupWriter.Flush()
	}
}

// FitPoint builds the per-area measurement for one pipeline result.
func FitPoint(res pipeline.Result, at time.Time) (bucket string, point *influxdb2_write.Point) {
	point = influxdb2.NewPointWithMeasurement("marking_frame").
		AddTag("sport", res.Sport).
		AddTag("state", res.State.String()).
		AddField("area_id", res.AreaID).
		AddField("vertices", res.Vertices).
		SetTime(at)

	if res.State == pitch.StateFitted {
		point.AddField("long_length", res.Frame.LongLength())
		point.AddField("short_length", res.Frame.ShortLength())
	}
	if res.Err != nil {
		point.AddField("error", res.Err.Error())
	}

	return BucketFitResults, point
}

// BatchPoint builds the per-batch summary measurement.
func BatchPoint(source string, sum pipeline.Summary, duration time.Duration, at time.Time) (bucket string, point *influxdb2_write.Point) {
	point = influxdb2.NewPointWithMeasurement("batch").
		AddTag("source", source).
		AddField("total", sum.Total).
		AddField("fitted", sum.Fitted).
		AddField("fallback", sum.Fallback).
		AddField("skipped", sum.Skipped).
		AddField("failed", sum.Failed).
		AddField("duration_ms", float64(duration.Milliseconds())).
		SetTime(at)

	return BucketBatchSummary, point
}

// PerfPoint builds the monitor performance measurement.
func PerfPoint(processed int, pending int, results int, at time.Time) (bucket string, point *influxdb2_write.Point) {
	point = influxdb2.NewPointWithMeasurement("pool").
		AddField("processed", processed).
		AddField("pending", pending).
		AddField("results", results).
		SetTime(at)

	return BucketToolPerformance, point
}
