package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/osm3d/pitchmark/internal/batch"
	"github.com/osm3d/pitchmark/internal/database"
	"github.com/osm3d/pitchmark/internal/influx"
	"github.com/osm3d/pitchmark/internal/model"
	"github.com/osm3d/pitchmark/internal/worker"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	DB           *database.Manager // nil when the catalog is disabled
	Influx       *influx.Manager   // nil when fit metrics are disabled
	Logger       *slog.Logger
	BatchContext *batch.Context
	Pool         *worker.Pool
	StatusFile   string
	TotalAreas   int
}

// Status is the JSON document rewritten into the status file every tick
type Status struct {
	Time        time.Time `json:"time"`
	Source      string    `json:"source"`
	Processed   int64     `json:"processed"`
	Total       int       `json:"total"`
	Pending     int       `json:"pending"`
	Results     int       `json:"results"`
	RatePerSec  float64   `json:"ratePerSec"`
	LastWriteMs float32   `json:"lastWriteMs"`
}

// Service rewrites the status file once a second while a batch runs and
// mirrors each sample to the catalog and InfluxDB when those are up.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	startedAt time.Time
}

// NewService creates a monitor around the given dependencies
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning reports whether the status goroutine is alive
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current pool progress and its perf sample row
func (s *Service) GetStatus() (Status, model.PerfSample) {
	now := time.Now()
	processed := s.deps.Pool.Processed()

	var lastWriteMs float32
	if s.deps.DB != nil {
		lastWriteMs = float32(s.deps.DB.LastWriteDuration.Milliseconds())
	}

	var rate float64
	s.mu.RLock()
	started := s.startedAt
	s.mu.RUnlock()
	if !started.IsZero() {
		if elapsed := now.Sub(started).Seconds(); elapsed > 0 {
			rate = float64(processed) / elapsed
		}
	}

	status := Status{
		Time:        now,
		Source:      s.deps.BatchContext.GetBatch().Source,
		Processed:   processed,
		Total:       s.deps.TotalAreas,
		Pending:     s.deps.Pool.Pending(),
		Results:     s.deps.Pool.ResultCount(),
		RatePerSec:  rate,
		LastWriteMs: lastWriteMs,
	}

	perf := model.PerfSample{
		Time:    now,
		BatchID: s.deps.BatchContext.GetBatch().ID,
		QueueLengths: model.QueueLengths{
			Pending: uint16(status.Pending),
			Results: uint16(status.Results),
		},
		AreasProcessed:      uint32(processed),
		LastWriteDurationMs: lastWriteMs,
	}

	return status, perf
}

// ValidateHypertables turns the named catalog tables into TimescaleDB
// hypertables compressed after 14 days. Tables already configured are
// left alone. Only meaningful on Postgres.
func (s *Service) ValidateHypertables(tables map[string][]string) error {
	for table, segmentBy := range tables {
		configured := any(nil)
		s.deps.DB.DB.Exec(
			`SELECT x.* FROM timescaledb_information.hypertables WHERE hypertable_name = ?`, table,
		).Scan(&configured)
		if configured != nil {
			s.deps.Logger.Info("table is already configured", "table", table)
			continue
		}

		if err := s.configureHypertable(table, segmentBy); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) configureHypertable(table string, segmentBy []string) error {
	create := fmt.Sprintf(
		`SELECT create_hypertable('%s', 'time', chunk_time_interval => interval '1 day', if_not_exists => true);`,
		table,
	)
	if err := s.deps.DB.DB.Exec(create).Error; err != nil {
		s.deps.Logger.Error("failed to create hypertable", "table", table, "error", err)
		return err
	}

	compress := fmt.Sprintf(
		`ALTER TABLE %s SET (timescaledb.compress, timescaledb.compress_segmentby = ?);`,
		table,
	)
	if err := s.deps.DB.DB.Exec(compress, strings.Join(segmentBy, ",")).Error; err != nil {
		s.deps.Logger.Error("failed to enable compression", "table", table, "error", err)
		return err
	}

	policy := fmt.Sprintf(
		`SELECT add_compression_policy('%s', compress_after => interval '14 day');`,
		table,
	)
	if err := s.deps.DB.DB.Exec(policy).Error; err != nil {
		s.deps.Logger.Error("failed to set compress_after", "table", table, "error", err)
		return err
	}

	s.deps.Logger.Info("configured hypertable", "table", table, "segmentBy", segmentBy)
	return nil
}

// Start launches the status goroutine. On a Postgres catalog the perf
// table is configured as a hypertable first; failing that only costs
// partitioning, so the monitor starts regardless.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.startedAt = time.Now()
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	if s.deps.DB != nil && s.deps.DB.IsValid && !s.deps.DB.ShouldSaveLocal {
		tables := map[string][]string{"perf_samples": {"batch_id"}}
		if err := s.ValidateHypertables(tables); err != nil {
			s.deps.Logger.Warn("Perf samples stay unpartitioned", "error", err)
		}
	}

	go s.run()
	return nil
}

func (s *Service) run() {
	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	s.deps.Logger.Debug("Starting status monitor goroutine", "statusFile", s.deps.StatusFile)

	statusFile, err := os.Create(s.deps.StatusFile)
	if err != nil {
		s.deps.Logger.Error("Error creating status file", "error", err)
	}
	defer statusFile.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			// no batch opened yet
			if s.deps.BatchContext.GetBatch().StartTime.IsZero() {
				continue
			}
			s.tick(statusFile)
		}
	}
}

// tick snapshots progress and fans the sample out to every sink.
func (s *Service) tick(statusFile *os.File) {
	status, perf := s.GetStatus()

	if statusFile != nil {
		doc, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			doc = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		statusFile.Truncate(0)
		statusFile.Seek(0, 0)
		statusFile.Write(append(doc, '\n'))
	}

	if s.deps.DB != nil && s.deps.DB.IsValid {
		if err := s.deps.DB.SavePerfSample(&perf); err != nil {
			s.deps.Logger.Error("Error writing perf sample to catalog", "error", err)
		}
	}

	if s.deps.Influx != nil {
		bucket, point := influx.PerfPoint(
			int(status.Processed), status.Pending, status.Results, status.Time,
		)
		if err := s.deps.Influx.WritePoint(context.Background(), bucket, point); err != nil {
			s.deps.Logger.Error("Error writing perf point to influx", "error", err)
		}
	}
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
