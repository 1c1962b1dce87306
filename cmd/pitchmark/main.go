// The pitchmark command reads a GeoJSON collection of OSM areas, fits
// marking frames onto the recognized sports pitches and emits the resulting
// draw calls. Catalog, metrics, scene upload and monitoring are optional
// shells around that flow, switched on through pitchmark.cfg.json.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/osm3d/pitchmark/internal/batch"
	"github.com/osm3d/pitchmark/internal/config"
	"github.com/osm3d/pitchmark/internal/database"
	"github.com/osm3d/pitchmark/internal/influx"
	"github.com/osm3d/pitchmark/internal/logging"
	"github.com/osm3d/pitchmark/internal/material"
	"github.com/osm3d/pitchmark/internal/model"
	"github.com/osm3d/pitchmark/internal/model/convert"
	"github.com/osm3d/pitchmark/internal/monitor"
	intOtel "github.com/osm3d/pitchmark/internal/otel"
	"github.com/osm3d/pitchmark/internal/parser"
	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/internal/pitch"
	"github.com/osm3d/pitchmark/internal/storage"
	"github.com/osm3d/pitchmark/internal/worker"
	"github.com/osm3d/pitchmark/pkg/render"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentToolVersion string = "1.0.0"
	BuildDate          string = "unknown"

	ToolName string = "pitchmark"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// ZLogger feeds the pipeline adapter and the catalog/metrics managers
	ZLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// BatchContext tracks the run currently flowing through the tool and
	// stamps its source onto every log record
	BatchContext *batch.Context = batch.NewContext()

	SessionStartTime time.Time = time.Now()

	// LogFile is the rolling session log file, nil until bootstrap
	LogFile *lumberjack.Logger

	// Services
	dbManager      *database.Manager
	influxManager  *influx.Manager
	monitorService *monitor.Service
	pool           *worker.Pool

	// Storage backend for the exported scene artifact
	storageBackend storage.Backend
)

// run flags
var (
	configDir   = flag.String("config", ".", "directory containing pitchmark.cfg.json")
	inputPath   = flag.String("input", "", "GeoJSON FeatureCollection of OSM areas")
	outPath     = flag.String("out", "", "draw call JSON output file, empty or - for stdout")
	kmlPath     = flag.String("kml", "", "write fitted frames as a KML overlay")
	previewPath = flag.String("preview", "", "write a rasterized WebP preview")
	workerCount = flag.Int("workers", runtime.NumCPU(), "worker goroutines")
	batchTag    = flag.String("tag", "", "operator label stored with the batch")
)

func main() {
	// dump mode reads catalogs written by earlier runs and needs none of
	// the batch machinery
	if len(os.Args) > 1 && strings.ToLower(os.Args[1]) == "dump" {
		if err := runDump(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "dump failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "pitchmark: no input collection given")
		flag.Usage()
		os.Exit(2)
	}

	bootstrap()
	err := runBatch()
	shutdown()
	if err != nil {
		os.Exit(1)
	}
}

// bootstrap brings up config and logging. Records go to the console until
// the config names the logs directory, then everything switches to the
// rolling session file.
func bootstrap() {
	SlogManager = logging.NewSlogManager()
	SlogManager.ContextAttrs = BatchContext.LogAttrs
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := loadConfig(); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := config.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}
	LogFile = logging.NewRollingFile(logsDir, ToolName, SessionStartTime)

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var err error
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    LogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else if otelCfg.Endpoint != "" {
			Logger.Info("OTel provider initialized", "file", LogFile.Filename, "endpoint", otelCfg.Endpoint)
		} else {
			Logger.Info("OTel provider initialized", "file", LogFile.Filename)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	// Re-setup logging with file output, optional graylog and OTel
	var extra []io.Writer
	if config.GetBool("graylog.enabled") {
		addr := config.GetString("graylog.address")
		gelfWriter, err := logging.NewGelfWriter(addr)
		if err != nil {
			Logger.Error("Failed to connect graylog", "error", err, "address", addr)
		} else {
			extra = append(extra, gelfWriter)
		}
	}
	SlogManager.Setup(LogFile, config.GetString("logLevel"), otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFile.Filename)

	// zerolog side of the house: pipeline adapter, catalog and metrics
	// managers share the session file
	ZLogger = zerolog.New(LogFile).With().Timestamp().Logger()
}

func loadConfig() error {
	return config.Load(*configDir)
}

// runBatch is the whole processing run: parse the input, fan the areas
// through the pipeline, then hand the outcomes to every configured sink.
func runBatch() error {
	Logger.Info("Starting up...", "version", CurrentToolVersion, "build", BuildDate)

	table, materials, err := loadTables()
	if err != nil {
		Logger.Error("Invalid sport or material config", "error", err)
		return err
	}

	p := parser.NewParser(Logger, config.GetBool("input.projected"))
	areas, ref, err := p.ParseFile(*inputPath)
	if err != nil {
		Logger.Error("Failed to parse input", "error", err, "path", *inputPath)
		return err
	}
	Logger.Info("Parsed input",
		"areas", len(areas),
		"skipped", p.Skipped(),
		"projected", ref == nil,
	)

	rec := &model.BatchRecord{
		Source:      *inputPath,
		Tag:         *batchTag,
		ToolVersion: CurrentToolVersion,
		StartTime:   SessionStartTime,
	}
	BatchContext.SetBatch(rec, ref)

	openCatalog(rec)
	openInflux()
	if err := initStorage(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}

	recorder := render.NewRecorder()
	plLogger := logging.NewPipelineLogger(ZLogger)
	svc, err := pipeline.New(table, materials, recorder, plLogger)
	if err != nil {
		Logger.Error("Failed to create pipeline", "error", err)
		return err
	}
	pool = worker.NewPool(*workerCount, svc, plLogger)

	if config.GetBool("monitor.enabled") {
		monitorService = monitor.NewService(monitor.Dependencies{
			DB:           dbManager,
			Influx:       influxManager,
			Logger:       Logger,
			BatchContext: BatchContext,
			Pool:         pool,
			StatusFile:   config.GetString("monitor.statusFile"),
			TotalAreas:   len(areas),
		})
		monitorService.Start()
	}

	results, sum := pool.Run(areas)
	duration := time.Since(SessionStartTime)

	if monitorService != nil {
		monitorService.Stop()
	}

	calls := recorder.Calls()

	saveCatalog(rec, results, sum, duration)
	writeFitMetrics(results, sum, duration)
	if err := publishScene(results, calls); err != nil {
		Logger.Error("Failed to publish scene artifact", "error", err)
	}

	if err := writeDrawCalls(*outPath, calls); err != nil {
		Logger.Error("Failed to write draw calls", "error", err, "path", *outPath)
		return err
	}
	if *kmlPath != "" {
		writeKML(*kmlPath, results)
	}
	if *previewPath != "" {
		if err := writePreview(*previewPath, calls); err != nil {
			Logger.Error("Failed to write preview", "error", err, "path", *previewPath)
		} else {
			Logger.Info("Wrote preview", "path", *previewPath)
		}
	}

	Logger.Info("Batch complete",
		"areas", sum.Total,
		"fitted", sum.Fitted,
		"fallback", sum.Fallback,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"drawCalls", len(calls),
		"duration", duration,
	)
	return nil
}

// loadTables builds the sport table and material registry, built-ins plus
// config overrides.
func loadTables() (pitch.Table, *material.Registry, error) {
	sportsCfg, err := config.GetSports()
	if err != nil {
		return pitch.Table{}, nil, err
	}
	overrides := make(map[string]pitch.Constraints, len(sportsCfg))
	for name, sc := range sportsCfg {
		overrides[name] = pitch.Constraints{
			MinLongSide:      sc.MinLongSide,
			MaxLongSide:      sc.MaxLongSide,
			MinShortSide:     sc.MinShortSide,
			MaxShortSide:     sc.MaxShortSide,
			Material:         sc.Material,
			FallbackMaterial: sc.FallbackMaterial,
		}
	}
	table, err := pitch.NewTable(overrides)
	if err != nil {
		return pitch.Table{}, nil, err
	}

	materials := material.NewRegistry()
	materialsCfg, err := config.GetMaterials()
	if err != nil {
		return pitch.Table{}, nil, err
	}
	for name, mc := range materialsCfg {
		materials.Add(render.Material{
			Name:           name,
			Texture:        mc.Texture,
			TexWorldWidth:  mc.TexWorldWidth,
			TexWorldHeight: mc.TexWorldHeight,
		})
	}

	Logger.Info("Domain tables ready", "sports", table.Sports(), "materials", materials.Names())
	return table, materials, nil
}

// openCatalog connects the run catalog and registers the batch row. A dead
// catalog downgrades to a warning: the batch still runs, results just stay
// uncataloged.
func openCatalog(rec *model.BatchRecord) {
	if !config.GetBool("db.enabled") {
		return
	}

	dbManager = database.NewManager(ZLogger)
	// disk dump target for the in-memory fallback, picked up by `pitchmark dump`
	dbManager.SqliteFilePath = fmt.Sprintf("%s_%s.db", ToolName, SessionStartTime.Format("20060102_150405"))
	if err := dbManager.Connect(); err != nil {
		Logger.Error("Catalog connection failed, results will not be cataloged", "error", err)
		dbManager = nil
		return
	}
	if err := dbManager.Setup(); err != nil {
		Logger.Error("Catalog setup failed, results will not be cataloged", "error", err)
		dbManager = nil
		return
	}
	if err := dbManager.CreateBatch(rec); err != nil {
		Logger.Error("Failed to create batch row", "error", err)
		return
	}
	Logger.Info("Catalog ready", "batch", rec.ID, "local", dbManager.ShouldSaveLocal)
}

// openInflux connects the fit metrics endpoint. The manager falls back to
// a gzip line-protocol file on its own when the server is unreachable.
func openInflux() {
	if !config.GetBool("influx.enabled") {
		return
	}

	backupPath := filepath.Join(
		config.GetString("logsDir"),
		fmt.Sprintf("%s_influx_backup.%s.gz", ToolName, SessionStartTime.Format("20060102_150405")),
	)
	influxManager = influx.NewManager(ZLogger, backupPath)
	if err := influxManager.Connect(); err != nil {
		Logger.Error("Influx connection failed, fit metrics disabled", "error", err)
		influxManager = nil
	}
}

// saveCatalog writes per-area frame records and finalizes the batch row.
// Skipped areas never become rows; they were not pitches.
func saveCatalog(rec *model.BatchRecord, results []pipeline.Result, sum pipeline.Summary, duration time.Duration) {
	if dbManager == nil || !dbManager.IsValid {
		return
	}

	at := time.Now()
	records := make([]model.FrameRecord, 0, len(results))
	for _, res := range results {
		if res.Skipped {
			continue
		}
		records = append(records, convert.ResultToRecord(res, at))
	}
	if err := dbManager.SaveFrameRecords(rec.ID, records); err != nil {
		Logger.Error("Failed to save frame records", "error", err)
		return
	}

	rec.DurationMs = float32(duration.Milliseconds())
	rec.Totals = convert.SummaryToTotals(sum)
	if err := dbManager.FinalizeBatch(rec); err != nil {
		Logger.Error("Failed to finalize batch row", "error", err)
		return
	}

	if dbManager.ShouldSaveLocal {
		if err := dbManager.DumpMemoryToDisk(); err != nil {
			Logger.Error("Failed to dump catalog to disk", "error", err)
		}
	}
	Logger.Info("Cataloged batch",
		"batch", rec.ID,
		"frames", len(records),
		"lastWrite", dbManager.LastWriteDuration,
	)
}

// writeFitMetrics mirrors per-area outcomes and the batch summary to influx.
func writeFitMetrics(results []pipeline.Result, sum pipeline.Summary, duration time.Duration) {
	if influxManager == nil {
		return
	}

	ctx := context.Background()
	at := time.Now()
	for _, res := range results {
		if res.Skipped {
			continue
		}
		bucket, point := influx.FitPoint(res, at)
		if err := influxManager.WritePoint(ctx, bucket, point); err != nil {
			Logger.Error("Failed to write fit point", "error", err)
			break
		}
	}

	bucket, point := influx.BatchPoint(BatchContext.GetBatch().Source, sum, duration, at)
	if err := influxManager.WritePoint(ctx, bucket, point); err != nil {
		Logger.Error("Failed to write batch point", "error", err)
	}
	influxManager.Flush()
}

// shutdown flushes every sink that buffers. Safe to call with a partially
// initialized process, so the error paths can share it.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if influxManager != nil {
		influxManager.Flush()
	}
	if SlogManager != nil {
		if err := SlogManager.Flush(ctx); err != nil {
			Logger.Error("Failed to flush logs", "error", err)
		}
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}
}
