package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/osm3d/pitchmark/internal/config"
	"github.com/osm3d/pitchmark/internal/database"
	"github.com/osm3d/pitchmark/internal/logging"
	"github.com/osm3d/pitchmark/internal/model"
	"github.com/osm3d/pitchmark/internal/model/convert"
	"github.com/osm3d/pitchmark/internal/pitch"
	"github.com/osm3d/pitchmark/internal/util"
)

// runDump exports cataloged batches as gzipped JSON, one file per batch.
// Arguments name sqlite catalog files, or "postgres" for the configured
// server; with no arguments every catalog dump in the working directory is
// exported.
func runDump(args []string) error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	// postgres credentials live in the config; a missing file only rules
	// out the postgres argument
	if err := config.Load("."); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	}

	if len(args) == 0 {
		paths, err := database.GetBackupDBPaths(".")
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Println("No catalog files found.")
			return nil
		}
		args = paths
	}

	for _, arg := range args {
		var (
			db  *gorm.DB
			err error
		)
		if strings.ToLower(arg) == "postgres" {
			fmt.Println("Connecting to the configured postgres catalog...")
			db, err = database.GetPostgresDBStandalone()
		} else {
			fmt.Println("Opening catalog", arg)
			db, err = database.GetSqliteDBStandalone(arg)
		}
		if err != nil {
			return err
		}

		if err := exportBatches(db, arg); err != nil {
			return err
		}
	}
	return nil
}

// exportBatches writes one JSON document per cataloged batch, carrying the
// batch row and its frame records with decoded corner quads.
func exportBatches(db *gorm.DB, source string) error {
	txStart := time.Now()

	batches := []model.BatchRecord{}
	err := db.Model(&model.BatchRecord{}).Order("start_time ASC").Find(&batches).Error
	if err != nil {
		return fmt.Errorf("error getting batches: %w", err)
	}

	for _, b := range batches {
		records := []model.FrameRecord{}
		err = db.Model(&model.FrameRecord{}).
			Where("batch_id = ?", b.ID).
			Order("area_id ASC").
			Find(&records).Error
		if err != nil {
			return fmt.Errorf("error getting frame records: %w", err)
		}

		doc := map[string]any{
			"batchId":     b.ID,
			"source":      b.Source,
			"tag":         b.Tag,
			"toolVersion": b.ToolVersion,
			"startTime":   b.StartTime,
			"durationMs":  b.DurationMs,
			"totals":      b.Totals,
		}

		frames := []map[string]any{}
		for _, rec := range records {
			frame := map[string]any{
				"areaId":      rec.AreaID,
				"sport":       rec.Sport,
				"state":       rec.State,
				"vertexCount": rec.VertexCount,
			}
			if rec.State == pitch.StateFitted.String() {
				corners, err := convert.RecordCorners(rec)
				if err != nil {
					return fmt.Errorf("error decoding corners for area %d: %w", rec.AreaID, err)
				}
				quad := make([][]float64, 0, len(corners))
				for _, c := range corners {
					quad = append(quad, []float64{c.X, c.Y})
				}
				frame["corners"] = quad
				frame["longLength"] = rec.LongLength
				frame["shortLength"] = rec.ShortLength
			}
			if rec.ErrorText != "" {
				frame["error"] = rec.ErrorText
			}
			frames = append(frames, frame)
		}
		doc["frames"] = frames

		docJSON, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("error marshalling batch %d: %w", b.ID, err)
		}

		fileName := fmt.Sprintf("%s_batch%d_%s.json.gz",
			util.SanitizeFilename(util.BaseNameNoExt(source)),
			b.ID,
			b.StartTime.Format("20060102_150405"),
		)
		if err := writeGzip(fileName, docJSON); err != nil {
			return err
		}

		fmt.Println("Wrote", len(frames), "frames to", fileName)
	}

	fmt.Println("Exported", len(batches), "batches in", time.Since(txStart))
	return nil
}

func writeGzip(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer func() { _ = f.Close() }()

	gzWriter := gzip.NewWriter(f)
	defer func() { _ = gzWriter.Close() }()
	if _, err = gzWriter.Write(data); err != nil {
		return fmt.Errorf("error writing to gzip: %w", err)
	}
	return nil
}
