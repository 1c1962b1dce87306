package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/HugoSmits86/nativewebp"

	"github.com/osm3d/pitchmark/internal/api"
	"github.com/osm3d/pitchmark/internal/config"
	"github.com/osm3d/pitchmark/internal/export"
	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/internal/raster"
	"github.com/osm3d/pitchmark/internal/storage"
	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// initStorage creates the configured scene backend and opens a batch on it.
func initStorage() error {
	storageCfg := config.GetStorageConfig()

	backend, err := storage.NewBackend(storageCfg)
	if err != nil {
		return err
	}
	storageBackend = backend
	if err := storageBackend.Init(); err != nil {
		return err
	}

	info := core.SceneInfo{
		Tool:        ToolName,
		ToolVersion: CurrentToolVersion,
		Source:      *inputPath,
		Tag:         *batchTag,
		StartTime:   SessionStartTime,
	}
	if err := storageBackend.StartBatch(info); err != nil {
		return err
	}

	Logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return nil
}

// publishScene records the batch outcome on the storage backend, exports
// the scene artifact and, when an API key is configured and the collection
// endpoint answers, uploads it.
func publishScene(results []pipeline.Result, calls []render.DrawCall) error {
	for _, res := range results {
		if err := storageBackend.RecordResult(res); err != nil {
			return fmt.Errorf("recording result: %w", err)
		}
	}
	for _, call := range calls {
		if err := storageBackend.RecordDrawCall(call); err != nil {
			return fmt.Errorf("recording draw call: %w", err)
		}
	}
	if err := storageBackend.EndBatch(); err != nil {
		return fmt.Errorf("ending batch: %w", err)
	}

	up, ok := storageBackend.(storage.Uploadable)
	if !ok || up.GetExportedFilePath() == "" {
		return nil
	}
	Logger.Info("Scene artifact exported", "path", up.GetExportedFilePath())

	apiKey := config.GetString("api.apiKey")
	if apiKey == "" {
		return nil
	}

	client := api.New(config.GetString("api.serverUrl"), apiKey)
	if err := client.Healthcheck(); err != nil {
		Logger.Info("Collection endpoint is offline, keeping local artifact", "error", err)
		return nil
	}
	if err := client.Upload(up.GetExportedFilePath(), up.GetExportMetadata()); err != nil {
		return fmt.Errorf("uploading scene artifact: %w", err)
	}
	Logger.Info("Scene artifact uploaded", "endpoint", config.GetString("api.serverUrl"))
	return nil
}

// writeDrawCalls emits the recorded calls as JSON, the output consumers
// script against. Logs stay out of stdout so piping it is safe.
func writeDrawCalls(path string, calls []render.DrawCall) error {
	if path == "" || path == "-" {
		return json.NewEncoder(os.Stdout).Encode(calls)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(calls); err != nil {
		return err
	}
	Logger.Info("Wrote draw calls", "path", path, "calls", len(calls))
	return nil
}

// writeKML writes fitted frames as a lon/lat overlay for map inspection.
// Inputs that arrived already projected carry no reference back to lon/lat,
// so there is nothing to write.
func writeKML(path string, results []pipeline.Result) {
	ref := BatchContext.GetRef()
	if ref == nil {
		Logger.Warn("Input was already projected, skipping KML overlay", "path", path)
		return
	}
	if err := export.WriteKMLFile(path, results, *ref); err != nil {
		Logger.Error("Failed to write KML overlay", "error", err, "path", path)
		return
	}
	Logger.Info("Wrote KML overlay", "path", path)
}

// writePreview rasterizes the recorded draw calls into a top-down WebP.
func writePreview(path string, calls []render.DrawCall) error {
	img := raster.Render(calls, config.GetInt("preview.size"))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return nativewebp.Encode(f, img, nil)
}
