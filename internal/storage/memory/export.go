// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	v1 "github.com/osm3d/pitchmark/internal/storage/memory/scene/v1"
	"github.com/osm3d/pitchmark/internal/util"
)

// exportJSON writes the scene artifact into the output directory.
// Callers must hold the write lock.
func (b *Backend) exportJSON() error {
	export := v1.Build(&v1.SceneData{
		Info:    b.info,
		Results: b.results,
		Calls:   b.calls,
		EndTime: b.endedAt,
	})

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, b.artifactName())
	if err := writeArtifact(outputPath, b.cfg.CompressOutput, export); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

// artifactName derives the file name from the sanitized source and the
// batch start time, e.g. stadiums_20260301_120000.json.gz.
func (b *Backend) artifactName() string {
	name := util.SanitizeFilename(util.BaseNameNoExt(b.info.Source))
	if name == "" || name == "." {
		name = "scene"
	}

	ext := ".json"
	if b.cfg.CompressOutput {
		ext = ".json.gz"
	}
	return name + "_" + b.info.StartTime.Format("20060102_150405") + ext
}

func writeArtifact(path string, compress bool, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if compress {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}
	return json.NewEncoder(w).Encode(data)
}
