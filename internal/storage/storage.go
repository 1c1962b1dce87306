// internal/storage/storage.go
package storage

import (
	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// Backend collects everything one batch produces: the fit result for
// each area and the draw calls the renderer derives from it. Init runs
// once before the first batch, Close after the last.
type Backend interface {
	Init() error
	Close() error

	StartBatch(info core.SceneInfo) error
	EndBatch() error

	RecordResult(res pipeline.Result) error
	RecordDrawCall(call render.DrawCall) error
}

// Uploadable is implemented by backends whose EndBatch leaves a file
// behind that the collection API can ingest.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
