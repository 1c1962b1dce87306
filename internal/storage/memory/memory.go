// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/osm3d/pitchmark/internal/config"
	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// Backend keeps one batch in memory and writes the scene artifact when
// the batch ends. Recording is safe for concurrent use; the export runs
// under the same lock, so an artifact never sees a half-recorded batch.
type Backend struct {
	cfg config.MemoryConfig

	info    core.SceneInfo
	results []pipeline.Result
	calls   []render.DrawCall
	endedAt time.Time

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a backend exporting into cfg.OutputDir
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init is a no-op, the collections grow on demand
func (b *Backend) Init() error {
	return nil
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}

// StartBatch drops whatever a previous batch left behind and begins a
// new scene. A zero StartTime is stamped with the current time.
func (b *Backend) StartBatch(info core.SceneInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if info.StartTime.IsZero() {
		info.StartTime = time.Now()
	}
	b.reset(info)
	return nil
}

func (b *Backend) reset(info core.SceneInfo) {
	b.info = info
	b.results = nil
	b.calls = nil
	b.endedAt = time.Time{}
	b.lastExportPath = ""
}

// EndBatch stamps the end time and exports the scene artifact
func (b *Backend) EndBatch() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.info.StartTime.IsZero() {
		return errors.New("no batch to end")
	}
	b.endedAt = time.Now()
	return b.exportJSON()
}

// RecordResult appends one area outcome
func (b *Backend) RecordResult(res pipeline.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, res)
	return nil
}

// RecordDrawCall appends one renderer draw call
func (b *Backend) RecordDrawCall(call render.DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	return nil
}

// ResultCount reports how many area outcomes are recorded
func (b *Backend) ResultCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.results)
}

// DrawCallCount reports how many draw calls are recorded
func (b *Backend) DrawCallCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.calls)
}

// GetExportedFilePath returns the artifact written by the last EndBatch,
// or "" before the first export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last artifact for the collection API
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := core.UploadMetadata{
		Source:    b.info.Source,
		Tag:       b.info.Tag,
		AreaCount: len(b.results),
	}
	if !b.info.StartTime.IsZero() && b.endedAt.After(b.info.StartTime) {
		meta.DurationSec = b.endedAt.Sub(b.info.StartTime).Seconds()
	}
	return meta
}
