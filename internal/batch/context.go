// Package batch tracks the run currently flowing through the tool.
package batch

import (
	"log/slog"
	"sync"

	"github.com/osm3d/pitchmark/internal/geo"
	"github.com/osm3d/pitchmark/internal/model"
)

// Context holds the current batch row and the local projection reference
// of its input collection.
type Context struct {
	mu    sync.RWMutex
	Batch *model.BatchRecord
	Ref   *geo.LocalRef
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Batch: &model.BatchRecord{Source: "no input loaded"},
	}
}

// GetBatch returns the current batch
func (bc *Context) GetBatch() *model.BatchRecord {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.Batch
}

// GetRef returns the projection reference of the current input, nil when
// the input was already projected
func (bc *Context) GetRef() *geo.LocalRef {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.Ref
}

// SetBatch sets the current batch and projection reference
func (bc *Context) SetBatch(b *model.BatchRecord, ref *geo.LocalRef) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.Batch = b
	bc.Ref = ref
}

// LogAttrs supplies the dynamic attributes stamped onto every log record.
func (bc *Context) LogAttrs() []slog.Attr {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	attrs := []slog.Attr{slog.String("source", bc.Batch.Source)}
	if bc.Batch.ID != 0 {
		attrs = append(attrs, slog.Uint64("batch", uint64(bc.Batch.ID)))
	}
	if bc.Batch.Tag != "" {
		attrs = append(attrs, slog.String("tag", bc.Batch.Tag))
	}
	return attrs
}
