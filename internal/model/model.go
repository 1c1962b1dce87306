package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the catalog schema
var DatabaseModels = []interface{}{
	&RunInfo{},
	&BatchRecord{},
	&FrameRecord{},
	&PerfSample{},
}

var DatabaseModelsSQLite = []interface{}{
	&RunInfo{},
	&BatchRecord{},
	&FrameRecord{},
	&PerfSample{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// RunInfo identifies the tool instance that owns the catalog
type RunInfo struct {
	gorm.Model
	ToolName    string `json:"toolName" gorm:"size:127"` // primary key
	ToolVersion string `json:"toolVersion" gorm:"size:64"`
	Homepage    string `json:"homepage" gorm:"size:255"`
}

func (*RunInfo) TableName() string {
	return "run_infos"
}

func (r *RunInfo) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existing RunInfo
	err = db.Where("tool_name = ?", r.ToolName).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(r).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*r = existing
	return false, nil
}

// PerfSample is the model for batch performance metrics
type PerfSample struct {
	Time                time.Time    `json:"time" gorm:"type:timestamptz;index:idx_time"`
	BatchID             uint         `json:"batchId" gorm:"index:idx_perfsample_batch_id"`
	Batch               BatchRecord  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BatchID;"`
	QueueLengths        QueueLengths `json:"queueLengths" gorm:"embedded;embeddedPrefix:queue_"`
	AreasProcessed      uint32       `json:"areasProcessed"`
	LastWriteDurationMs float32      `json:"lastWriteDurationMs"`
}

func (*PerfSample) TableName() string {
	return "perf_samples"
}

// QueueLengths is the model for the batch pool queue lengths
type QueueLengths struct {
	Pending uint16 `json:"pending"`
	Results uint16 `json:"results"`
}

////////////////////////
// BATCH MODELS
////////////////////////

// BatchRecord is the main model for one processing run over an input collection
type BatchRecord struct {
	gorm.Model
	Source      string    `json:"source" gorm:"size:255"`
	Tag         string    `json:"tag" gorm:"size:127"`
	ToolVersion string    `json:"toolVersion" gorm:"size:64;default:1.0.0"`
	StartTime   time.Time `json:"startTime" gorm:"type:timestamptz;index:idx_batch_start"`
	DurationMs  float32   `json:"durationMs"`

	Totals BatchTotals `json:"totals" gorm:"embedded;embeddedPrefix:total_"`

	Frames      []FrameRecord
	PerfSamples []PerfSample
}

func (*BatchRecord) TableName() string {
	return "batches"
}

// BatchTotals shows per-outcome counts for a batch
type BatchTotals struct {
	Areas    uint32 `json:"areas"`
	Fitted   uint32 `json:"fitted"`
	Fallback uint32 `json:"fallback"`
	Skipped  uint32 `json:"skipped"`
	Failed   uint32 `json:"failed"`
}

// FrameRecord is one solved marking frame (or its fallback outcome) for a pitch area
type FrameRecord struct {
	ID           uint        `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time   `json:"time" gorm:"type:timestamptz;"` // Wall time when the area was processed
	BatchID      uint        `json:"batchId" gorm:"index:idx_framerecord_batch_id"`
	Batch        BatchRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BatchID;"`
	AreaID       int64       `json:"areaId" gorm:"index:idx_framerecord_area_id"` // OSM way/relation id of the footprint
	Sport        string      `json:"sport" gorm:"size:64"`
	State        string      `json:"state" gorm:"size:16;index:idx_framerecord_state"` // not-fitted, fitted, fallback

	Origin      geom.Point `json:"origin"`      // Frame origin corner in projected meters
	LongAxisX   float64    `json:"longAxisX"`   // Long edge vector from origin
	LongAxisY   float64    `json:"longAxisY"`
	ShortAxisX  float64    `json:"shortAxisX"`  // Short edge vector from origin
	ShortAxisY  float64    `json:"shortAxisY"`
	LongLength  float64    `json:"longLength"`  // Meters, zero unless fitted
	ShortLength float64    `json:"shortLength"`

	Corners     datatypes.JSON `json:"corners" gorm:"type:jsonb;default:'[]'"` // Frame corners CCW from origin
	VertexCount int            `json:"vertexCount"`                            // Footprint ring vertices
	ErrorText   string         `json:"errorText" gorm:"size:255"`              // Non-empty when processing failed
}

func (*FrameRecord) TableName() string {
	return "frame_records"
}
