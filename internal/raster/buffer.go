package raster

// FrameBuffer holds the rendering target as a flat RGBA slice for cache
// locality. Pitches are ground decals viewed straight down, so draw calls
// composite in submission order and no depth buffer is kept.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8 // RGBA interleaved, len = W*H*4
}

// NewFrameBuffer allocates a zeroed, fully transparent buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
	}
}
