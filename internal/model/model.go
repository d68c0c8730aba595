package model

import "io"

// Cursor reads bytes sequentially from a ByteSource starting at a fixed
// offset. It is the minimal contract the decoder needs from random-access
// byte storage; the storage itself (file-backed, memory-backed, ...) is an
// external collaborator, not part of this package.
type Cursor interface {
	io.Reader
	io.ByteReader

	// Skip advances the cursor by n bytes without returning them. It fails
	// with ErrIO if fewer than n bytes remain.
	Skip(n int) error
}

// DisposalMethod is the post-display treatment of a frame's sub-rectangle,
// applied after the frame has been observed and before the next frame is
// composited.
type DisposalMethod int

const (
	// DisposalUnspecified leaves the canvas as-is. The reserved packed-byte
	// values (4-7) carry no defined meaning; they are kept as parsed and the
	// compositor treats them like DisposalUnspecified.
	DisposalUnspecified DisposalMethod = 0
	// DisposalDoNotDispose leaves the canvas as-is, identically to Unspecified,
	// but is recorded distinctly because it is a different packed-byte value.
	DisposalDoNotDispose DisposalMethod = 1
	// DisposalRestoreToBackground fills the sub-rectangle with the background
	// color, or with transparent black when the background cannot be resolved.
	DisposalRestoreToBackground DisposalMethod = 2
	// DisposalRestoreToPrevious restores the sub-rectangle from the canvas
	// snapshot taken immediately before this frame was applied.
	DisposalRestoreToPrevious DisposalMethod = 3
)

// Color is an opaque RGB triple from a color table.
type Color struct {
	R, G, B uint8
}

// ColorTable is an ordered palette of up to 256 colors, indexed 0..n-1.
type ColorTable []Color

// ARGB packs c as 0xFFRRGGBB (fully opaque).
func (c Color) ARGB() uint32 {
	return 0xFF000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// FrameDescriptor records everything the engine needs to re-decode and
// composite one animation frame without re-scanning the whole stream.
type FrameDescriptor struct {
	Index      int
	ByteOffset int64 // absolute offset of the frame's image descriptor (0x2C byte)

	Left, Top, Width, Height int

	Disposal              DisposalMethod
	HasTransparentColor   bool
	TransparentColorIndex int
	Duration              int // milliseconds
	Timestamp             int // milliseconds, cumulative sum of prior durations

	UsesLocalColorTable bool
	LocalColorTable     ColorTable // nil when UsesLocalColorTable is false

	// Interlaced marks a frame whose LZW index stream is arranged in
	// four-pass interlace order rather than top-to-bottom row order.
	Interlaced bool

	IsKeyframe bool

	// CachedARGB holds a pre-composited full-canvas snapshot, populated only
	// for frames at multiples of the configured cache interval.
	CachedARGB []uint32
}

// ColorTableFor returns the color table that resolves for this frame: the
// local table if present, else the supplied global table.
func (f *FrameDescriptor) ColorTableFor(global ColorTable) ColorTable {
	if f.UsesLocalColorTable {
		return f.LocalColorTable
	}
	return global
}

// CoversScreen reports whether the frame's sub-rectangle fully covers a
// logical screen of the given dimensions.
func (f *FrameDescriptor) CoversScreen(width, height int) bool {
	return f.Left == 0 && f.Top == 0 && f.Width == width && f.Height == height
}

// StreamMetadata is the stream-level information gathered during the
// single build-time pass.
type StreamMetadata struct {
	Width, Height        int
	LoopCount            int // 0 means infinite; 1 is the default when no NETSCAPE2.0 extension is present
	BackgroundColorIndex int
	GlobalColorTable     ColorTable
	FrameCount           int
	Duration             int // milliseconds, sum of all frame durations

	// Comments holds the text of every comment extension encountered,
	// in stream order, regardless of which frame (if any) follows them.
	Comments []string
}
