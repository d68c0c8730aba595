package gif

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/deepteams/gif/internal/engine"
	"github.com/deepteams/gif/internal/model"
)

// DefaultCacheFrameInterval is the conventional cache_frame_interval for
// Open: every 50th frame gets a materialized full-canvas snapshot to bound
// random-access replay cost.
const DefaultCacheFrameInterval = engine.DefaultCacheFrameInterval

// FrameInfo is the lightweight per-frame metadata returned by FrameInfos,
// without decoding any pixel data.
type FrameInfo struct {
	Duration  int // milliseconds
	Timestamp int // milliseconds, cumulative sum of prior durations
}

// ImageFrame is one fully composited animation frame.
type ImageFrame struct {
	Index     int
	ARGB      []uint32 // row-major, width*height, one packed 0xAARRGGBB per pixel
	Width     int
	Height    int
	Duration  int // milliseconds
	Timestamp int // milliseconds
}

// Decoder provides random-access and sequential playback of one GIF
// stream. It is built once via Open from a full single pass over the
// stream, then serves reads by replaying from the nearest keyframe or
// cached snapshot. A Decoder is not safe for concurrent use: callers
// sharing one across goroutines must synchronize externally. Decoders
// over independent sources are independent.
type Decoder struct {
	src    ByteSource
	meta   *model.StreamMetadata
	frames []*model.FrameDescriptor
	closed bool
}

// Open builds a Decoder by performing one forward pass over src.
// cacheFrameInterval controls how often a full-canvas snapshot is
// materialized for random access; it must be positive (Open fails with
// ErrInvalidArgument otherwise), and DefaultCacheFrameInterval is a
// reasonable choice for callers without a specific tuning need.
func Open(src ByteSource, cacheFrameInterval int) (*Decoder, error) {
	idx, err := engine.Build(src, cacheFrameInterval)
	if err != nil {
		return nil, err
	}
	return &Decoder{src: src, meta: idx.Metadata, frames: idx.Frames}, nil
}

// Close releases the underlying ByteSource. After Close, ReadFrame,
// ReadFrameAtTime and FrameIterator.Next fail with ErrClosed. The metadata
// accessors (Width, Height, FrameCount, Duration, LoopCount, Comments,
// BackgroundColor, FrameInfos) return no error and keep reporting the values
// read by Open. A second Close returns nil.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.src.Close()
}

func (d *Decoder) checkOpen() error {
	if d.closed {
		return ErrClosed
	}
	return nil
}

// Width returns the logical screen width in pixels.
func (d *Decoder) Width() int { return d.meta.Width }

// Height returns the logical screen height in pixels.
func (d *Decoder) Height() int { return d.meta.Height }

// FrameCount returns the total number of frames in the stream.
func (d *Decoder) FrameCount() int { return d.meta.FrameCount }

// Duration returns the sum of all frame durations, in milliseconds.
func (d *Decoder) Duration() int { return d.meta.Duration }

// LoopCount returns the animation's loop count: 0 means infinite, 1 means
// play once (the default when no NETSCAPE2.0 application extension is
// present), and any other value is the exact number of times to play.
func (d *Decoder) LoopCount() int { return d.meta.LoopCount }

// Comments returns the text of every comment extension found in the
// stream, in stream order.
func (d *Decoder) Comments() []string { return d.meta.Comments }

// BackgroundColor resolves the logical screen descriptor's background
// color index against the global color table. ok is false when the
// stream has no global color table or the index is out of range.
func (d *Decoder) BackgroundColor() (r, g, b uint8, ok bool) {
	gct := d.meta.GlobalColorTable
	idx := d.meta.BackgroundColorIndex
	if gct == nil || idx < 0 || idx >= len(gct) {
		return 0, 0, 0, false
	}
	c := gct[idx]
	return c.R, c.G, c.B, true
}

// FrameInfos returns the duration and cumulative timestamp of every frame,
// without decoding any pixel data.
func (d *Decoder) FrameInfos() []FrameInfo {
	out := make([]FrameInfo, len(d.frames))
	for i, fd := range d.frames {
		out[i] = FrameInfo{Duration: fd.Duration, Timestamp: fd.Timestamp}
	}
	return out
}

// ReadFrame decodes and returns the fully composited frame at index i,
// replaying from the nearest prior keyframe or cached snapshot.
func (d *Decoder) ReadFrame(i int) (*ImageFrame, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if len(d.frames) == 0 {
		return nil, fmt.Errorf("gif: %w", ErrEmpty)
	}
	if i < 0 || i >= len(d.frames) {
		return nil, fmt.Errorf("gif: %w: frame %d (have %d)", ErrOutOfRange, i, len(d.frames))
	}

	argb, err := engine.DecodeRange(d.src, d.meta, d.frames, i)
	if err != nil {
		return nil, err
	}
	fd := d.frames[i]
	return &ImageFrame{
		Index:     i,
		ARGB:      argb,
		Width:     d.meta.Width,
		Height:    d.meta.Height,
		Duration:  fd.Duration,
		Timestamp: fd.Timestamp,
	}, nil
}

// ReadFrameAtTime returns the frame whose display window contains
// timestampMs: the last frame whose Timestamp is <= timestampMs. It fails
// with ErrInvalidArgument when timestampMs is negative or exceeds
// Duration, and resolves via binary search over the monotonically
// non-decreasing frame timestamps.
func (d *Decoder) ReadFrameAtTime(timestampMs int) (*ImageFrame, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if len(d.frames) == 0 {
		return nil, fmt.Errorf("gif: %w", ErrEmpty)
	}
	if timestampMs < 0 {
		return nil, fmt.Errorf("gif: %w: negative timestamp %d", ErrInvalidArgument, timestampMs)
	}
	if timestampMs > d.meta.Duration {
		return nil, fmt.Errorf("gif: %w: timestamp %d exceeds duration %d", ErrInvalidArgument, timestampMs, d.meta.Duration)
	}

	i := sort.Search(len(d.frames), func(i int) bool {
		return d.frames[i].Timestamp > timestampMs
	}) - 1
	if i < 0 {
		i = 0
	}
	return d.ReadFrame(i)
}

// FrameIterator is a stateful sequential reader over a Decoder's frames.
// Unlike repeated ReadFrame calls, the whole iteration shares one
// composition pass: each Next decodes exactly one more frame onto the
// running canvas. To restart from frame 0, call Iterate again.
type FrameIterator struct {
	d       *Decoder
	seq     *engine.Sequence
	current *ImageFrame
	err     error
}

// Iterate returns a new FrameIterator positioned before the first frame.
func (d *Decoder) Iterate() *FrameIterator {
	return &FrameIterator{d: d, seq: engine.NewSequence(d.src, d.meta, d.frames)}
}

// Next advances to the next frame and reports whether one was available.
func (it *FrameIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if err := it.d.checkOpen(); err != nil {
		it.err = err
		return false
	}
	i, argb, err := it.seq.Next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	fd := it.d.frames[i]
	it.current = &ImageFrame{
		Index:     i,
		ARGB:      argb,
		Width:     it.d.meta.Width,
		Height:    it.d.meta.Height,
		Duration:  fd.Duration,
		Timestamp: fd.Timestamp,
	}
	return true
}

// Frame returns the frame produced by the most recent call to Next.
func (it *FrameIterator) Frame() *ImageFrame { return it.current }

// Err returns the first error encountered by Next, if any.
func (it *FrameIterator) Err() error { return it.err }
