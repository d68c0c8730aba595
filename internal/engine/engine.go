// Package engine ties the stream parser, LZW decoder and canvas compositor
// together into the operations the public decoder needs: a single forward
// Build pass that indexes every frame without fully decoding most of them,
// a DecodeRange replay that reconstructs the composited canvas at an
// arbitrary frame by resuming from the nearest keyframe or cached
// snapshot, and a Sequence pass for in-order iteration. Index build and
// random access live in one package because both drive the same
// frame-by-frame replay routine.
package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/deepteams/gif/internal/canvas"
	"github.com/deepteams/gif/internal/model"
	"github.com/deepteams/gif/internal/pool"
	"github.com/deepteams/gif/internal/source"
	"github.com/deepteams/gif/internal/stream"
)

// DefaultCacheFrameInterval is the conventional cache interval for callers
// without a specific tuning need.
const DefaultCacheFrameInterval = 50

// Index is the fully built, serializable frame index for a stream: its
// metadata plus every frame's descriptor. It is everything needed to
// service random-access reads without re-scanning the container.
type Index struct {
	Metadata *model.StreamMetadata
	Frames   []*model.FrameDescriptor
}

// Build performs the single forward pass over src that produces an Index:
// it parses every container record, decoding LZW pixel data only for
// non-keyframes that land on a cache_frame_interval boundary, where it
// replays every frame since the last keyframe or cache point to
// materialize a synthetic cached canvas snapshot for later random access.
// Keyframes and all other frames are indexed structurally only — their
// byte offset, rectangle, disposal and transparency — and decoded lazily
// on demand by DecodeRange.
func Build(src source.ByteSource, cacheFrameInterval int) (*Index, error) {
	if cacheFrameInterval <= 0 {
		return nil, fmt.Errorf("engine: %w: cache frame interval %d, must be positive", model.ErrInvalidArgument, cacheFrameInterval)
	}

	cursor, err := src.Read()
	if err != nil {
		return nil, err
	}

	p := stream.NewAtStart(cursor)
	if _, err := p.ParseHeader(); err != nil {
		return nil, err
	}
	lsdRec, err := p.ParseLogicalScreenDescriptor()
	if err != nil {
		return nil, err
	}
	lsd := lsdRec.LSD

	meta := &model.StreamMetadata{
		Width:                lsd.Width,
		Height:               lsd.Height,
		LoopCount:            1,
		BackgroundColorIndex: lsd.BackgroundColorIndex,
		GlobalColorTable:     lsd.GlobalColorTable,
	}

	var frames []*model.FrameDescriptor
	var pendingGCE *stream.GraphicControlExtension

	// anchorIndex/anchorSeed track the nearest frame the canvas can be
	// cheaply reconstructed from: either a keyframe (anchorSeed nil, decode
	// starting at anchorIndex itself) or a cache point (anchorSeed holds its
	// snapshot, decode starting at anchorIndex+1).
	anchorIndex := -1
	var anchorSeed []uint32

	for {
		rec, err := p.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("stream: %w: unterminated GIF stream", model.ErrCorrupt)
			}
			return nil, err
		}

		switch rec.Kind {
		case stream.RecordTrailer:
			meta.FrameCount = len(frames)
			return &Index{Metadata: meta, Frames: frames}, nil

		case stream.RecordApplicationExtension:
			if rec.Application.IsNetscapeLoop {
				meta.LoopCount = rec.Application.LoopCount
			}

		case stream.RecordCommentExtension:
			meta.Comments = append(meta.Comments, rec.Comment.Text)

		case stream.RecordGraphicControlExtension:
			gce := rec.GCE
			pendingGCE = &gce

		case stream.RecordPlainTextExtension:
			// Plain text extensions also consume the pending GCE per the
			// grammar (they are graphic-rendering blocks), but this decoder
			// does not rasterize their text grid onto the canvas.
			pendingGCE = nil

		case stream.RecordImageDescriptor:
			img := rec.Image
			fd := &model.FrameDescriptor{
				Index:               len(frames),
				ByteOffset:          img.ByteOffset,
				Left:                img.Left,
				Top:                 img.Top,
				Width:               img.Width,
				Height:              img.Height,
				UsesLocalColorTable: img.HasLocalColorTable,
				LocalColorTable:     img.LocalColorTable,
				Interlaced:          img.Interlaced,
			}
			if pendingGCE != nil {
				fd.Disposal = pendingGCE.Disposal
				fd.HasTransparentColor = pendingGCE.HasTransparentColor
				fd.TransparentColorIndex = pendingGCE.TransparentColorIndex
				delay := pendingGCE.DelayTime
				if delay == 0 {
					// Conventional browser behavior: a zero delay is raised
					// to 100ms rather than played back-to-back at full speed.
					delay = 10
				}
				fd.Duration = delay * 10
			}
			pendingGCE = nil

			if fd.Left < 0 || fd.Top < 0 || fd.Left+fd.Width > lsd.Width || fd.Top+fd.Height > lsd.Height {
				return nil, fmt.Errorf("engine: %w: frame %d rectangle (%d,%d,%d,%d) outside %dx%d logical screen",
					model.ErrCorrupt, fd.Index, fd.Left, fd.Top, fd.Width, fd.Height, lsd.Width, lsd.Height)
			}
			if !fd.UsesLocalColorTable && meta.GlobalColorTable == nil {
				return nil, fmt.Errorf("engine: %w: frame %d has no local color table and stream has no global color table",
					model.ErrCorrupt, fd.Index)
			}

			fd.Timestamp = meta.Duration
			meta.Duration += fd.Duration

			fd.IsKeyframe = fd.Index == 0 ||
				(fd.CoversScreen(lsd.Width, lsd.Height) && !fd.HasTransparentColor)

			needsCache := fd.Index != 0 && fd.Index%cacheFrameInterval == 0 && !fd.IsKeyframe

			switch {
			case fd.IsKeyframe:
				// A keyframe needs no eager decode: its own data is cheap
				// to decode lazily whenever it is later used as a replay
				// anchor, since replaying "from" a keyframe means decoding
				// just that one frame from a blank canvas.
				if err := p.SkipImageData(); err != nil {
					return nil, err
				}
				anchorIndex, anchorSeed = fd.Index, nil

			case needsCache:
				// The frames strictly between the last anchor and fd were
				// only indexed, not decoded; replay them now to materialize
				// this cache point's snapshot.
				frames = append(frames, fd)
				_, disposed, err := replay(src, &lsd, frames, anchorIndex, anchorSeed, fd.Index)
				if err != nil {
					return nil, err
				}
				if err := p.SkipImageData(); err != nil {
					return nil, err
				}
				// The cache point must seed replays of later frames, which
				// start their own Compose from fd's post-disposal state, not
				// the canvas as fd itself was displayed.
				fd.CachedARGB = disposed
				anchorIndex, anchorSeed = fd.Index, disposed
				continue

			default:
				if err := p.SkipImageData(); err != nil {
					return nil, err
				}
			}

			frames = append(frames, fd)
		}
	}
}

// Probe performs a cheap structural-only scan of src: it parses every
// record but never decodes LZW pixel data, returning just the stream
// metadata (dimensions, loop count, frame count, total duration). It is
// far cheaper than Build for callers that only need to know whether a
// file is a usable GIF and how big its animation is.
func Probe(src source.ByteSource) (*model.StreamMetadata, error) {
	cursor, err := src.Read()
	if err != nil {
		return nil, err
	}
	p := stream.NewAtStart(cursor)
	if _, err := p.ParseHeader(); err != nil {
		return nil, err
	}
	lsdRec, err := p.ParseLogicalScreenDescriptor()
	if err != nil {
		return nil, err
	}
	lsd := lsdRec.LSD

	meta := &model.StreamMetadata{
		Width:                lsd.Width,
		Height:               lsd.Height,
		LoopCount:            1,
		BackgroundColorIndex: lsd.BackgroundColorIndex,
		GlobalColorTable:     lsd.GlobalColorTable,
	}

	var pendingDelay int
	for {
		rec, err := p.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("stream: %w: unterminated GIF stream", model.ErrCorrupt)
			}
			return nil, err
		}
		switch rec.Kind {
		case stream.RecordTrailer:
			return meta, nil
		case stream.RecordApplicationExtension:
			if rec.Application.IsNetscapeLoop {
				meta.LoopCount = rec.Application.LoopCount
			}
		case stream.RecordCommentExtension:
			meta.Comments = append(meta.Comments, rec.Comment.Text)
		case stream.RecordGraphicControlExtension:
			delay := rec.GCE.DelayTime
			if delay == 0 {
				delay = 10
			}
			pendingDelay = delay * 10
		case stream.RecordPlainTextExtension:
			// Consumes the pending GCE, as in Build.
			pendingDelay = 0
		case stream.RecordImageDescriptor:
			meta.FrameCount++
			meta.Duration += pendingDelay
			pendingDelay = 0
			if err := p.SkipImageData(); err != nil {
				return nil, err
			}
		}
	}
}

// backgroundARGB resolves the logical screen descriptor's background color
// index against the global color table, falling back to transparent black
// when there is no global table or the index is out of range.
func backgroundARGB(lsd stream.LogicalScreenDescriptor) uint32 {
	if lsd.GlobalColorTable != nil && lsd.BackgroundColorIndex < len(lsd.GlobalColorTable) {
		return lsd.GlobalColorTable[lsd.BackgroundColorIndex].ARGB()
	}
	return 0
}

// DecodeRange reconstructs the composited ARGB canvas as of frame index
// target, replaying from the nearest prior keyframe or cached snapshot.
func DecodeRange(src source.ByteSource, meta *model.StreamMetadata, frames []*model.FrameDescriptor, target int) ([]uint32, error) {
	if target < 0 || target >= len(frames) {
		return nil, fmt.Errorf("engine: %w: frame %d", model.ErrOutOfRange, target)
	}
	anchorIndex, seed := findAnchor(frames, target)
	displayed, _, err := replay(src, metaAsLSD(meta), frames, anchorIndex, seed, target)
	return displayed, err
}

// replay decodes frames[start..target] in order and composites them onto a
// canvas seeded from anchorSeed (or reset to blank when anchorSeed is nil,
// in which case anchorIndex itself — a keyframe — is included in the
// decoded range). It returns two canvases for the target frame: displayed is
// the canvas as a viewer would see it (composed but not yet disposed, per
// the composed-then-emitted-then-disposed ordering), and disposed is the
// canvas after target's own disposal has run, which is what a later replay
// must resume from. It is shared by Build's cache-point materialization
// (which wants disposed) and DecodeRange's random-access reads (which want
// displayed).
func replay(src source.ByteSource, lsd *stream.LogicalScreenDescriptor, frames []*model.FrameDescriptor, anchorIndex int, anchorSeed []uint32, target int) (displayed, disposed []uint32, err error) {
	comp := canvas.New(lsd.Width, lsd.Height, backgroundARGB(*lsd))
	start := anchorIndex
	if anchorSeed != nil {
		comp.Seed(anchorSeed)
		start = anchorIndex + 1
	} else {
		comp.Reset()
	}

	for i := start; i <= target; i++ {
		fd := frames[i]
		buf := pool.Get(fd.Width * fd.Height)
		indices, err := decodeFrameInto(src, fd, buf)
		if err != nil {
			pool.Put(buf)
			return nil, nil, err
		}
		out := comp.Compose(fd, indices, fd.ColorTableFor(lsd.GlobalColorTable))
		pool.Put(indices)
		if i == target {
			displayed = out
		}
		comp.Dispose()
	}

	return displayed, comp.Snapshot(), nil
}

// Sequence is a sequential decode pass over all frames, sharing one
// canvas for the whole run instead of replaying from an anchor for every
// frame the way DecodeRange does. It backs the public frame iterator.
type Sequence struct {
	src    source.ByteSource
	lsd    *stream.LogicalScreenDescriptor
	frames []*model.FrameDescriptor
	comp   *canvas.Compositor
	next   int
}

// NewSequence creates a Sequence positioned before frame 0.
func NewSequence(src source.ByteSource, meta *model.StreamMetadata, frames []*model.FrameDescriptor) *Sequence {
	lsd := metaAsLSD(meta)
	comp := canvas.New(lsd.Width, lsd.Height, backgroundARGB(*lsd))
	comp.Reset()
	return &Sequence{src: src, lsd: lsd, frames: frames, comp: comp}
}

// Next decodes and composites the next frame in order, returning its index
// and displayed canvas. It returns io.EOF after the last frame.
func (s *Sequence) Next() (int, []uint32, error) {
	if s.next >= len(s.frames) {
		return 0, nil, io.EOF
	}
	fd := s.frames[s.next]
	buf := pool.Get(fd.Width * fd.Height)
	indices, err := decodeFrameInto(s.src, fd, buf)
	if err != nil {
		pool.Put(buf)
		return 0, nil, err
	}
	displayed := s.comp.Compose(fd, indices, fd.ColorTableFor(s.lsd.GlobalColorTable))
	pool.Put(indices)
	s.comp.Dispose()
	i := s.next
	s.next++
	return i, displayed, nil
}

// findAnchor locates the nearest frame at or before target that is either
// a keyframe (decode from blank canvas starting there) or carries a cached
// snapshot (seed the canvas and decode starting just after it). A cached
// snapshot qualifies only strictly before target: it holds the
// post-disposal canvas, so the target frame itself must still be decoded
// and composed to produce its displayed pixels.
func findAnchor(frames []*model.FrameDescriptor, target int) (anchorIndex int, seed []uint32) {
	for i := target; i >= 0; i-- {
		if i < target && frames[i].CachedARGB != nil {
			return i, frames[i].CachedARGB
		}
		if frames[i].IsKeyframe {
			return i, nil
		}
	}
	return 0, nil
}

// metaAsLSD adapts the already-built StreamMetadata back into the
// LogicalScreenDescriptor shape replay expects, so DecodeRange (which only
// has the final Index, not the original parser state) can share it.
func metaAsLSD(meta *model.StreamMetadata) *stream.LogicalScreenDescriptor {
	return &stream.LogicalScreenDescriptor{
		Width:                meta.Width,
		Height:               meta.Height,
		BackgroundColorIndex: meta.BackgroundColorIndex,
		GlobalColorTable:     meta.GlobalColorTable,
	}
}

// decodeFrameInto re-parses a single frame's image descriptor at its
// recorded byte offset and decodes its LZW data, reusing buf when it has
// sufficient capacity, letting callers pool index buffers across frames.
func decodeFrameInto(src source.ByteSource, fd *model.FrameDescriptor, buf []byte) ([]byte, error) {
	cursor, err := src.ReadAt(fd.ByteOffset)
	if err != nil {
		return nil, err
	}
	p := stream.NewAt(cursor, fd.ByteOffset)
	rec, err := p.Next()
	if err != nil {
		return nil, err
	}
	if rec.Kind != stream.RecordImageDescriptor {
		return nil, fmt.Errorf("engine: %w: byte offset %d is not an image descriptor", model.ErrCorrupt, fd.ByteOffset)
	}
	return p.DecodeImageDataInto(&rec.Image, buf)
}
