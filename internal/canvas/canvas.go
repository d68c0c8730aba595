// Package canvas reconstructs the composited ARGB canvas for a sequence of
// GIF frames, honoring each frame's disposal method and transparent color
// index. It keeps two buffers: the current canvas, and a snapshot of the
// canvas before the most recent draw, which backs the "restore to
// previous" disposal method.
package canvas

import (
	"github.com/deepteams/gif/internal/model"
	"github.com/deepteams/gif/internal/pool"
)

// Compositor reconstructs one canvas frame at a time. Create one per
// decode pass (a full sequential decode or a keyframe-to-target replay);
// it is not safe for concurrent use.
type Compositor struct {
	width, height int
	background    uint32

	curr []uint32 // canvas as of the most recently composed frame
	prev []uint32 // snapshot taken before the previous Compose, for RestoreToPrevious

	prevDisposal model.DisposalMethod
	pending      *model.FrameDescriptor // composed but not yet disposed
}

// New creates a Compositor for a canvas of the given dimensions. backgroundARGB
// is used to fill restored-to-background regions.
func New(width, height int, backgroundARGB uint32) *Compositor {
	return &Compositor{
		width:      width,
		height:     height,
		background: backgroundARGB,
		curr:       pool.GetUint32(width * height),
		prev:       pool.GetUint32(width * height),
	}
}

// Reset clears the canvas to transparent black and forgets disposal state,
// as happens before decoding frame 0 or any other keyframe.
func (c *Compositor) Reset() {
	for i := range c.curr {
		c.curr[i] = 0
	}
	c.prevDisposal = model.DisposalUnspecified
	c.pending = nil
}

// Seed installs argb as the current canvas verbatim, used when resuming
// from a cached full-canvas snapshot rather than a blank keyframe.
func (c *Compositor) Seed(argb []uint32) {
	copy(c.curr, argb)
	c.prevDisposal = model.DisposalUnspecified
	c.pending = nil
}

// Snapshot returns a copy of the current composited canvas.
func (c *Compositor) Snapshot() []uint32 {
	out := pool.GetUint32(len(c.curr))
	copy(out, c.curr)
	return out
}

// Compose draws one frame's decoded indices onto the canvas and returns the
// resulting pixels — the canvas exactly as a viewer would display it for
// this frame. It does not perform the frame's disposal; callers that need
// to advance to another frame afterward must call Dispose first, per
// spec's apply-then-emit-then-dispose ordering. indices covers the frame's
// own Width x Height sub-rectangle in decode order (top to bottom, or
// four-pass order for an interlaced frame), resolved through table.
func (c *Compositor) Compose(f *model.FrameDescriptor, indices []byte, table model.ColorTable) []uint32 {
	// RestoreToPrevious needs the canvas as it stood before this frame was
	// drawn. Only take a fresh snapshot when the previous frame didn't
	// itself leave that state in c.prev (i.e. wasn't also RestoreToPrevious,
	// which already preserved the pre-previous-frame state it restored).
	if c.prevDisposal != model.DisposalRestoreToPrevious {
		copy(c.prev, c.curr)
	}

	c.draw(f, indices, table)
	c.pending = f
	return c.Snapshot()
}

// Dispose performs the disposal of the frame most recently passed to
// Compose, transitioning the canvas to the state the next frame's Compose
// should start from. It is a no-op if Compose has not been called since
// the last Dispose, Reset or Seed.
func (c *Compositor) Dispose() {
	f := c.pending
	if f == nil {
		return
	}

	switch f.Disposal {
	case model.DisposalRestoreToBackground:
		bg := c.background
		if f.UsesLocalColorTable {
			// The GIF89a spec doesn't say which palette a local-color-table
			// frame's background fill should resolve against; this decoder
			// follows the widely-compatible browser behavior of leaving the
			// region transparent rather than guessing.
			bg = 0
		}
		c.fillRect(f.Left, f.Top, f.Width, f.Height, bg)
	case model.DisposalRestoreToPrevious:
		c.restoreRect(f.Left, f.Top, f.Width, f.Height)
	case model.DisposalUnspecified, model.DisposalDoNotDispose:
		// Canvas left as-is.
	default:
		// Reserved values behave as Unspecified.
	}

	c.prevDisposal = f.Disposal
	c.pending = nil
}

// draw paints indices over the canvas, skipping pixels equal to the
// frame's transparent color index. indices is always laid out in the
// order rows were decoded; for an interlaced frame that is the GIF
// four-pass order, not top-to-bottom, so interlaceRowOrder maps decode
// order back to scanline position.
func (c *Compositor) draw(f *model.FrameDescriptor, indices []byte, table model.ColorTable) {
	var rowOrder []int
	if f.Interlaced {
		rowOrder = interlaceRowOrder(f.Height)
	}
	for row := 0; row < f.Height; row++ {
		scanline := row
		if rowOrder != nil {
			scanline = rowOrder[row]
		}
		y := f.Top + scanline
		if y < 0 || y >= c.height {
			continue
		}
		rowOff := row * f.Width
		for col := 0; col < f.Width; col++ {
			x := f.Left + col
			if x < 0 || x >= c.width {
				continue
			}
			idx := indices[rowOff+col]
			if f.HasTransparentColor && int(idx) == f.TransparentColorIndex {
				continue
			}
			if int(idx) >= len(table) {
				continue
			}
			c.curr[y*c.width+x] = table[idx].ARGB()
		}
	}
}

// interlaceRowOrder returns, for a frame of the given height, the scanline
// each sequential decoded row maps to under the GIF89a four-pass interlace
// scheme (Appendix E of the 89a spec): every 8th row starting at 0, then
// every 8th starting at 4, then every 4th starting at 2, then every other
// row starting at 1.
func interlaceRowOrder(height int) []int {
	order := make([]int, 0, height)
	for y := 0; y < height; y += 8 {
		order = append(order, y)
	}
	for y := 4; y < height; y += 8 {
		order = append(order, y)
	}
	for y := 2; y < height; y += 4 {
		order = append(order, y)
	}
	for y := 1; y < height; y += 2 {
		order = append(order, y)
	}
	return order
}

func (c *Compositor) fillRect(left, top, width, height int, argb uint32) {
	for row := 0; row < height; row++ {
		y := top + row
		if y < 0 || y >= c.height {
			continue
		}
		for col := 0; col < width; col++ {
			x := left + col
			if x < 0 || x >= c.width {
				continue
			}
			c.curr[y*c.width+x] = argb
		}
	}
}

func (c *Compositor) restoreRect(left, top, width, height int) {
	for row := 0; row < height; row++ {
		y := top + row
		if y < 0 || y >= c.height {
			continue
		}
		for col := 0; col < width; col++ {
			x := left + col
			if x < 0 || x >= c.width {
				continue
			}
			off := y*c.width + x
			c.curr[off] = c.prev[off]
		}
	}
}
