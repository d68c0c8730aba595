// Package model holds the data types and sentinel errors shared by every
// stage of the decoder: the stream parser, the LZW decoder, the frame
// index builder and the canvas compositor.
package model

import "errors"

// Sentinel errors forming the decoder's error taxonomy. Every public
// operation's failure is one of these, possibly wrapped with additional
// context via fmt.Errorf's %w.
var (
	// ErrNotAGif is returned when the header does not match GIF87a or GIF89a.
	ErrNotAGif = errors.New("gif: not a GIF file")

	// ErrUnsupported is returned for a recognized but un-handleable variant,
	// such as an LZW minimum code size outside 1..8.
	ErrUnsupported = errors.New("gif: unsupported stream variant")

	// ErrCorrupt is returned for structural violations: truncated sub-blocks,
	// out-of-range LZW codes, sub-rectangles outside the logical screen, or a
	// frame with no resolvable color table.
	ErrCorrupt = errors.New("gif: corrupt stream")

	// ErrOutOfRange is returned when a frame index falls outside [0, frame_count).
	ErrOutOfRange = errors.New("gif: frame index out of range")

	// ErrInvalidArgument is returned for a negative or out-of-bounds timestamp,
	// or a non-positive cache interval.
	ErrInvalidArgument = errors.New("gif: invalid argument")

	// ErrEmpty is returned for an operation on a decoder with zero frames.
	ErrEmpty = errors.New("gif: stream has no frames")

	// ErrClosed is returned for any operation after Close.
	ErrClosed = errors.New("gif: decoder is closed")

	// ErrIO is returned when the underlying ByteSource fails.
	ErrIO = errors.New("gif: byte source error")
)
