package gif

import "github.com/deepteams/gif/internal/model"

// Errors returned by this package. Use errors.Is to test for these; actual
// errors are wrapped with additional context via fmt.Errorf's %w.
var (
	// ErrNotAGif is returned when the input does not begin with a
	// recognized GIF87a or GIF89a signature.
	ErrNotAGif = model.ErrNotAGif

	// ErrUnsupported is returned for a recognized but un-decodable stream
	// variant, such as an LZW minimum code size outside 1..8.
	ErrUnsupported = model.ErrUnsupported

	// ErrCorrupt is returned for structural violations: truncated
	// sub-blocks, out-of-range LZW codes, or a frame with no resolvable
	// color table.
	ErrCorrupt = model.ErrCorrupt

	// ErrOutOfRange is returned when a frame index falls outside
	// [0, FrameCount). An out-of-range timestamp yields ErrInvalidArgument.
	ErrOutOfRange = model.ErrOutOfRange

	// ErrInvalidArgument is returned for a negative timestamp or other
	// invalid caller-supplied argument.
	ErrInvalidArgument = model.ErrInvalidArgument

	// ErrEmpty is returned for an operation on a stream with zero frames.
	ErrEmpty = model.ErrEmpty

	// ErrClosed is returned for any operation after Close.
	ErrClosed = model.ErrClosed

	// ErrIO is returned when the underlying ByteSource fails.
	ErrIO = model.ErrIO
)
