package stream

import "github.com/deepteams/gif/internal/model"

// RecordKind identifies which variant a Record holds.
type RecordKind int

const (
	RecordHeader RecordKind = iota
	RecordLogicalScreenDescriptor
	RecordGraphicControlExtension
	RecordApplicationExtension
	RecordCommentExtension
	RecordPlainTextExtension
	RecordImageDescriptor
	RecordTrailer
)

// Header is the 6-byte GIF signature and version.
type Header struct {
	Version string // "87a" or "89a"
}

// LogicalScreenDescriptor is the stream-wide canvas and global palette
// declaration that follows the header.
type LogicalScreenDescriptor struct {
	Width, Height        int
	HasGlobalColorTable  bool
	ColorResolution      int
	SortFlag             bool
	GlobalColorTableSize int // number of entries, 0 if HasGlobalColorTable is false
	BackgroundColorIndex int
	PixelAspectRatio     int
	GlobalColorTable     model.ColorTable
}

// GraphicControlExtension carries the disposal method, transparency and
// frame delay for the single following graphic-rendering block.
type GraphicControlExtension struct {
	Disposal              model.DisposalMethod
	UserInputFlag         bool
	HasTransparentColor   bool
	TransparentColorIndex int
	DelayTime             int // hundredths of a second, as stored on the wire
}

// ApplicationExtension is an 11-byte identifier/auth-code pair followed by
// application-specific sub-blocks. The only one this decoder interprets is
// NETSCAPE2.0's animation loop count; others are surfaced verbatim.
type ApplicationExtension struct {
	Identifier     string // 8 bytes
	AuthCode       string // 3 bytes
	Data           []byte // concatenated sub-block payload
	IsNetscapeLoop bool
	LoopCount      int // valid only when IsNetscapeLoop
}

// CommentExtension is a plain-text annotation with no effect on rendering.
type CommentExtension struct {
	Text string
}

// PlainTextExtension renders text directly onto the canvas using the
// global color table. Decoding its text-grid payload is out of scope; the
// block is surfaced with its raw fields for callers that need them.
type PlainTextExtension struct {
	Left, Top, Width, Height int
	CellWidth, CellHeight    int
	ForegroundColorIndex     int
	BackgroundColorIndex     int
	Text                     string
}

// ImageDescriptor introduces one image (frame). ByteOffset is the absolute
// position of the 0x2C introducer byte within the stream, recorded so the
// engine can seek back and re-decode this frame without a full re-scan.
// The descriptor does not itself hold decoded pixel data — callers decode
// the LZW-compressed data that immediately follows via DecodeImageData.
type ImageDescriptor struct {
	ByteOffset int64

	Left, Top, Width, Height int
	HasLocalColorTable       bool
	Interlaced               bool
	SortFlag                 bool
	LocalColorTableSize      int
	LocalColorTable          model.ColorTable

	MinCodeSize int
}

// Trailer is the terminating 0x3B byte; it carries no data.
type Trailer struct{}

// Record is one parsed top-level stream element. Exactly one of the typed
// fields is valid, as indicated by Kind.
type Record struct {
	Kind RecordKind

	Header      Header
	LSD         LogicalScreenDescriptor
	GCE         GraphicControlExtension
	Application ApplicationExtension
	Comment     CommentExtension
	PlainText   PlainTextExtension
	Image       ImageDescriptor
}
