// Package stream parses the sequential block structure of a GIF87a/GIF89a
// file: header, logical screen descriptor, and the run of extension and
// image blocks up to the trailer. It does not decode pixel data itself —
// DecodeImageData hands an ImageDescriptor's LZW sub-blocks to internal/lzw
// — so that callers can parse structure-only (for a cheap Probe) or parse
// and decode (for full playback) using the same record stream.
package stream

import (
	"fmt"
	"io"

	"github.com/deepteams/gif/internal/lzw"
	"github.com/deepteams/gif/internal/model"
)

// countingCursor wraps a model.Cursor to track the absolute byte offset of
// the next unread byte, so ImageDescriptor records can carry their own
// stream position for later random-access replay.
type countingCursor struct {
	model.Cursor
	offset int64
}

func (c *countingCursor) ReadByte() (byte, error) {
	b, err := c.Cursor.ReadByte()
	if err == nil {
		c.offset++
	}
	return b, err
}

func (c *countingCursor) Read(p []byte) (int, error) {
	n, err := c.Cursor.Read(p)
	c.offset += int64(n)
	return n, err
}

func (c *countingCursor) Skip(n int) error {
	if err := c.Cursor.Skip(n); err != nil {
		return err
	}
	c.offset += int64(n)
	return nil
}

// Parser emits Records by walking a GIF byte stream sequentially from a
// starting Cursor.
type Parser struct {
	c *countingCursor
}

// NewAtStart creates a Parser positioned at the very first byte of a GIF
// stream (the "G" of "GIF87a"/"GIF89a"). Callers should read the Header
// and LogicalScreenDescriptor records first via ParseHeader and
// ParseLogicalScreenDescriptor; Next only handles the blocks after them.
func NewAtStart(c model.Cursor) *Parser {
	return &Parser{c: &countingCursor{Cursor: c}}
}

// NewAt creates a Parser positioned at byteOffset within the stream,
// resuming sequential parsing of extension and image blocks without
// re-reading the header or logical screen descriptor. byteOffset must
// point at a block introducer byte (0x21, 0x2C or 0x3B).
func NewAt(c model.Cursor, byteOffset int64) *Parser {
	return &Parser{c: &countingCursor{Cursor: c, offset: byteOffset}}
}

// Next reads and returns the next top-level Record. It returns io.EOF
// whenever the cursor is exhausted at a block boundary: right after
// RecordTrailer that is the normal end of the stream, anywhere else it
// means the stream ended without a trailer.
func (p *Parser) Next() (*Record, error) {
	b, err := p.c.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("stream: %w: %v", model.ErrIO, err)
	}

	switch b {
	case introExtension:
		return p.parseExtension()
	case introImageDescriptor:
		return p.parseImageDescriptor()
	case introTrailer:
		return &Record{Kind: RecordTrailer}, nil
	default:
		return nil, fmt.Errorf("stream: %w: unexpected block introducer 0x%02X", model.ErrCorrupt, b)
	}
}

// ParseHeader reads and validates the 6-byte GIF signature.
func (p *Parser) ParseHeader() (*Record, error) {
	var buf [6]byte
	if err := readFull(p.c, buf[:]); err != nil {
		return nil, fmt.Errorf("stream: %w: %v", model.ErrNotAGif, err)
	}
	sig := string(buf[:])
	if sig != signatureGIF87a && sig != signatureGIF89a {
		if string(buf[:3]) != "GIF" {
			return nil, fmt.Errorf("stream: %w: bad signature %q", model.ErrNotAGif, buf[:])
		}
		return nil, fmt.Errorf("stream: %w: unknown version %q", model.ErrUnsupported, sig[3:])
	}
	return &Record{Kind: RecordHeader, Header: Header{Version: sig[3:]}}, nil
}

// ParseLogicalScreenDescriptor reads the 7-byte LSD and, if present, the
// global color table that immediately follows it.
func (p *Parser) ParseLogicalScreenDescriptor() (*Record, error) {
	var buf [7]byte
	if err := readFull(p.c, buf[:]); err != nil {
		return nil, fmt.Errorf("stream: %w: reading logical screen descriptor: %v", model.ErrCorrupt, err)
	}
	packed := buf[4]
	lsd := LogicalScreenDescriptor{
		Width:                int(le16(buf[0], buf[1])),
		Height:               int(le16(buf[2], buf[3])),
		HasGlobalColorTable:  packed&packedGlobalColorTableFlag != 0,
		ColorResolution:      int((packed&packedColorResolutionMask)>>4) + 1,
		SortFlag:             packed&packedSortFlag != 0,
		BackgroundColorIndex: int(buf[5]),
		PixelAspectRatio:     int(buf[6]),
	}
	if lsd.HasGlobalColorTable {
		lsd.GlobalColorTableSize = 1 << (int(packed&packedColorTableSizeMask) + 1)
		table, err := readColorTable(p.c, lsd.GlobalColorTableSize)
		if err != nil {
			return nil, err
		}
		lsd.GlobalColorTable = table
	}
	return &Record{Kind: RecordLogicalScreenDescriptor, LSD: lsd}, nil
}

func (p *Parser) parseExtension() (*Record, error) {
	label, err := p.c.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("stream: %w: reading extension label: %v", model.ErrCorrupt, err)
	}
	switch label {
	case labelGraphicControl:
		return p.parseGraphicControl()
	case labelApplication:
		return p.parseApplication()
	case labelComment:
		return p.parseComment()
	case labelPlainText:
		return p.parsePlainText()
	default:
		// Unknown extension: skip its fixed-size block (if any, none for
		// unrecognized labels) and its sub-block chain.
		if err := skipSubBlocks(p.c); err != nil {
			return nil, err
		}
		return p.Next()
	}
}

func (p *Parser) parseGraphicControl() (*Record, error) {
	var buf [6]byte // block size (1) + packed (1) + delay (2) + transparent index (1) + terminator (1)
	if err := readFull(p.c, buf[:]); err != nil {
		return nil, fmt.Errorf("stream: %w: reading graphic control extension: %v", model.ErrCorrupt, err)
	}
	if buf[0] != 4 {
		return nil, fmt.Errorf("stream: %w: graphic control extension block size %d, want 4", model.ErrCorrupt, buf[0])
	}
	if buf[5] != 0 {
		return nil, fmt.Errorf("stream: %w: graphic control extension missing terminator", model.ErrCorrupt)
	}
	packed := buf[1]
	gce := GraphicControlExtension{
		Disposal:              model.DisposalMethod((packed & gceDisposalMask) >> 2),
		UserInputFlag:         packed&gceUserInputFlag != 0,
		HasTransparentColor:   packed&gceTransparentFlag != 0,
		DelayTime:             int(le16(buf[2], buf[3])),
		TransparentColorIndex: int(buf[4]),
	}
	return &Record{Kind: RecordGraphicControlExtension, GCE: gce}, nil
}

func (p *Parser) parseApplication() (*Record, error) {
	var buf [12]byte // block size (1, must be 11) + identifier (8) + auth code (3)
	if err := readFull(p.c, buf[:]); err != nil {
		return nil, fmt.Errorf("stream: %w: reading application extension: %v", model.ErrCorrupt, err)
	}
	if buf[0] != 11 {
		return nil, fmt.Errorf("stream: %w: application extension block size %d, want 11", model.ErrCorrupt, buf[0])
	}
	identifier := string(buf[1:9])
	authCode := string(buf[9:12])

	data, err := readSubBlocks(p.c)
	if err != nil {
		return nil, err
	}

	app := ApplicationExtension{
		Identifier: identifier,
		AuthCode:   authCode,
		Data:       data,
	}
	if identifier == "NETSCAPE" && authCode == "2.0" && len(data) == 3 && data[0] == 1 {
		app.IsNetscapeLoop = true
		app.LoopCount = int(le16(data[1], data[2]))
	}
	return &Record{Kind: RecordApplicationExtension, Application: app}, nil
}

func (p *Parser) parseComment() (*Record, error) {
	data, err := readSubBlocks(p.c)
	if err != nil {
		return nil, err
	}
	return &Record{Kind: RecordCommentExtension, Comment: CommentExtension{Text: string(data)}}, nil
}

func (p *Parser) parsePlainText() (*Record, error) {
	var buf [13]byte // block size (1, must be 12) + 12 bytes of layout fields
	if err := readFull(p.c, buf[:]); err != nil {
		return nil, fmt.Errorf("stream: %w: reading plain text extension: %v", model.ErrCorrupt, err)
	}
	if buf[0] != 12 {
		return nil, fmt.Errorf("stream: %w: plain text extension block size %d, want 12", model.ErrCorrupt, buf[0])
	}
	data, err := readSubBlocks(p.c)
	if err != nil {
		return nil, err
	}
	pt := PlainTextExtension{
		Left:                 int(le16(buf[1], buf[2])),
		Top:                  int(le16(buf[3], buf[4])),
		Width:                int(le16(buf[5], buf[6])),
		Height:               int(le16(buf[7], buf[8])),
		CellWidth:            int(buf[9]),
		CellHeight:           int(buf[10]),
		ForegroundColorIndex: int(buf[11]),
		BackgroundColorIndex: int(buf[12]),
		Text:                 string(data),
	}
	return &Record{Kind: RecordPlainTextExtension, PlainText: pt}, nil
}

func (p *Parser) parseImageDescriptor() (*Record, error) {
	byteOffset := p.c.offset - 1 // the 0x2C introducer already consumed

	var buf [9]byte
	if err := readFull(p.c, buf[:]); err != nil {
		return nil, fmt.Errorf("stream: %w: reading image descriptor: %v", model.ErrCorrupt, err)
	}
	packed := buf[8]
	img := ImageDescriptor{
		ByteOffset:         byteOffset,
		Left:               int(le16(buf[0], buf[1])),
		Top:                int(le16(buf[2], buf[3])),
		Width:              int(le16(buf[4], buf[5])),
		Height:             int(le16(buf[6], buf[7])),
		HasLocalColorTable: packed&packedLocalColorTableFlag != 0,
		Interlaced:         packed&packedInterlaceFlag != 0,
		SortFlag:           packed&packedLocalSortFlag != 0,
	}
	if img.HasLocalColorTable {
		img.LocalColorTableSize = 1 << (int(packed&packedColorTableSizeMask) + 1)
		table, err := readColorTable(p.c, img.LocalColorTableSize)
		if err != nil {
			return nil, err
		}
		img.LocalColorTable = table
	}
	minCodeSize, err := p.c.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("stream: %w: reading LZW minimum code size: %v", model.ErrCorrupt, err)
	}
	img.MinCodeSize = int(minCodeSize)
	return &Record{Kind: RecordImageDescriptor, Image: img}, nil
}

// DecodeImageData decodes the LZW sub-blocks that immediately follow an
// ImageDescriptor record (the parser's cursor must be positioned right
// after the descriptor was read, i.e. immediately after the call that
// produced it). It returns Width*Height color-table indices in the order
// the rows were encoded: top to bottom, or four-pass order for an
// interlaced image.
func (p *Parser) DecodeImageData(img *ImageDescriptor) ([]byte, error) {
	return p.DecodeImageDataInto(img, nil)
}

// DecodeImageDataInto behaves like DecodeImageData but reuses dst when it
// has sufficient capacity, for callers pooling index buffers across frames.
func (p *Parser) DecodeImageDataInto(img *ImageDescriptor, dst []byte) ([]byte, error) {
	dec, err := lzw.New(p.c, img.MinCodeSize)
	if err != nil {
		return nil, err
	}
	pixelCount := img.Width * img.Height
	indices, err := dec.DecodeInto(pixelCount, dst)
	if err != nil {
		return nil, err
	}
	return indices, nil
}

// SkipImageData discards the LZW sub-blocks following an ImageDescriptor
// without decoding them, for structure-only scans.
func (p *Parser) SkipImageData() error {
	return skipSubBlocks(p.c)
}

func readFull(c *countingCursor, buf []byte) error {
	_, err := io.ReadFull(c, buf)
	return err
}

func readColorTable(c *countingCursor, size int) (model.ColorTable, error) {
	buf := make([]byte, size*3)
	if err := readFull(c, buf); err != nil {
		return nil, fmt.Errorf("stream: %w: reading color table: %v", model.ErrCorrupt, err)
	}
	table := make(model.ColorTable, size)
	for i := 0; i < size; i++ {
		table[i] = model.Color{R: buf[i*3], G: buf[i*3+1], B: buf[i*3+2]}
	}
	return table, nil
}

func readSubBlocks(c *countingCursor) ([]byte, error) {
	var out []byte
	for {
		n, err := c.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("stream: %w: reading sub-block length: %v", model.ErrCorrupt, err)
		}
		if n == 0 {
			return out, nil
		}
		buf := make([]byte, n)
		if err := readFull(c, buf); err != nil {
			return nil, fmt.Errorf("stream: %w: reading sub-block: %v", model.ErrCorrupt, err)
		}
		out = append(out, buf...)
	}
}

func skipSubBlocks(c *countingCursor) error {
	for {
		n, err := c.ReadByte()
		if err != nil {
			return fmt.Errorf("stream: %w: reading sub-block length: %v", model.ErrCorrupt, err)
		}
		if n == 0 {
			return nil
		}
		if err := c.Skip(int(n)); err != nil {
			return fmt.Errorf("stream: %w: skipping sub-block: %v", model.ErrCorrupt, err)
		}
	}
}

func le16(lo, hi byte) uint16 {
	return uint16(lo) | uint16(hi)<<8
}
