// Package lzw decodes a GIF image's LZW-compressed index stream into the
// raw color-table indices it represents. It implements the variable-width,
// growing-table variant of LZW that the GIF specification layers on top of
// compress/lzw's classic algorithm: codes start at minCodeSize+1 bits,
// widen by one bit each time the table fills a power of two, and freeze at
// 12 bits (4096 entries) rather than ever resetting implicitly — a reset
// only happens on an explicit clear code.
package lzw

import (
	"fmt"

	"github.com/deepteams/gif/internal/bitio"
	"github.com/deepteams/gif/internal/model"
)

const (
	maxCodeSize  = 12
	maxTableSize = 1 << maxCodeSize
)

// entry is one growing-table slot: the index of its prefix entry (or -1
// for a root code) and the single suffix byte appended to that prefix.
type entry struct {
	prefix int32
	suffix byte
}

// Decoder decodes one image's worth of LZW-compressed sub-blocks into
// color-table indices.
type Decoder struct {
	minCodeSize int
	br          *bitio.BitReader

	table    []entry
	stack    []byte // scratch buffer for backward-filling a decoded string
	clear    uint16
	end      uint16
	width    uint
	nextCode uint16

	prevCode  int32 // -1 after a clear or at stream start
	prevFirst byte
}

// New creates a Decoder reading sub-blocks from r, with the given LZW
// minimum code size as carried by the image's first data byte.
func New(r interface {
	ReadByte() (byte, error)
}, minCodeSize int) (*Decoder, error) {
	if minCodeSize < 1 || minCodeSize > 8 {
		return nil, fmt.Errorf("lzw: %w: minimum code size %d", model.ErrUnsupported, minCodeSize)
	}
	d := &Decoder{
		minCodeSize: minCodeSize,
		br:          bitio.New(r),
	}
	d.reset()
	return d, nil
}

// reset reinitializes the code table to its root entries, as happens at
// decode start and on every clear code.
func (d *Decoder) reset() {
	rootCount := 1 << d.minCodeSize
	d.clear = uint16(rootCount)
	d.end = d.clear + 1
	d.nextCode = d.end + 1
	d.width = uint(d.minCodeSize) + 1

	d.table = make([]entry, maxTableSize)
	for i := 0; i < rootCount; i++ {
		d.table[i] = entry{prefix: -1, suffix: byte(i)}
	}
	d.prevCode = -1
}

// buildString writes the index sequence represented by code into dst,
// backward-filling from the end since a table entry's string is only
// known suffix-first by walking its prefix chain. It returns the full
// slice (dst, grown as needed) and the string's first byte.
func (d *Decoder) buildString(code uint16, dst []byte) ([]byte, byte, error) {
	depth := 0
	c := int32(code)
	for c >= 0 {
		depth++
		c = d.table[c].prefix
		if depth > maxTableSize {
			return nil, 0, fmt.Errorf("lzw: %w: cyclic code table", model.ErrCorrupt)
		}
	}
	if cap(dst) < depth {
		dst = make([]byte, depth)
	} else {
		dst = dst[:depth]
	}
	c = int32(code)
	for i := depth - 1; i >= 0; i-- {
		dst[i] = d.table[c].suffix
		c = d.table[c].prefix
	}
	return dst, dst[0], nil
}

// Decode drains the LZW sub-block stream and returns the full sequence of
// color-table indices it represents. pixelCount is the expected index
// count (the frame's width*height); decoding stops once that many indices
// have been produced even if an end code has not yet been read, matching
// the tolerant behavior real-world encoders rely on, but an end code or
// stream truncation before pixelCount indices is reported as ErrCorrupt.
func (d *Decoder) Decode(pixelCount int) ([]byte, error) {
	return d.DecodeInto(pixelCount, nil)
}

// DecodeInto behaves like Decode but writes into dst when dst has enough
// capacity, avoiding an allocation for callers that reuse a pooled buffer
// (see internal/pool, used by internal/engine's replay loop).
func (d *Decoder) DecodeInto(pixelCount int, dst []byte) ([]byte, error) {
	var out []byte
	if cap(dst) >= pixelCount {
		out = dst[:0]
	} else {
		out = make([]byte, 0, pixelCount)
	}
	total := 0

	for total < pixelCount {
		code, err := d.br.NextCode(d.width)
		if err != nil {
			return nil, fmt.Errorf("lzw: %w: %v", model.ErrCorrupt, err)
		}

		switch {
		case code == d.clear:
			d.reset()
			continue
		case code == d.end:
			if err := d.br.Drain(); err != nil {
				return nil, fmt.Errorf("lzw: %w: %v", model.ErrCorrupt, err)
			}
			return nil, fmt.Errorf("lzw: %w: end code before %d indices decoded (got %d)", model.ErrCorrupt, pixelCount, total)
		}

		var str []byte
		var first byte

		switch {
		case d.prevCode < 0:
			// First code after stream start or after a clear: must be a
			// root code naming a single index; no new table entry yet.
			if code >= d.clear {
				return nil, fmt.Errorf("lzw: %w: invalid first code %d", model.ErrCorrupt, code)
			}
			str, first, err = d.buildString(code, d.stack)
			if err != nil {
				return nil, err
			}
		case int(code) < int(d.nextCode):
			// Known code: emit its string, then append prevString+firstByte
			// as a new table entry.
			str, first, err = d.buildString(code, d.stack)
			if err != nil {
				return nil, err
			}
			if err := d.addEntry(d.prevCode, first); err != nil {
				return nil, err
			}
		case int(code) == int(d.nextCode):
			// The classic "KwKwK" case: the code names an entry not yet in
			// the table. Its string is the previous string plus the
			// previous string's own first byte.
			str, _, err = d.buildString(uint16(d.prevCode), d.stack)
			if err != nil {
				return nil, err
			}
			str = append(str, d.prevFirst)
			first = str[0]
			if err := d.addEntry(d.prevCode, d.prevFirst); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("lzw: %w: code %d out of range (next %d)", model.ErrCorrupt, code, d.nextCode)
		}

		d.stack = str
		n := len(str)
		if total+n > pixelCount {
			n = pixelCount - total
		}
		out = append(out, str[:n]...)
		total += n

		d.prevCode = int32(code)
		d.prevFirst = first
	}

	return out, nil
}

// addEntry appends a new table entry chaining prefixCode with suffix,
// growing the code width when the table crosses a power-of-two boundary.
// Once the table reaches the maximum width it is frozen: further codes
// are read at 12 bits but no new entries are added, matching encoders
// that stop growing rather than emit an implicit clear.
func (d *Decoder) addEntry(prefixCode int32, suffix byte) error {
	if int(d.nextCode) >= maxTableSize {
		return nil
	}
	d.table[d.nextCode] = entry{prefix: prefixCode, suffix: suffix}
	d.nextCode++
	if d.nextCode == 1<<d.width && d.width < maxCodeSize {
		d.width++
	}
	return nil
}
