package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/deepteams/gif/internal/model"
	"github.com/deepteams/gif/internal/source"
)

// literalLZW builds a non-compressing LZW sub-block stream, mirroring
// internal/lzw's own test helper, for assembling whole GIF streams here.
func literalLZW(minCodeSize int, indices []byte) []byte {
	clear := uint16(1 << minCodeSize)
	end := clear + 1
	nextCode := end + 1
	width := uint(minCodeSize + 1)
	const maxCodeSize = 12
	const maxTableSize = 1 << maxCodeSize

	var acc uint32
	var nbits uint
	var payload []byte
	writeCode := func(code uint16, w uint) {
		acc |= uint32(code) << nbits
		nbits += w
		for nbits >= 8 {
			payload = append(payload, byte(acc))
			acc >>= 8
			nbits -= 8
		}
	}

	writeCode(clear, width)
	for i, idx := range indices {
		writeCode(uint16(idx), width)
		if i == 0 {
			continue
		}
		if int(nextCode) < maxTableSize {
			nextCode++
			if nextCode == 1<<width && width < maxCodeSize {
				width++
			}
		}
	}
	writeCode(end, width)
	if nbits > 0 {
		payload = append(payload, byte(acc))
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(minCodeSize))
	for len(payload) > 0 {
		n := len(payload)
		if n > 255 {
			n = 255
		}
		buf.WriteByte(byte(n))
		buf.Write(payload[:n])
		payload = payload[n:]
	}
	buf.WriteByte(0)
	return buf.Bytes()
}

func le16(v int) []byte { return []byte{byte(v), byte(v >> 8)} }

// minimalGIF builds a one-frame GIF of the given logical screen size with a
// single frame at (left,top,w,h) against a two-color global palette.
func minimalGIF(screenW, screenH, left, top, w, h int, indices []byte) []byte {
	var out []byte
	out = append(out, []byte("GIF89a")...)
	out = append(out, le16(screenW)...)
	out = append(out, le16(screenH)...)
	out = append(out, 0x80, 0, 0) // GCT flag, field 0 -> 2 entries
	out = append(out, 0, 0, 0, 255, 255, 255)
	out = append(out, 0x2C)
	out = append(out, le16(left)...)
	out = append(out, le16(top)...)
	out = append(out, le16(w)...)
	out = append(out, le16(h)...)
	out = append(out, 0) // packed: no LCT
	out = append(out, literalLZW(2, indices)...)
	out = append(out, 0x3B)
	return out
}

func TestBuild_RectangleOutsideScreenIsCorrupt(t *testing.T) {
	data := minimalGIF(2, 2, 1, 1, 2, 2, []byte{0, 0, 0, 0}) // extends to (3,3), screen is 2x2
	_, err := Build(source.NewMemory(data), DefaultCacheFrameInterval)
	if !errors.Is(err, model.ErrCorrupt) {
		t.Fatalf("got %v, want ErrCorrupt", err)
	}
}

func TestBuild_NoColorTableIsCorrupt(t *testing.T) {
	var out []byte
	out = append(out, []byte("GIF89a")...)
	out = append(out, le16(1)...)
	out = append(out, le16(1)...)
	out = append(out, 0, 0, 0) // no GCT
	out = append(out, 0x2C)
	out = append(out, le16(0)...)
	out = append(out, le16(0)...)
	out = append(out, le16(1)...)
	out = append(out, le16(1)...)
	out = append(out, 0) // no LCT either
	out = append(out, literalLZW(2, []byte{0})...)
	out = append(out, 0x3B)

	_, err := Build(source.NewMemory(out), DefaultCacheFrameInterval)
	if !errors.Is(err, model.ErrCorrupt) {
		t.Fatalf("got %v, want ErrCorrupt", err)
	}
}

func TestBuild_ZeroDelayRaisedTo100ms(t *testing.T) {
	var out []byte
	out = append(out, []byte("GIF89a")...)
	out = append(out, le16(1)...)
	out = append(out, le16(1)...)
	out = append(out, 0x80, 0, 0)
	out = append(out, 0, 0, 0, 255, 255, 255)
	out = append(out, 0x21, 0xF9, 4, 0x00)
	out = append(out, le16(0)...) // delay = 0
	out = append(out, 0, 0)
	out = append(out, 0x2C)
	out = append(out, le16(0)...)
	out = append(out, le16(0)...)
	out = append(out, le16(1)...)
	out = append(out, le16(1)...)
	out = append(out, 0)
	out = append(out, literalLZW(2, []byte{0})...)
	out = append(out, 0x3B)

	idx, err := Build(source.NewMemory(out), DefaultCacheFrameInterval)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(idx.Frames))
	}
	if idx.Frames[0].Duration != 100 {
		t.Errorf("Duration = %d, want 100", idx.Frames[0].Duration)
	}
}

func TestBuild_NonPositiveCacheIntervalIsInvalid(t *testing.T) {
	data := minimalGIF(1, 1, 0, 0, 1, 1, []byte{1})
	for _, interval := range []int{0, -7} {
		if _, err := Build(source.NewMemory(data), interval); !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("Build with interval %d: got %v, want ErrInvalidArgument", interval, err)
		}
	}
}

func TestSequence_MatchesDecodeRange(t *testing.T) {
	data := minimalGIF(2, 2, 0, 0, 2, 2, []byte{0, 1, 1, 0})
	src := source.NewMemory(data)
	idx, err := Build(src, DefaultCacheFrameInterval)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	seq := NewSequence(src, idx.Metadata, idx.Frames)
	for want := 0; want < len(idx.Frames); want++ {
		i, got, err := seq.Next()
		if err != nil {
			t.Fatalf("Sequence.Next: %v", err)
		}
		if i != want {
			t.Fatalf("Sequence.Next index = %d, want %d", i, want)
		}
		ref, err := DecodeRange(src, idx.Metadata, idx.Frames, want)
		if err != nil {
			t.Fatalf("DecodeRange(%d): %v", want, err)
		}
		for p := range ref {
			if got[p] != ref[p] {
				t.Errorf("frame %d pixel %d: sequence %#x, range %#x", want, p, got[p], ref[p])
			}
		}
	}
	if _, _, err := seq.Next(); err == nil {
		t.Errorf("Sequence.Next past last frame: got nil error, want io.EOF")
	}
}

func TestDecodeRange_OutOfRange(t *testing.T) {
	data := minimalGIF(1, 1, 0, 0, 1, 1, []byte{1})
	idx, err := Build(source.NewMemory(data), DefaultCacheFrameInterval)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = DecodeRange(source.NewMemory(data), idx.Metadata, idx.Frames, 5)
	if !errors.Is(err, model.ErrOutOfRange) {
		t.Errorf("got %v, want ErrOutOfRange", err)
	}
}

func TestProbe_NoLZWDecode(t *testing.T) {
	// A deliberately corrupt LZW payload after a valid header/LSD/image
	// descriptor: Probe must not fail, since it never decodes pixel data,
	// only walks sub-block lengths.
	// Code 6 right after the clear code is not a root code (roots are 0..3
	// at minimum code size 2), so an LZW decode would fail with ErrCorrupt.
	data := minimalGIF(1, 1, 0, 0, 1, 1, []byte{6})
	meta, err := Probe(source.NewMemory(data))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Width != 1 || meta.Height != 1 || meta.FrameCount != 1 {
		t.Errorf("got %+v, want 1x1 1 frame", meta)
	}
}
