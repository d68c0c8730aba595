// Package source provides the default ByteSource implementations: a
// memory-backed source over an in-process byte slice, and a file-backed
// source over an os.File. The decoder itself only depends on the
// model.Cursor contract; these are convenience adapters for callers who
// don't already have their own random-access byte storage.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/deepteams/gif/internal/model"
)

// ByteSource is random-access, seek+read byte storage backing a GIF stream.
type ByteSource interface {
	// Read returns a Cursor positioned at byte 0.
	Read() (model.Cursor, error)
	// ReadAt returns a Cursor positioned at the given absolute offset.
	ReadAt(offset int64) (model.Cursor, error)
	// Close releases resources held by the source.
	Close() error
}

// Memory is a ByteSource backed by an in-memory byte slice.
type Memory struct {
	data []byte
}

// NewMemory wraps data as a ByteSource. The slice is not copied; callers
// must not mutate it while the source is in use.
func NewMemory(data []byte) *Memory {
	return &Memory{data: data}
}

func (m *Memory) Read() (model.Cursor, error) {
	return m.ReadAt(0)
}

func (m *Memory) ReadAt(offset int64) (model.Cursor, error) {
	if offset < 0 || offset > int64(len(m.data)) {
		return nil, fmt.Errorf("source: %w: offset %d out of range", model.ErrIO, offset)
	}
	return &memoryCursor{data: m.data[offset:]}, nil
}

func (m *Memory) Close() error { return nil }

type memoryCursor struct {
	data []byte
	pos  int
}

func (c *memoryCursor) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.pos:])
	c.pos += n
	return n, nil
}

func (c *memoryCursor) ReadByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *memoryCursor) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("source: %w: negative skip %d", model.ErrIO, n)
	}
	if c.pos+n > len(c.data) {
		c.pos = len(c.data)
		return fmt.Errorf("source: %w: skip past end of stream", model.ErrIO)
	}
	c.pos += n
	return nil
}

// File is a ByteSource backed by an os.File opened for random access.
type File struct {
	f *os.File
}

// OpenFile opens path as a file-backed ByteSource.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w: %v", model.ErrIO, err)
	}
	return &File{f: f}, nil
}

func (s *File) Read() (model.Cursor, error) {
	return s.ReadAt(0)
}

func (s *File) ReadAt(offset int64) (model.Cursor, error) {
	sr := io.NewSectionReader(s.f, offset, 1<<62)
	return &fileCursor{r: bufio.NewReader(sr)}, nil
}

func (s *File) Close() error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("source: %w: %v", model.ErrIO, err)
	}
	return nil
}

type fileCursor struct {
	r *bufio.Reader
}

func (c *fileCursor) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *fileCursor) ReadByte() (byte, error) {
	return c.r.ReadByte()
}

func (c *fileCursor) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("source: %w: negative skip %d", model.ErrIO, n)
	}
	k, err := io.CopyN(io.Discard, c.r, int64(n))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("source: %w: %v", model.ErrIO, err)
	}
	if int(k) != n {
		return fmt.Errorf("source: %w: skip past end of stream", model.ErrIO)
	}
	return nil
}
