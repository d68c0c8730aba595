package gif

import "github.com/deepteams/gif/internal/source"

// ByteSource is random-access, seek+read byte storage backing a GIF
// stream. Open accepts any implementation; NewMemorySource and
// NewFileSource provide the two common cases.
type ByteSource = source.ByteSource

// NewMemorySource wraps data as a ByteSource. The slice is not copied;
// callers must not mutate it while the source is in use.
func NewMemorySource(data []byte) ByteSource {
	return source.NewMemory(data)
}

// NewFileSource opens path as a file-backed ByteSource, using a
// *os.File under the hood for random access.
func NewFileSource(path string) (ByteSource, error) {
	return source.OpenFile(path)
}
