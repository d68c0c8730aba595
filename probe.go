package gif

import "github.com/deepteams/gif/internal/engine"

// Metadata is the cheap, decode-free summary returned by Probe.
type Metadata struct {
	Width, Height int
	LoopCount     int
	FrameCount    int
	Duration      int // milliseconds
	Comments      []string
}

// Probe scans src for stream-level metadata without decoding any frame's
// pixel data, for callers that only need to validate a file or report its
// dimensions and frame count cheaply.
func Probe(src ByteSource) (*Metadata, error) {
	meta, err := engine.Probe(src)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Width:      meta.Width,
		Height:     meta.Height,
		LoopCount:  meta.LoopCount,
		FrameCount: meta.FrameCount,
		Duration:   meta.Duration,
		Comments:   meta.Comments,
	}, nil
}
