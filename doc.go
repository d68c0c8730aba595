// Package gif implements a decoder for animated GIF87a/GIF89a streams:
// byte-exact container parsing, LZW index-stream decoding, and frame
// composition honoring each frame's disposal method.
//
// Unlike the standard library's image/gif, which eagerly decodes every
// frame into a fully composited slice, this package indexes the stream
// once (Open) and decodes frames lazily, caching periodic full-canvas
// snapshots so that random-access reads (ReadFrame) only replay back to
// the nearest snapshot rather than from frame 0.
//
// Basic usage for sequential playback:
//
//	dec, err := gif.Open(gif.NewMemorySource(data), gif.DefaultCacheFrameInterval)
//	it := dec.Iterate()
//	for it.Next() {
//		frame := it.Frame()
//		// frame.ARGB, frame.Width, frame.Height, frame.Duration
//	}
//
// Basic usage for random access:
//
//	frame, err := dec.ReadFrame(42)
package gif
