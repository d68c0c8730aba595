// Command gifinfo reports metadata about a GIF file and can optionally
// export one of its frames as a PNG.
//
// Usage:
//
//	gifinfo <input.gif>                  Display stream metadata
//	gifinfo -frame N -o out.png <input>   Export frame N as PNG
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sort"

	gif "github.com/deepteams/gif"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gifinfo: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gifinfo", flag.ContinueOnError)
	frame := fs.Int("frame", -1, "export this frame index as PNG instead of printing metadata")
	output := fs.String("o", "", "PNG output path (required with -frame)")
	scale := fs.Float64("scale", 1.0, "scale factor applied to an exported frame, e.g. 0.5 for half size")
	cacheInterval := fs.Int("cache-interval", gif.DefaultCacheFrameInterval, "cache_frame_interval for random access")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("missing input file\nUsage: gifinfo [options] <input.gif>")
	}
	inputPath := fs.Arg(0)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	if *frame >= 0 {
		if *output == "" {
			return fmt.Errorf("-o is required with -frame")
		}
		return exportFrame(data, *frame, *cacheInterval, *scale, *output)
	}
	return printInfo(data, inputPath)
}

func printInfo(data []byte, path string) error {
	meta, err := gif.Probe(gif.NewMemorySource(data))
	if err != nil {
		return fmt.Errorf("probing %s: %w", path, err)
	}

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Dimensions: %d x %d\n", meta.Width, meta.Height)
	fmt.Printf("Frames:     %d\n", meta.FrameCount)
	fmt.Printf("Duration:   %d ms\n", meta.Duration)
	loop := "infinite"
	if meta.LoopCount > 0 {
		loop = fmt.Sprintf("%d", meta.LoopCount)
	}
	fmt.Printf("Loop count: %s\n", loop)
	if len(meta.Comments) > 0 {
		fmt.Printf("Comments:   %d\n", len(meta.Comments))
		for _, c := range meta.Comments {
			fmt.Printf("  %q\n", c)
		}
	}

	dec, err := gif.Open(gif.NewMemorySource(data), gif.DefaultCacheFrameInterval)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer dec.Close()
	if r, g, b, ok := dec.BackgroundColor(); ok {
		fmt.Printf("Background: #%02X%02X%02X (%s)\n", r, g, b, nearestColorName(r, g, b))
	}
	return nil
}

func exportFrame(data []byte, index, cacheInterval int, scale float64, outPath string) error {
	dec, err := gif.Open(gif.NewMemorySource(data), cacheInterval)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer dec.Close()

	f, err := dec.ReadFrame(index)
	if err != nil {
		return fmt.Errorf("reading frame %d: %w", index, err)
	}

	img := argbToNRGBA(f)
	if scale != 1.0 {
		dw := int(float64(f.Width) * scale)
		dh := int(float64(f.Height) * scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}
		scaled := image.NewNRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = scaled
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}

// nearestColorName finds the x/image/colornames entry closest to (r,g,b)
// by squared Euclidean distance, for a human-readable background summary.
func nearestColorName(r, g, b uint8) string {
	best := ""
	bestDist := -1
	names := make([]string, 0, len(colornames.Map))
	for name := range colornames.Map {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic tie-breaking
	for _, name := range names {
		c := colornames.Map[name]
		dr := int(c.R) - int(r)
		dg := int(c.G) - int(g)
		db := int(c.B) - int(b)
		dist := dr*dr + dg*dg + db*db
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			best = name
		}
	}
	return best
}

// argbToNRGBA converts a packed-ARGB frame into a standard library image
// for PNG encoding.
func argbToNRGBA(f *gif.ImageFrame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			px := f.ARGB[y*f.Width+x]
			img.SetNRGBA(x, y, color.NRGBA{
				R: byte(px >> 16),
				G: byte(px >> 8),
				B: byte(px),
				A: byte(px >> 24),
			})
		}
	}
	return img
}
