// Command mergetiles stitches equally sized texture tiles, given row by row
// from the top-left, into one equirectangular map, optionally scaling the
// result to a target width.
//
// Usage:
//
//	mergetiles [-width 4096] <cols>x<rows> <output.png|jpg> <tile1> <tile2> ...
package main

import (
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/echoflaresat/globeview/texture"
)

func main() {
	width := flag.Int("width", 0, "Scale the merged map to this width, keeping 2:1; 0 keeps the tile resolution")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-width N] <cols>x<rows> <output.png|jpg> <tile1> <tile2> ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 {
		flag.Usage()
		os.Exit(1)
	}

	cols, rows, err := parseLayout(args[0])
	if err != nil {
		log.Fatal(err)
	}
	output := args[1]
	inputFiles := args[2:]
	if len(inputFiles) != cols*rows {
		log.Fatalf("Expected %d input files, got %d", cols*rows, len(inputFiles))
	}

	canvas, err := merge(cols, rows, inputFiles)
	if err != nil {
		log.Fatal(err)
	}
	if *width > 0 {
		canvas = scale(canvas, *width)
	}
	if err := save(output, canvas); err != nil {
		log.Fatal(err)
	}
}

func parseLayout(s string) (cols, rows int, err error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid tile layout %q (expected NxM)", s)
	}
	if cols, err = strconv.Atoi(parts[0]); err != nil || cols <= 0 {
		return 0, 0, fmt.Errorf("invalid cols in %q", s)
	}
	if rows, err = strconv.Atoi(parts[1]); err != nil || rows <= 0 {
		return 0, 0, fmt.Errorf("invalid rows in %q", s)
	}
	return cols, rows, nil
}

// merge draws each tile into its cell. All tiles must match the first one's
// size.
func merge(cols, rows int, paths []string) (*image.NRGBA, error) {
	var (
		canvas       *image.NRGBA
		tileW, tileH int
	)
	for idx, path := range paths {
		fmt.Printf("Processing %s\n", path)
		tile, err := texture.LoadImage(path)
		if err != nil {
			return nil, fmt.Errorf("could not load tile %q: %w", path, err)
		}

		b := tile.Bounds()
		if canvas == nil {
			tileW, tileH = b.Dx(), b.Dy()
			canvas = image.NewNRGBA(image.Rect(0, 0, cols*tileW, rows*tileH))
		} else if tileW != b.Dx() || tileH != b.Dy() {
			return nil, fmt.Errorf("tile size mismatch for %q: expected %dx%d, got %dx%d",
				path, tileW, tileH, b.Dx(), b.Dy())
		}

		x := (idx % cols) * tileW
		y := (idx / cols) * tileH
		draw.Draw(canvas, image.Rect(x, y, x+tileW, y+tileH), tile, b.Min, draw.Src)
	}
	return canvas, nil
}

func scale(src *image.NRGBA, width int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, width/2))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func save(output string, canvas image.Image) error {
	fmt.Printf("-> creating %s\n", output)
	outFile, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", output, err)
	}
	defer outFile.Close()

	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".png":
		return png.Encode(outFile, canvas)
	case ".jpg", ".jpeg":
		return jpeg.Encode(outFile, canvas, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("unsupported output format: %s", ext)
	}
}
