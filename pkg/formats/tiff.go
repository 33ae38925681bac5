package formats

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/tiff"

	"github.com/griffinteller/torus-terrain/pkg/noise"
)

// HeightImage maps a raster linearly onto 16-bit gray, lowest height to
// black and highest to white. A flat raster maps to mid gray.
func HeightImage(r *noise.Raster) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, r.Width, r.Height))
	lo, hi := r.MinMax()
	span := hi - lo
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := float32(0.5)
			if span > 0 {
				v = (r.Pix[y*r.Width+x] - lo) / span
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*65535 + 0.5)})
		}
	}
	return img
}

// EncodeHeightTIFF writes r as a deflate-compressed 16-bit grayscale TIFF.
func EncodeHeightTIFF(w io.Writer, r *noise.Raster) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return tiff.Encode(w, HeightImage(r), &tiff.Options{Compression: tiff.Deflate})
}

// WriteHeightTIFFFile writes r to path as a 16-bit TIFF.
func WriteHeightTIFFFile(path string, r *noise.Raster) error {
	return writeFile(path, func(w *bufio.Writer) error {
		return EncodeHeightTIFF(w, r)
	})
}

// DecodeHeightTIFF reads a grayscale TIFF into a raster with values in
// [0, 1].
func DecodeHeightTIFF(rd io.Reader) (*noise.Raster, error) {
	img, err := tiff.Decode(rd)
	if err != nil {
		return nil, fmt.Errorf("decoding TIFF: %w", err)
	}
	b := img.Bounds()
	r, err := noise.NewRaster(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			r.Pix[y*r.Width+x] = float32(g.Y) / 65535
		}
	}
	return r, nil
}

// ReadHeightTIFFFile reads a grayscale TIFF from disk.
func ReadHeightTIFFFile(path string) (*noise.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening TIFF: %w", err)
	}
	defer f.Close()
	return DecodeHeightTIFF(bufio.NewReader(f))
}
