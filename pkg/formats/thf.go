package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/griffinteller/torus-terrain/pkg/noise"
)

// THF (torus height field) layout, little endian:
//
//	magic   [4]byte "THFD"
//	version [2]byte minor, major
//	width   uint32
//	height  uint32
//	flags   uint32
//	heights [width*height]float32, row-major

// THF format errors.
var (
	ErrInvalidTHFMagic       = errors.New("invalid THF magic: expected 'THFD'")
	ErrUnsupportedTHFVersion = errors.New("unsupported THF version")
	ErrTruncatedTHFData      = errors.New("truncated THF data")
)

const (
	thfMagic      = "THFD"
	thfHeaderSize = 4 + 2 + 4 + 4 + 4
	thfMaxSide    = 1 << 15
)

// THFVersion represents the THF file version.
type THFVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v THFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// THFCurrentVersion is written by Encode.
var THFCurrentVersion = THFVersion{Major: 1, Minor: 0}

// THFFlags describe how the heights were produced.
type THFFlags uint32

const (
	// THFSeamless marks a field whose edges wrap.
	THFSeamless THFFlags = 1 << iota
)

// THF is a height field.
type THF struct {
	Version THFVersion
	Width   uint32
	Height  uint32
	Flags   THFFlags
	Heights []float32
}

// NewTHF copies a raster into a height field.
func NewTHF(r *noise.Raster, flags THFFlags) *THF {
	return &THF{
		Version: THFCurrentVersion,
		Width:   uint32(r.Width),
		Height:  uint32(r.Height),
		Flags:   flags,
		Heights: append([]float32(nil), r.Pix...),
	}
}

// Raster copies the heights into a raster.
func (h *THF) Raster() *noise.Raster {
	return &noise.Raster{
		Width:  int(h.Width),
		Height: int(h.Height),
		Pix:    append([]float32(nil), h.Heights...),
	}
}

// HeightRange returns the minimum and maximum height.
func (h *THF) HeightRange() (lo, hi float32) {
	return h.Raster().MinMax()
}

// ParseTHF parses a THF file from raw bytes.
func ParseTHF(data []byte) (*THF, error) {
	if len(data) < thfHeaderSize {
		return nil, ErrTruncatedTHFData
	}
	if string(data[0:4]) != thfMagic {
		return nil, ErrInvalidTHFMagic
	}

	// Version is stored as [minor, major]
	version := THFVersion{Major: data[5], Minor: data[4]}
	if version.Major != THFCurrentVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTHFVersion, version)
	}

	r := bytes.NewReader(data[6:])
	var header struct {
		Width, Height uint32
		Flags         THFFlags
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTHFData)
	}
	if header.Width == 0 || header.Height == 0 || header.Width > thfMaxSide || header.Height > thfMaxSide {
		return nil, fmt.Errorf("invalid THF dimensions: %dx%d", header.Width, header.Height)
	}

	n := int(header.Width) * int(header.Height)
	if r.Len() < 4*n {
		return nil, fmt.Errorf("%w: %d bytes of heights, need %d", ErrTruncatedTHFData, r.Len(), 4*n)
	}
	h := &THF{
		Version: version,
		Width:   header.Width,
		Height:  header.Height,
		Flags:   header.Flags,
		Heights: make([]float32, n),
	}
	if err := binary.Read(r, binary.LittleEndian, h.Heights); err != nil {
		return nil, fmt.Errorf("%w: reading heights", ErrTruncatedTHFData)
	}
	return h, nil
}

// ParseTHFFile parses a THF file from disk.
func ParseTHFFile(path string) (*THF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading THF file: %w", err)
	}
	return ParseTHF(data)
}

// Encode writes h in the current version.
func (h *THF) Encode(w io.Writer) error {
	if len(h.Heights) != int(h.Width)*int(h.Height) {
		return fmt.Errorf("THF has %d heights for %dx%d", len(h.Heights), h.Width, h.Height)
	}
	if _, err := io.WriteString(w, thfMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{THFCurrentVersion.Minor, THFCurrentVersion.Major}); err != nil {
		return err
	}
	for _, v := range []any{h.Width, h.Height, uint32(h.Flags), h.Heights} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteTHFFile writes h to path.
func WriteTHFFile(path string, h *THF) error {
	return writeFile(path, func(w *bufio.Writer) error {
		return h.Encode(w)
	})
}
