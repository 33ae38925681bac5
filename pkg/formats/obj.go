package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/griffinteller/torus-terrain/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJ = errors.New("invalid OBJ data")
)

// OBJ is an indexed triangle mesh with optional per-vertex normals and
// texture coordinates. When present, Normals and TexCoords have one entry
// per position.
type OBJ struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	TexCoords []math.Vec2
	Indices   []uint32 // three per triangle
}

// Validate checks attribute counts and index ranges.
func (o *OBJ) Validate() error {
	n := len(o.Positions)
	if len(o.Normals) != 0 && len(o.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d positions", ErrInvalidOBJ, len(o.Normals), n)
	}
	if len(o.TexCoords) != 0 && len(o.TexCoords) != n {
		return fmt.Errorf("%w: %d texture coordinates for %d positions", ErrInvalidOBJ, len(o.TexCoords), n)
	}
	if len(o.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidOBJ, len(o.Indices))
	}
	for i, idx := range o.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index %d = %d out of range", ErrInvalidOBJ, i, idx)
		}
	}
	return nil
}

// Encode writes o as Wavefront OBJ text. Faces reference the position,
// texture and normal of the same index.
func (o *OBJ) Encode(w io.Writer) error {
	if err := o.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if o.Name != "" {
		fmt.Fprintf(bw, "o %s\n", o.Name)
	}
	for _, p := range o.Positions {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(p.X), ftoa(p.Y), ftoa(p.Z))
	}
	for _, t := range o.TexCoords {
		fmt.Fprintf(bw, "vt %s %s\n", ftoa(t.X), ftoa(t.Y))
	}
	for _, n := range o.Normals {
		fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(n.X), ftoa(n.Y), ftoa(n.Z))
	}

	hasT, hasN := len(o.TexCoords) > 0, len(o.Normals) > 0
	for i := 0; i < len(o.Indices); i += 3 {
		bw.WriteString("f")
		for _, idx := range o.Indices[i : i+3] {
			k := idx + 1
			switch {
			case hasT && hasN:
				fmt.Fprintf(bw, " %d/%d/%d", k, k, k)
			case hasT:
				fmt.Fprintf(bw, " %d/%d", k, k)
			case hasN:
				fmt.Fprintf(bw, " %d//%d", k, k)
			default:
				fmt.Fprintf(bw, " %d", k)
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteOBJFile writes o to path.
func WriteOBJFile(path string, o *OBJ) error {
	return writeFile(path, func(w *bufio.Writer) error {
		return o.Encode(w)
	})
}

// ParseOBJ reads the subset of OBJ that Encode writes: one object with
// triangle faces whose attribute indices match their position index.
func ParseOBJ(data []byte) (*OBJ, error) {
	o := &OBJ{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "o":
			o.Name = strings.Join(fields[1:], " ")
		case "v", "vn":
			var v []float32
			if v, err = parseFloats(fields[1:], 3); err == nil {
				vec := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
				if fields[0] == "v" {
					o.Positions = append(o.Positions, vec)
				} else {
					o.Normals = append(o.Normals, vec)
				}
			}
		case "vt":
			var v []float32
			if v, err = parseFloats(fields[1:], 2); err == nil {
				o.TexCoords = append(o.TexCoords, math.Vec2{X: v[0], Y: v[1]})
			}
		case "f":
			err = o.parseFace(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OBJ) parseFace(fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("%w: face with %d vertices", ErrInvalidOBJ, len(fields))
	}
	for _, f := range fields {
		ref, _, _ := strings.Cut(f, "/")
		k, err := strconv.ParseUint(ref, 10, 32)
		if err != nil || k == 0 {
			return fmt.Errorf("%w: face vertex %q", ErrInvalidOBJ, f)
		}
		o.Indices = append(o.Indices, uint32(k-1))
	}
	return nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("%w: need %d values, got %d", ErrInvalidOBJ, n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOBJ, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
