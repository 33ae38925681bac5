// Package wgsl exports the noise gather kernel for WebGPU runtimes, as WGSL
// source and as SPIR-V compiled with naga.
package wgsl

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/gogpu/naga"

	"github.com/griffinteller/torus-terrain/pkg/noise"
)

//go:embed gather.wgsl
var gatherShaderWGSL string

// Bind group 0 slots used by the kernel.
const (
	BindingStructure = 0
	BindingGradients = 1
	BindingHeights   = 2
	BindingParams    = 3
)

// WorkgroupSize is the kernel's workgroup edge; a workgroup covers
// WorkgroupSize×WorkgroupSize texels.
const WorkgroupSize = 8

// UniformSize is the size in bytes of the Params uniform block.
const UniformSize = 32

// Source returns the WGSL source of the gather kernel.
func Source() string {
	return gatherShaderWGSL
}

// CompileSPIRV compiles the gather kernel to SPIR-V words.
func CompileSPIRV() ([]uint32, error) {
	spirvBytes, err := naga.Compile(gatherShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile gather shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V output is %d bytes, not a whole number of words", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// PackUniforms encodes u in the Params layout of the kernel.
func PackUniforms(u noise.Uniforms) []byte {
	var clear uint32
	if u.Clear {
		clear = 1
	}
	buf := make([]byte, 0, UniformSize)
	buf = binary.LittleEndian.AppendUint32(buf, gomath.Float32bits(u.UVRowSeparation))
	buf = binary.LittleEndian.AppendUint32(buf, gomath.Float32bits(u.InfluenceRadius))
	buf = binary.LittleEndian.AppendUint32(buf, gomath.Float32bits(u.AspectRatio))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(u.Rows))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(u.Width))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(u.Height))
	buf = binary.LittleEndian.AppendUint32(buf, clear)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // padding
	return buf
}

// Workgroups returns the dispatch size covering a width×height texture.
func Workgroups(width, height int) (x, y uint32) {
	return uint32((width + WorkgroupSize - 1) / WorkgroupSize),
		uint32((height + WorkgroupSize - 1) / WorkgroupSize)
}
