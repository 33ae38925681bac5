// Package glcompute runs noise synthesis as an OpenGL 4.3 compute shader.
//
// Importing the package registers the "gl" backend:
//
//	import _ "github.com/griffinteller/torus-terrain/internal/accel/glcompute"
//
// The context is created on first dispatch. When no context can be created
// Dispatch returns noise.ErrFallbackToCPU and the compositor reruns the level
// on its fallback backend.
package glcompute

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"github.com/griffinteller/torus-terrain/internal/accel/wgsl"
	"github.com/griffinteller/torus-terrain/pkg/noise"
)

// Name is the registry name of the backend.
const Name = "gl"

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
	noise.Register(Name, func() noise.Backend { return &Backend{} })
}

// SSBO binding points, shared with the WGSL kernel.
const (
	bindingStructure = wgsl.BindingStructure
	bindingGradients = wgsl.BindingGradients
	bindingHeights   = wgsl.BindingHeights
)

// Backend dispatches jobs to the GPU. Every call must come from the
// goroutine that made the first one, normally the main goroutine.
type Backend struct {
	Logger *zap.Logger

	once     sync.Once
	initErr  error
	ctx      *glContext
	program  uint32
	ssbo     [3]uint32
	uniforms uniformLocations
}

// Name implements noise.Backend.
func (b *Backend) Name() string { return Name }

func (b *Backend) log() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func (b *Backend) setup() error {
	ctx, err := newGLContext(b.log())
	if err != nil {
		return err
	}
	program, err := compileProgram(gatherShaderGLSL)
	if err != nil {
		ctx.close()
		return err
	}
	locs, err := lookupUniforms(program)
	if err != nil {
		gl.DeleteProgram(program)
		ctx.close()
		return err
	}
	b.ctx, b.program, b.uniforms = ctx, program, locs
	gl.GenBuffers(int32(len(b.ssbo)), &b.ssbo[0])
	return nil
}

// Dispatch implements noise.Backend. It reads the packed buffers of job,
// not its Field.
func (b *Backend) Dispatch(job *noise.Job, dst *noise.Raster) error {
	if err := job.Buffers.Validate(); err != nil {
		return err
	}
	if err := dst.Validate(); err != nil {
		return err
	}
	u := job.Buffers.Uniforms
	if int(u.Width) != dst.Width || int(u.Height) != dst.Height {
		return fmt.Errorf("%w: buffers packed for %dx%d, raster is %dx%d",
			noise.ErrInvalidRaster, u.Width, u.Height, dst.Width, dst.Height)
	}

	b.once.Do(func() { b.initErr = b.setup() })
	if b.initErr != nil {
		return fmt.Errorf("%w: %w", noise.ErrFallbackToCPU, b.initErr)
	}

	// Drain stale errors so the check below only sees this dispatch.
	for gl.GetError() != gl.NO_ERROR {
	}

	structure, gradients := job.Buffers.Structure, job.Buffers.Gradients
	upload(b.ssbo[bindingStructure], len(structure)*4, gl.Ptr(structure))
	upload(b.ssbo[bindingGradients], len(gradients)*4, gl.Ptr(gradients))
	if u.Clear {
		upload(b.ssbo[bindingHeights], len(dst.Pix)*4, nil)
	} else {
		upload(b.ssbo[bindingHeights], len(dst.Pix)*4, gl.Ptr(dst.Pix))
	}

	gl.UseProgram(b.program)
	gl.Uniform1f(b.uniforms.rowSeparation, u.UVRowSeparation)
	gl.Uniform1f(b.uniforms.radius, u.InfluenceRadius)
	gl.Uniform1f(b.uniforms.aspectRatio, u.AspectRatio)
	gl.Uniform1i(b.uniforms.rows, u.Rows)
	gl.Uniform1i(b.uniforms.width, u.Width)
	gl.Uniform1i(b.uniforms.height, u.Height)
	clearTexture := int32(0)
	if u.Clear {
		clearTexture = 1
	}
	gl.Uniform1i(b.uniforms.clear, clearTexture)

	for i, buf := range b.ssbo {
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(i), buf)
	}
	gx, gy := wgsl.Workgroups(dst.Width, dst.Height)
	gl.DispatchCompute(gx, gy, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: GL error 0x%04X in level %d", noise.ErrFallbackToCPU, code, job.Level)
	}

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[bindingHeights])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(dst.Pix)*4, gl.Ptr(dst.Pix))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	b.log().Debug("dispatched",
		zap.Int("level", job.Level),
		zap.Uint32("groups_x", gx),
		zap.Uint32("groups_y", gy))
	return nil
}

func upload(buf uint32, size int, data unsafe.Pointer) {
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, data, gl.DYNAMIC_DRAW)
}

// Close releases the GPU resources and the context.
func (b *Backend) Close() {
	if b.ctx == nil {
		return
	}
	gl.DeleteBuffers(int32(len(b.ssbo)), &b.ssbo[0])
	gl.DeleteProgram(b.program)
	b.ctx.close()
	b.ctx = nil
}
