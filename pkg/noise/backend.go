package noise

import (
	"fmt"
	"slices"
	"sync"
)

// Job is one synthesis level. Field and Kernel describe it for CPU
// backends; Buffers carries the same level packed for GPU kernels.
type Job struct {
	Level   int
	Field   *Field
	Kernel  Kernel
	Buffers *Buffers
	Clear   bool // zero dst before accumulating
}

// Backend runs synthesis jobs into a raster.
//
// Accelerated backends register themselves from init and are enabled by a
// blank import. A backend that cannot run a job returns ErrFallbackToCPU
// without touching dst, and the caller reruns the job on the CPU.
type Backend interface {
	Name() string
	Dispatch(job *Job, dst *Raster) error
}

// CPU splats nodes on the CPU. Workers <= 1 runs the single-threaded
// reference path.
type CPU struct {
	Workers int
}

// Name implements Backend.
func (c *CPU) Name() string { return "cpu" }

// Dispatch implements Backend.
func (c *CPU) Dispatch(job *Job, dst *Raster) error {
	if err := checkJob(job.Field, job.Kernel, dst); err != nil {
		return err
	}
	if job.Clear {
		dst.Clear()
	}
	if c.Workers <= 1 {
		return Splat(job.Field, job.Kernel, dst)
	}
	return SplatParallel(job.Field, job.Kernel, dst, c.Workers)
}

// Gather evaluates every pixel independently with a Sampler, the way a
// per-pixel GPU kernel does.
type Gather struct {
	Workers int
}

// Name implements Backend.
func (g *Gather) Name() string { return "gather" }

// Dispatch implements Backend.
func (g *Gather) Dispatch(job *Job, dst *Raster) error {
	if err := checkJob(job.Field, job.Kernel, dst); err != nil {
		return err
	}
	s, err := NewSampler(job.Field, job.Kernel)
	if err != nil {
		return err
	}
	if job.Clear {
		dst.Clear()
	}
	return s.Render(dst, g.Workers)
}

// Factory creates a backend.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
)

func init() {
	Register("cpu", func() Backend { return &CPU{} })
	Register("gather", func() Backend { return &Gather{} })
}

// Register makes a backend available under name, replacing any previous
// registration.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// NewBackend returns a new instance of the named backend.
func NewBackend(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, Backends())
	}
	return factory(), nil
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
