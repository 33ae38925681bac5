package glcompute

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
)

//go:embed gather.comp
var gatherShaderGLSL string

// compileProgram compiles a compute shader and links it into a program.
func compileProgram(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compute shader: %s", string(log))
	}
	defer gl.DeleteShader(shader)

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

// uniformLocations holds the locations of the kernel's scalar uniforms.
type uniformLocations struct {
	rowSeparation int32
	radius        int32
	aspectRatio   int32
	rows          int32
	width         int32
	height        int32
	clear         int32
}

func lookupUniforms(program uint32) (uniformLocations, error) {
	var locs uniformLocations
	for _, u := range []struct {
		name string
		loc  *int32
	}{
		{"uRowSeparation", &locs.rowSeparation},
		{"uRadius", &locs.radius},
		{"uAspectRatio", &locs.aspectRatio},
		{"uRows", &locs.rows},
		{"uWidth", &locs.width},
		{"uHeight", &locs.height},
		{"uClear", &locs.clear},
	} {
		*u.loc = gl.GetUniformLocation(program, gl.Str(u.name+"\x00"))
		if *u.loc < 0 {
			return locs, fmt.Errorf("uniform %q not found in program %d", u.name, program)
		}
	}
	return locs, nil
}
