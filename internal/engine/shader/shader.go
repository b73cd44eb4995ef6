// Package shader compiles the GLSL programs the foliage renderer draws with.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Program is a linked program with cached uniform locations.
type Program struct {
	ID       uint32
	uniforms map[string]int32
}

// Compile builds the program for opts.
func Compile(opts Options) (*Program, error) {
	vs, fs := Source(opts)
	id, err := CompileProgram(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", opts, err)
	}
	return &Program{ID: id, uniforms: make(map[string]int32)}, nil
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the location of name, -1 when the program does not use it.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := GetUniform(p.ID, name)
	p.uniforms[name] = loc
	return loc
}

// SetMat4 uploads a column-major matrix.
func (p *Program) SetMat4(name string, m *float32) {
	if loc := p.Uniform(name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, m)
	}
}

// SetVec4 uploads a vec4.
func (p *Program) SetVec4(name string, v [4]float32) {
	if loc := p.Uniform(name); loc >= 0 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

// SetVec3 uploads a vec3.
func (p *Program) SetVec3(name string, x, y, z float32) {
	if loc := p.Uniform(name); loc >= 0 {
		gl.Uniform3f(loc, x, y, z)
	}
}

// SetVec2 uploads a vec2.
func (p *Program) SetVec2(name string, x, y float32) {
	if loc := p.Uniform(name); loc >= 0 {
		gl.Uniform2f(loc, x, y)
	}
}

// SetFloat uploads a float.
func (p *Program) SetFloat(name string, v float32) {
	if loc := p.Uniform(name); loc >= 0 {
		gl.Uniform1f(loc, v)
	}
}

// SetInt uploads an int or sampler unit.
func (p *Program) SetInt(name string, v int32) {
	if loc := p.Uniform(name); loc >= 0 {
		gl.Uniform1i(loc, v)
	}
}

// Delete frees the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", programLog(program))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
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
		return 0, fmt.Errorf("%s shader: %s", name, gl.GoStr(&log[0]))
	}

	return shader, nil
}

func programLog(program uint32) string {
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	log := make([]byte, logLen+1)
	gl.GetProgramInfoLog(program, logLen, nil, &log[0])
	return gl.GoStr(&log[0])
}

// GetUniform returns the uniform location for the given name, -1 if the
// uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
