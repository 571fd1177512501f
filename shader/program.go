package shader

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	gst "github.com/richinsley/goshadertranslator"
	xlate "github.com/richinsley/gothermal/translator"
)

// CompileError reports a shader stage that failed to translate, compile or
// link. The log is kept so a black frame always has a diagnostic.
type CompileError struct {
	Stage string
	Log   string
	Err   error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s shader failed", e.Stage)
	if e.Log != "" {
		msg += ": " + strings.TrimRight(e.Log, "\x00\n ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

// Program is a linked GL program plus the translator's uniform name map.
type Program struct {
	ID        uint32
	mapped    map[string]string
	locations map[string]int32
}

// NewProgram translates the WebGL2 fragment source to GLSL 4.10 and links
// it with the shared vertex stage.
func NewProgram(fragmentSource string) (*Program, error) {
	p := &Program{
		mapped:    make(map[string]string),
		locations: make(map[string]int32),
	}

	translator, err := xlate.GetTranslator()
	if err != nil {
		return nil, &CompileError{Stage: "fragment", Err: fmt.Errorf("translator unavailable: %w", err)}
	}
	fsShader, err := translator.TranslateShader(fragmentSource, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return nil, &CompileError{Stage: "fragment", Err: fmt.Errorf("translation failed: %w", err)}
	}
	for name, v := range fsShader.Variables {
		p.mapped[name] = v.MappedName
	}

	id, err := newProgram(GenerateVertexShader(), fsShader.Code)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Location resolves a source-level uniform name, including array elements
// such as "u_colors[3]", to its location. Unknown or optimised-out uniforms
// return -1.
func (p *Program) Location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(p.resolve(name)+"\x00"))
	p.locations[name] = loc
	return loc
}

func (p *Program) resolve(name string) string {
	if len(p.mapped) == 0 {
		return name
	}
	if m, ok := p.mapped[name]; ok {
		return m
	}
	if i := strings.IndexByte(name, '['); i > 0 {
		if m, ok := p.mapped[name[:i]]; ok {
			return m + name[i:]
		}
		if m, ok := p.mapped[name[:i]+"[0]"]; ok {
			return strings.TrimSuffix(m, "[0]") + name[i:]
		}
	}
	return name
}

// Delete releases the GL program. It is safe to call more than once.
func (p *Program) Delete() {
	if p == nil || p.ID == 0 {
		return
	}
	gl.DeleteProgram(p.ID)
	p.ID = 0
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, &CompileError{Stage: "vertex", Err: err}
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, &CompileError{Stage: "fragment", Err: err}
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &CompileError{Stage: "link", Log: log}
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}
