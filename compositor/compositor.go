package compositor

import (
	"log"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/gothermal/inputs"
	"github.com/richinsley/gothermal/shader"
)

// Config describes the output the compositor draws into.
type Config struct {
	// Linear is set when the default framebuffer encodes to sRGB on write,
	// so palette stops have to be supplied as linear values.
	Linear bool
}

// Compositor owns the thermal (or debug) program, its uniforms and the
// full-screen quad it draws.
type Compositor struct {
	cfg      Config
	program  *shader.Program
	quad     *inputs.Quad
	uniforms Uniforms
	debug    bool
}

// New builds the normal thermal stage. The context must be current.
func New(cfg Config) (*Compositor, error) {
	c := &Compositor{
		cfg:      cfg,
		uniforms: DefaultUniforms(),
	}
	if err := c.Build(false); err != nil {
		return nil, err
	}
	return c, nil
}

// Build compiles the selected fragment stage. On failure the returned
// error is a *shader.CompileError and the previous program stays in use.
func (c *Compositor) Build(debug bool) error {
	program, err := shader.NewProgram(shader.GetThermalFragmentShader(debug))
	if err != nil {
		return err
	}
	c.release()
	c.program = program
	c.quad = inputs.NewQuad()
	c.debug = debug
	if debug {
		log.Println("Compositor: debug stage active")
	}
	return nil
}

// Debug reports whether the debug stage is bound.
func (c *Compositor) Debug() bool {
	return c.debug
}

// Uniforms returns the uniform set for the scene to write into.
func (c *Compositor) Uniforms() *Uniforms {
	return &c.uniforms
}

// UpdateUniform is a pass-through write of a scalar uniform by name.
func (c *Compositor) UpdateUniform(name string, value float32) error {
	return c.uniforms.Set(name, value)
}

// Draw issues the composite pass over whatever the target already holds.
func (c *Compositor) Draw() {
	if c.program == nil || c.quad == nil {
		return
	}
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	c.program.Use()
	u := c.frameUniforms()
	u.ApplyTo(c.program)
	c.quad.Draw()
	unbindTextures()
	gl.UseProgram(0)
}

// frameUniforms is the uniform set as uploaded, in the output colour space.
func (c *Compositor) frameUniforms() Uniforms {
	u := c.uniforms
	if c.cfg.Linear {
		u.Palette = u.Palette.Linearize()
	}
	return u
}

func (c *Compositor) release() {
	if c.program != nil {
		c.program.Delete()
		c.program = nil
	}
	if c.quad != nil {
		c.quad.Destroy()
		c.quad = nil
	}
}

// Dispose releases the program and geometry. It is safe to call twice.
func (c *Compositor) Dispose() {
	c.release()
}
