package trail

import (
	"math"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/gothermal/inputs"
	"github.com/richinsley/gothermal/shader"
)

const (
	// DefaultResolution is the side of the square accumulation buffer.
	DefaultResolution = 256
	// DecayPerFrame is the fraction of accumulated heat kept after one
	// frame at 60 fps.
	DecayPerFrame = 0.965
	// DirectionGain scales a per-frame movement delta into the RG channels.
	DirectionGain = 24.0

	mobileRadiusScale = 1.4
)

// Options configures an Accumulator.
type Options struct {
	// RadiusRatio is the splat radius as a fraction of the buffer side.
	RadiusRatio float32
	IsMobile    bool
}

type splat struct {
	point     [2]float32
	direction [2]float32
	heat      float32
	radius    float32
	decay     float32
}

// Accumulator records touch heat into a fixed-size offscreen ping-pong
// buffer. Each rendered frame decays the previous contents and adds a
// gaussian splat at the current position.
type Accumulator struct {
	resolution int
	opts       Options

	position  [2]float32 // buffer uv of the rendered trail head
	eventUV   [2]float32 // raw uv of the latest touch event
	heat      float32
	direction [2]float32

	pending    splat
	hasPending bool

	outWidth  int
	outHeight int

	buffer   *inputs.Buffer
	quad     *inputs.Quad
	program  *shader.Program
	disposed bool
}

func newAccumulator(resolution int, opts Options) *Accumulator {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	if opts.RadiusRatio <= 0 {
		opts.RadiusRatio = 0.1
	}
	return &Accumulator{
		resolution: resolution,
		opts:       opts,
		position:   [2]float32{0.5, 0.5},
		eventUV:    [2]float32{0.5, 0.5},
	}
}

// New creates the accumulator and its GL resources. The context must be current.
func New(resolution int, opts Options) (*Accumulator, error) {
	a := newAccumulator(resolution, opts)

	program, err := shader.NewProgram(shader.GetTrailFragmentShader())
	if err != nil {
		return nil, err
	}
	buffer, err := inputs.NewBuffer(a.resolution, a.resolution)
	if err != nil {
		program.Delete()
		return nil, err
	}
	a.program = program
	a.buffer = buffer
	a.quad = inputs.NewQuad()
	return a, nil
}

// Texture returns the most recently completed accumulation.
func (a *Accumulator) Texture() uint32 {
	if a.buffer == nil {
		return 0
	}
	return a.buffer.GetTextureID()
}

// UpdatePosition records a sample point. World-space points are in the
// scene's centred [-1,1] space; otherwise p is a raw [0,1] uv from a touch event.
func (a *Accumulator) UpdatePosition(p [2]float32, worldSpace bool) {
	if worldSpace {
		a.position = [2]float32{(p[0] + 1) * 0.5, (p[1] + 1) * 0.5}
		return
	}
	a.eventUV = p
}

// UpdateDraw sets the heat of the next splat.
func (a *Accumulator) UpdateDraw(heat float32) {
	a.heat = max(heat, 0)
}

// UpdateDirection sets the instantaneous movement hint for the next splat.
func (a *Accumulator) UpdateDirection(v [2]float32) {
	a.direction = v
}

// LastEventUV returns the raw uv of the latest touch event.
func (a *Accumulator) LastEventUV() [2]float32 {
	return a.eventUV
}

// Advance snapshots the current inputs into the splat the next Render
// draws, with a decay factor compensated for dt.
func (a *Accumulator) Advance(dt float64) {
	dir := [2]float32{a.direction[0] * DirectionGain, a.direction[1] * DirectionGain}
	if l := float32(math.Hypot(float64(dir[0]), float64(dir[1]))); l > 1 {
		dir[0] /= l
		dir[1] /= l
	}
	decay := float32(math.Pow(DecayPerFrame, math.Max(dt, 0)*60))
	if a.hasPending {
		// Two advances without a render: fold the skipped decay in.
		decay *= a.pending.decay
	}
	a.pending = splat{
		point:     a.position,
		direction: dir,
		heat:      a.heat,
		radius:    a.radius(a.heat),
		decay:     decay,
	}
	a.hasPending = true
}

func (a *Accumulator) radius(heat float32) float32 {
	r := a.opts.RadiusRatio
	if a.opts.IsMobile {
		r *= mobileRadiusScale
	}
	return r * (0.5 + min(heat, 1.3)*0.5)
}

// Resize records the output surface size so Render can restore the viewport.
func (a *Accumulator) Resize(width, height int) {
	a.outWidth, a.outHeight = width, height
}

// Render runs the accumulation pass into the offscreen buffer. It must
// be issued before the composite that samples Texture.
func (a *Accumulator) Render() {
	if a.disposed || a.buffer == nil || !a.hasPending {
		return
	}
	s := a.pending
	a.hasPending = false

	a.buffer.BindForWriting()
	gl.Disable(gl.BLEND)
	a.program.Use()
	gl.Uniform2f(a.program.Location("u_resolution"), float32(a.resolution), float32(a.resolution))
	gl.Uniform1f(a.program.Location("u_decay"), s.decay)
	gl.Uniform2f(a.program.Location("u_point"), s.point[0], s.point[1])
	gl.Uniform1f(a.program.Location("u_radius"), s.radius)
	gl.Uniform1f(a.program.Location("u_heat"), s.heat)
	gl.Uniform2f(a.program.Location("u_direction"), s.direction[0], s.direction[1])

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, a.buffer.GetTextureID())
	gl.Uniform1i(a.program.Location("u_prev"), 0)
	a.quad.Draw()
	gl.BindTexture(gl.TEXTURE_2D, 0)

	a.buffer.UnbindForWriting()
	a.buffer.SwapBuffers()
	if a.outWidth > 0 && a.outHeight > 0 {
		gl.Viewport(0, 0, int32(a.outWidth), int32(a.outHeight))
	}
}

// Dispose releases the offscreen target. It is safe to call more than once.
func (a *Accumulator) Dispose() {
	if a.disposed {
		return
	}
	a.disposed = true
	if a.buffer != nil {
		a.buffer.Destroy()
		a.buffer = nil
	}
	if a.quad != nil {
		a.quad.Destroy()
		a.quad = nil
	}
	if a.program != nil {
		a.program.Delete()
		a.program = nil
	}
}
