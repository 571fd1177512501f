package scene

import (
	"errors"
	"log"
	"math/rand/v2"

	"github.com/richinsley/gothermal/compositor"
	"github.com/richinsley/gothermal/options"
	"github.com/richinsley/gothermal/settings"
	"github.com/richinsley/gothermal/trail"
)

const (
	// Playback wraps from LoopEnd back to LoopStart of the clip. Sources
	// that loop the window themselves never report a position past LoopEnd.
	LoopStart = 2.95
	LoopEnd   = 11.95

	// MaskCoverage is the share of the content square the mask's longer
	// side spans.
	MaskCoverage = 0.8

	TouchFollowRate = 0.8
	HoldDampening   = 0.95
	HoldRate        = 0.01
	AmountStep      = 0.05
	VideoBlendRate  = 0.1

	HeatCap     = 1.3
	HeatEpsilon = 0.001

	// Releases inside this fraction of the top-left corner toggle debug mode.
	DebugCorner = 0.1

	initialAmount     = 0.3
	initialVideoBlend = 0.3
	defaultTrailRatio = 0.1
)

// Compositor is the composite pass the controller programs each frame.
type Compositor interface {
	Build(debug bool) error
	Uniforms() *compositor.Uniforms
	Draw()
	Dispose()
}

// Trail is the touch accumulation pass.
type Trail interface {
	Texture() uint32
	UpdatePosition(p [2]float32, worldSpace bool)
	UpdateDraw(heat float32)
	UpdateDirection(v [2]float32)
	LastEventUV() [2]float32
	Advance(dt float64)
	Resize(width, height int)
	Render()
	Dispose()
}

// Texture is a sampleable input that may become ready some time after creation.
type Texture interface {
	TextureID() uint32
	Ready() bool
	Update()
	Destroy()
}

// MaskTexture is a Texture with a fixed texel size.
type MaskTexture interface {
	Texture
	Resolution() [2]float32
}

// VideoTexture is a Texture backed by a seekable clip.
type VideoTexture interface {
	Texture
	Position() float64
	Seek(seconds float64)
}

// Deps are the factories and collaborators the controller builds its
// passes and inputs from. Any factory may be nil.
type Deps struct {
	Settings      settings.Store
	NewTrail      func(resolution int, opts trail.Options) (Trail, error)
	NewCompositor func() (Compositor, error)
	LoadVideo     func() (VideoTexture, error)
	LoadMask      func() (MaskTexture, error)
	// Random feeds the per-frame dither seed. Defaults to math/rand/v2.
	Random func() float32
}

type Config struct {
	Width           int
	Height          int
	TrailResolution int
	// TrailRadius is the splat radius as a fraction of the trail buffer.
	TrailRadius float32
	Render      options.RenderConfig
	Debug       bool
}

// TouchState is the only state written from input callbacks.
type TouchState struct {
	Current    [2]float32
	Target     [2]float32
	HoldActive bool
	Heat       float64
}

// Controller owns the animation state machine. It is driven from a single
// render thread; input callbacks must be delivered on that same thread.
type Controller struct {
	cfg  Config
	deps Deps

	params  AnimationParameters
	palette compositor.Palette

	trail      Trail
	compositor Compositor
	video      VideoTexture
	mask       MaskTexture

	clock      float64
	amount     SmoothedScalar
	videoBlend SmoothedScalar
	hold       SmoothedScalar
	touch      TouchState

	width       int
	height      int
	halfExtents [2]float32

	debug       bool
	initialized bool
	disposed    bool
}

func New(cfg Config, deps Deps) *Controller {
	if deps.Random == nil {
		deps.Random = rand.Float32
	}
	return &Controller{
		cfg:         cfg,
		deps:        deps,
		params:      DefaultParameters(),
		palette:     compositor.DefaultPalette(),
		hold:        SmoothedScalar{Value: 1, Target: 1},
		halfExtents: [2]float32{1, 1},
	}
}

// Initialize loads saved parameters and builds the passes and inputs.
// Failures are logged; a controller that could not build its passes stays
// not ready and renders nothing.
func (c *Controller) Initialize() {
	if c.initialized || c.disposed {
		return
	}
	c.loadParameters()

	if c.deps.NewTrail != nil {
		radius := c.cfg.TrailRadius
		if radius <= 0 {
			radius = defaultTrailRatio
		}
		t, err := c.deps.NewTrail(c.cfg.TrailResolution, trail.Options{
			RadiusRatio: radius,
			IsMobile:    c.cfg.Render.IsMobile(),
		})
		if err != nil {
			log.Printf("Failed to create trail accumulator: %v", err)
			return
		}
		c.trail = t
	}

	if c.deps.NewCompositor == nil {
		log.Println("Scene: no compositor factory, nothing will be drawn")
		c.releasePasses()
		return
	}
	comp, err := c.deps.NewCompositor()
	if err != nil {
		log.Printf("Failed to build compositor: %v", err)
		c.releasePasses()
		return
	}
	c.compositor = comp

	if c.deps.LoadVideo != nil {
		v, err := c.deps.LoadVideo()
		if err != nil {
			log.Printf("Failed to load video: %v", err)
		} else {
			c.video = v
		}
	}
	if c.deps.LoadMask != nil {
		m, err := c.deps.LoadMask()
		if err != nil {
			log.Printf("Failed to load mask: %v", err)
		} else {
			c.mask = m
		}
	}

	c.OnResize(c.cfg.Width, c.cfg.Height)

	c.amount = SmoothedScalar{Value: initialAmount, Target: 1}
	c.videoBlend = SmoothedScalar{Value: initialVideoBlend, Target: 1}
	c.hold = SmoothedScalar{Value: 1, Target: 1}
	c.initialized = true

	if c.cfg.Debug {
		c.ToggleDebugMode()
	}
}

func (c *Controller) loadParameters() {
	if c.deps.Settings == nil {
		return
	}
	blob, err := c.deps.Settings.Load()
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			log.Println("No saved parameters, using defaults")
		} else {
			log.Printf("Failed to load parameters, using defaults: %v", err)
		}
		return
	}
	params, err := ParseParameters(blob)
	if err != nil {
		log.Printf("Invalid saved parameters, using defaults: %v", err)
	}
	c.params = params
	c.applyPalette()
}

func (c *Controller) applyPalette() {
	if len(c.params.Palette) == 0 {
		c.palette = compositor.DefaultPalette()
		return
	}
	p, err := compositor.ParsePalette(c.params.Palette)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	c.palette = p
}

// Ready reports whether the controller is built and both inputs have
// delivered a first frame.
func (c *Controller) Ready() bool {
	return c.initialized && !c.disposed &&
		c.video != nil && c.video.Ready() &&
		c.mask != nil && c.mask.Ready()
}

// Update advances the animation by dt seconds and writes the uniform set.
func (c *Controller) Update(dt float64) {
	if !c.initialized || c.disposed {
		return
	}
	if c.video != nil {
		c.video.Update()
	}
	if c.mask != nil {
		c.mask.Update()
	}
	if !c.Ready() {
		return
	}

	c.clock += dt

	if c.video.Position() >= LoopEnd {
		c.video.Seek(LoopStart)
	}

	prev := c.touch.Current
	f := float32(approachFactor(TouchFollowRate, dt))
	c.touch.Current[0] += (c.touch.Target[0] - c.touch.Current[0]) * f
	c.touch.Current[1] += (c.touch.Target[1] - c.touch.Current[1]) * f

	if c.touch.HoldActive {
		c.hold.Target = HoldDampening
	} else {
		c.hold.Target = 1
	}
	c.hold.Advance(HoldRate, dt)

	c.amount.Step(AmountStep)

	if c.touch.HoldActive {
		c.touch.Heat = min(c.touch.Heat+c.params.HeatSensitivity*dt*60, HeatCap)
	} else {
		c.touch.Heat *= c.params.HeatDecay
		if c.touch.Heat < HeatEpsilon {
			c.touch.Heat = 0
		}
	}
	if c.trail != nil {
		c.trail.UpdatePosition(c.touch.Current, true)
		c.trail.UpdateDirection([2]float32{c.touch.Current[0] - prev[0], c.touch.Current[1] - prev[1]})
		c.trail.UpdateDraw(float32(c.touch.Heat * c.params.Reactivity))
		c.trail.Advance(dt)
	}

	c.videoBlend.Advance(VideoBlendRate, dt)

	c.writeUniforms()

	c.touch.HoldActive = false
	if c.trail != nil {
		c.trail.UpdateDirection([2]float32{})
	}
}

func (c *Controller) writeUniforms() {
	u := c.compositor.Uniforms()
	if c.trail != nil {
		u.Trail = c.trail.Texture()
		u.Touch = ContentUV(c.trail.LastEventUV(), c.halfExtents)
	}
	u.Video = c.video.TextureID()
	u.Mask = c.mask.TextureID()
	u.MaskScale = MaskScale(c.mask.Resolution())

	u.Resolution = [2]float32{float32(c.width), float32(c.height)}
	u.HalfExtents = c.halfExtents

	u.Random = c.deps.Random()
	u.Opacity = float32(c.hold.Value)
	u.Amount = float32(c.amount.Value)
	u.Power = float32(c.params.ContrastPower)
	u.Saturation = float32(c.params.ColorSaturation)
	u.GradientShift = float32(c.params.GradientShift)
	u.InteractionSize = float32(c.params.InteractionRadius)
	u.VideoBlend = float32(c.videoBlend.Value * c.params.VideoBlendAmount)
	u.Intensity = float32(c.params.EffectIntensity)
	u.Palette = c.palette
}

// Draw issues the trail pass and then the composite that samples it.
func (c *Controller) Draw() {
	if !c.Ready() || c.compositor == nil {
		return
	}
	if c.trail != nil {
		c.trail.Render()
	}
	c.compositor.Draw()
}

// OnTouch takes a position normalised to the visible frame, origin top
// left. A release in the top-left corner toggles debug mode instead.
func (c *Controller) OnTouch(x, y float32, active bool) {
	if c.disposed {
		return
	}
	if !active && x < DebugCorner && y < DebugCorner {
		c.ToggleDebugMode()
		return
	}
	c.touch.Target = [2]float32{
		(2*x - 1) * c.halfExtents[0],
		(1 - 2*y) * c.halfExtents[1],
	}
	c.touch.HoldActive = active
	if c.trail != nil {
		c.trail.UpdatePosition([2]float32{x, 1 - y}, false)
	}
}

// ToggleDebugMode swaps between the thermal and debug stages. If the new
// stage fails to compile the current one stays bound and the error is returned.
func (c *Controller) ToggleDebugMode() error {
	if c.compositor == nil || c.disposed {
		return errors.New("scene has no compositor")
	}
	next := !c.debug
	if err := c.compositor.Build(next); err != nil {
		log.Printf("Failed to switch debug mode: %v", err)
		return err
	}
	c.debug = next
	log.Printf("Debug mode: %v", c.debug)
	return nil
}

// Framing returns the orthographic half-extents that keep content 1:1 by
// widening the longer axis.
func Framing(width, height int) [2]float32 {
	if width <= 0 || height <= 0 {
		return [2]float32{1, 1}
	}
	if width >= height {
		return [2]float32{float32(width) / float32(height), 1}
	}
	return [2]float32{1, float32(height) / float32(width)}
}

// ContentUV maps a window uv, origin bottom left, into the 0..1 uv of the
// framed content square, which is also the trail buffer's uv.
func ContentUV(uv, halfExtents [2]float32) [2]float32 {
	return [2]float32{
		(uv[0]-0.5)*halfExtents[0] + 0.5,
		(uv[1]-0.5)*halfExtents[1] + 0.5,
	}
}

// MaskScale keeps a mask of the given texel size at its own aspect ratio
// inside the content square.
func MaskScale(res [2]float32) [2]float32 {
	if res[0] <= 0 || res[1] <= 0 {
		return [2]float32{MaskCoverage, MaskCoverage}
	}
	if res[0] >= res[1] {
		return [2]float32{MaskCoverage, MaskCoverage * res[1] / res[0]}
	}
	return [2]float32{MaskCoverage * res[0] / res[1], MaskCoverage}
}

// OnResize recomputes the framing for a new output size.
func (c *Controller) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.halfExtents = Framing(width, height)
	if c.trail != nil {
		c.trail.Resize(width, height)
	}
}

// Resize satisfies the render loop's scene contract.
func (c *Controller) Resize(width, height int) {
	c.OnResize(width, height)
}

// SetParameter changes one scalar parameter and persists the set.
func (c *Controller) SetParameter(name string, value float64) error {
	if err := c.params.Set(name, value); err != nil {
		return err
	}
	c.persist()
	return nil
}

// SetPalette replaces the gradient stops and persists the set.
func (c *Controller) SetPalette(colors []string) {
	c.params.Palette = append([]string(nil), colors...)
	c.applyPalette()
	c.persist()
}

// ResetParameters restores every parameter, palette included, to its default.
func (c *Controller) ResetParameters() {
	c.params = DefaultParameters()
	c.applyPalette()
	c.persist()
}

func (c *Controller) persist() {
	if c.deps.Settings == nil {
		return
	}
	blob, err := c.params.Encode()
	if err != nil {
		log.Printf("Failed to encode parameters: %v", err)
		return
	}
	if err := c.deps.Settings.Save(blob); err != nil {
		log.Printf("Failed to save parameters: %v", err)
	}
}

func (c *Controller) releasePasses() {
	if c.trail != nil {
		c.trail.Dispose()
		c.trail = nil
	}
	if c.compositor != nil {
		c.compositor.Dispose()
		c.compositor = nil
	}
}

// Dispose releases the passes and inputs. Later calls do nothing.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.releasePasses()
	if c.video != nil {
		c.video.Destroy()
		c.video = nil
	}
	if c.mask != nil {
		c.mask.Destroy()
		c.mask = nil
	}
}

func (c *Controller) Parameters() AnimationParameters { return c.params }
func (c *Controller) Touch() TouchState               { return c.touch }
func (c *Controller) Amount() SmoothedScalar          { return c.amount }
func (c *Controller) VideoBlend() SmoothedScalar      { return c.videoBlend }
func (c *Controller) Hold() SmoothedScalar            { return c.hold }
func (c *Controller) HalfExtents() [2]float32         { return c.halfExtents }
func (c *Controller) Debug() bool                     { return c.debug }
func (c *Controller) Clock() float64                  { return c.clock }
