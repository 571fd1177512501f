package renderer

import (
	"fmt"
	"log"
	"reflect"

	"github.com/richinsley/gothermal/graphics"
)

// MaxFrameDelta bounds the time step handed to the scene so a stall does
// not turn into one large jump.
const MaxFrameDelta = 1.0 / 30

// Scene is what the loop drives once per frame.
type Scene interface {
	Update(dt float64)
	Draw()
	Resize(width, height int)
	Dispose()
}

// Renderer owns the graphics context and paces the scene.
type Renderer struct {
	context graphics.Context
	scene   Scene
	width   int
	height  int

	lastTime    float64
	frameErrors int
	lastError   string
	disposed    bool
}

// New binds to ctx and sets the initial viewport. Any failure is a
// *graphics.ContextAcquisitionError.
func New(ctx graphics.Context, width, height int) (*Renderer, error) {
	if ctx == nil || (reflect.ValueOf(ctx).Kind() == reflect.Ptr && reflect.ValueOf(ctx).IsNil()) {
		return nil, &graphics.ContextAcquisitionError{Reason: "no context supplied"}
	}
	ctx.MakeCurrent()
	if err := ctx.Init(); err != nil {
		return nil, &graphics.ContextAcquisitionError{Reason: "context initialization failed", Err: err}
	}
	r := &Renderer{context: ctx}
	r.SetViewport(width, height)
	return r, nil
}

// Bind registers the scene and hands it the current output size.
func (r *Renderer) Bind(s Scene) {
	r.scene = s
	if s != nil && r.width > 0 && r.height > 0 {
		s.Resize(r.width, r.height)
	}
}

// ClampDelta limits dt to [0, MaxFrameDelta].
func ClampDelta(dt float64) float64 {
	if dt < 0 || dt != dt {
		return 0
	}
	return min(dt, MaxFrameDelta)
}

// Run presents frames until the surface asks to close or the renderer is
// disposed. Pacing comes from the context's buffer swap.
func (r *Renderer) Run() {
	if r.disposed {
		return
	}
	log.Println("Starting render loop...")
	r.lastTime = r.context.Time()
	for !r.disposed && !r.context.ShouldClose() {
		now := r.context.Time()
		dt := now - r.lastTime
		r.lastTime = now

		r.context.BeginFrame()
		r.Frame(dt)
		r.context.EndFrame()
	}
	log.Printf("Render loop stopped (%d frame errors)", r.frameErrors)
}

// Frame runs one update and draw. A panic inside the scene is logged and
// counted, and the next frame proceeds normally.
func (r *Renderer) Frame(dt float64) {
	if r.disposed || r.scene == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.recordError(fmt.Errorf("frame panic: %v", p))
		}
	}()
	r.scene.Update(ClampDelta(dt))
	r.scene.Draw()
}

func (r *Renderer) recordError(err error) {
	r.frameErrors++
	msg := err.Error()
	if msg != r.lastError || r.frameErrors%100 == 0 {
		log.Printf("Frame %d failed: %v", r.frameErrors, err)
	}
	r.lastError = msg
}

// FrameErrors returns the number of frames that failed so far.
func (r *Renderer) FrameErrors() int {
	return r.frameErrors
}

// SetViewport updates the context viewport and tells the scene about the
// new output size.
func (r *Renderer) SetViewport(width, height int) {
	if r.disposed || width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height
	r.context.SetViewport(width, height)
	if r.scene != nil {
		r.scene.Resize(width, height)
	}
}

func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Dispose releases the scene and the context. Calling it again does nothing.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	if r.scene != nil {
		r.scene.Dispose()
		r.scene = nil
	}
	r.context.Shutdown()
}
