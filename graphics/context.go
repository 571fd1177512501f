package graphics

import "fmt"

// Context defines the interface for an OpenGL context bound to an output surface.
type Context interface {
	MakeCurrent()
	// Init loads the GL entry points and verifies the features the
	// renderer depends on. It must be called with the context current.
	Init() error
	Shutdown()
	ShouldClose() bool
	// BeginFrame clears the default framebuffer to the background colour.
	BeginFrame()
	EndFrame()
	GetFramebufferSize() (int, int)
	SetViewport(width, height int)
	Time() float64
}

// ContextAcquisitionError reports that no usable graphics context could be
// bound. It is fatal to rendering and is never retried automatically.
type ContextAcquisitionError struct {
	Reason string
	Err    error
}

func (e *ContextAcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graphics context unavailable: %s: %v", e.Reason, e.Err)
	}
	return "graphics context unavailable: " + e.Reason
}

func (e *ContextAcquisitionError) Unwrap() error { return e.Err }
