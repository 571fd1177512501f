package glfwcontext

import (
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gothermal/graphics"
	options "github.com/richinsley/gothermal/options"
)

var glInitOnce sync.Once

// TouchHandler receives a position normalised to the window, origin top
// left, and whether the primary button is held.
type TouchHandler func(x, y float32, active bool)

// ResizeHandler receives the new framebuffer size in pixels.
type ResizeHandler func(width, height int)

// Context is a GLFW window with a GL 4.1 core context. Mouse input is
// translated into single-pointer touch events.
type Context struct {
	window     *glfw.Window
	background [4]float32
	linear     bool

	touchHandler  TouchHandler
	resizeHandler ResizeHandler
	mouseDown     bool
	lastX, lastY  float32

	// A map to store functions to be called on key presses.
	keyCallbacks map[glfw.Key]func()
}

// createWindow opens a window with a GL 4.1 core context.
var createWindow = func(width, height int, linear bool) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	if linear {
		glfw.WindowHint(glfw.SRGBCapable, glfw.True)
	}
	return glfw.CreateWindow(width, height, "gothermal", nil, nil)
}

// New creates the window. InitGraphics must have been called first. A
// failure is reported as a *graphics.ContextAcquisitionError.
func New(opts *options.ShaderOptions, cfg options.RenderConfig) (*Context, error) {
	linear := cfg.ColorSpaceDefault == options.ColorSpaceLinear
	win, err := createWindow(*opts.Width, *opts.Height, linear)
	if err != nil {
		return nil, &graphics.ContextAcquisitionError{Reason: "window creation failed", Err: err}
	}

	c := &Context{
		window:       win,
		background:   cfg.Background(),
		linear:       linear,
		keyCallbacks: make(map[glfw.Key]func()),
	}

	win.MakeContextCurrent()
	if opts.VSync == nil || *opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetMouseButtonCallback(c.glfwMouseButtonCallback)
	win.SetCursorPosCallback(c.glfwCursorPosCallback)
	win.SetFramebufferSizeCallback(c.glfwFramebufferSizeCallback)

	return c, nil
}

// Init loads the GL entry points and checks the version. Framebuffer
// objects and half-float colour attachments are core in 4.1, so a 4.1
// context is all the renderer needs.
func (c *Context) Init() error {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	log.Printf("OpenGL version: %s", version)
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 1) {
		return fmt.Errorf("OpenGL 4.1 required, got %s", strings.TrimSpace(version))
	}

	if c.linear {
		gl.Enable(gl.FRAMEBUFFER_SRGB)
	}
	return nil
}

// SetTouchHandler registers the receiver of normalised touch events.
func (c *Context) SetTouchHandler(h TouchHandler) {
	c.touchHandler = h
}

// SetResizeHandler registers the receiver of framebuffer size changes.
func (c *Context) SetResizeHandler(h ResizeHandler) {
	c.resizeHandler = h
}

// RegisterKeyCallback allows the main application to register a function to be
// called when a specific key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

// glfwKeyCallback is the function that will be called by GLFW on a key event.
func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	// Handle the default Escape key behavior
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}

	if action == glfw.Press {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

func (c *Context) normalizedCursor() (float32, float32) {
	x, y := c.window.GetCursorPos()
	w, h := c.window.GetSize()
	if w <= 0 || h <= 0 {
		return 0.5, 0.5
	}
	return float32(x / float64(w)), float32(y / float64(h))
}

func (c *Context) glfwMouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	c.mouseDown = action == glfw.Press
	c.lastX, c.lastY = c.normalizedCursor()
	c.emitTouch()
}

func (c *Context) glfwCursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	c.lastX, c.lastY = c.normalizedCursor()
	if c.mouseDown {
		c.emitTouch()
	}
}

func (c *Context) glfwFramebufferSizeCallback(w *glfw.Window, width, height int) {
	if c.resizeHandler != nil {
		c.resizeHandler(width, height)
	}
}

func (c *Context) emitTouch() {
	if c.touchHandler != nil {
		c.touchHandler(c.lastX, c.lastY, c.mouseDown)
	}
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	if c.window == nil {
		return
	}
	c.window.Destroy()
	c.window = nil
}

func (c *Context) ShouldClose() bool {
	return c.window == nil || c.window.ShouldClose()
}

func (c *Context) BeginFrame() {
	gl.ClearColor(c.background[0], c.background[1], c.background[2], c.background[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// EndFrame presents the frame and polls input. A held button is reported
// again every frame since the scene releases holds that are not re-asserted.
func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
	if c.mouseDown {
		c.emitTouch()
	}
}

func (c *Context) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes the main graphics subsystem (GLFW). Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return &graphics.ContextAcquisitionError{Reason: "GLFW initialization failed", Err: err}
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down the graphics subsystem. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}
