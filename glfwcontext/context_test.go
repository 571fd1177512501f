package glfwcontext

import (
	"errors"
	"testing"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gothermal/graphics"
	"github.com/richinsley/gothermal/options"
)

func TestNewReportsContextAcquisitionError(t *testing.T) {
	cause := errors.New("no display")
	var gotLinear bool
	orig := createWindow
	createWindow = func(width, height int, linear bool) (*glfw.Window, error) {
		gotLinear = linear
		return nil, cause
	}
	defer func() { createWindow = orig }()

	w, h := 320, 240
	opts := &options.ShaderOptions{Width: &w, Height: &h}
	c, err := New(opts, options.RenderConfig{ColorSpaceDefault: options.ColorSpaceLinear})
	if c != nil {
		t.Error("New() returned a context on failure")
	}
	var acq *graphics.ContextAcquisitionError
	if !errors.As(err, &acq) {
		t.Fatalf("New() error = %v, want *graphics.ContextAcquisitionError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if !gotLinear {
		t.Error("linear output should request an sRGB capable framebuffer")
	}
}
