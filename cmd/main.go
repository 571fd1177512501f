package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gothermal/compositor"
	"github.com/richinsley/gothermal/glfwcontext"
	"github.com/richinsley/gothermal/inputs"
	"github.com/richinsley/gothermal/media"
	"github.com/richinsley/gothermal/options"
	"github.com/richinsley/gothermal/renderer"
	"github.com/richinsley/gothermal/scene"
	"github.com/richinsley/gothermal/settings"
	"github.com/richinsley/gothermal/trail"
	"golang.org/x/image/draw"
)

const maxMaskSize = 1024

func init() {
	runtime.LockOSThread()
}

func solidImage(size int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// loadMaskImage returns the mask image, or a flat mid-grey square when no
// path was given.
func loadMaskImage(path string) (image.Image, error) {
	if path == "" {
		return solidImage(4, color.Gray{Y: 0x80}), nil
	}
	return inputs.LoadImage(path)
}

// newVideoSource opens the background clip looping over the scene's loop
// window. A missing or undecodable clip falls back to a dark still frame.
func newVideoSource(opts *options.ShaderOptions) media.Source {
	return media.Open(*opts.VideoFile, media.SourceOptions{
		FFMPEGPath: *opts.FFMPEGPath,
		LoopStart:  scene.LoopStart,
		LoopEnd:    scene.LoopEnd,
	}, solidImage(16, color.Gray{Y: 0x40}))
}

func run(opts *options.ShaderOptions) error {
	cfg, err := opts.RenderConfig()
	if err != nil {
		return err
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return err
	}
	defer glfwcontext.TerminateGraphics()

	ctx, err := glfwcontext.New(opts, cfg)
	if err != nil {
		return err
	}

	width, height := ctx.GetFramebufferSize()
	r, err := renderer.New(ctx, width, height)
	if err != nil {
		ctx.Shutdown()
		return err
	}
	defer r.Dispose()

	s := scene.New(scene.Config{
		Width:           width,
		Height:          height,
		TrailResolution: *opts.TrailResolution,
		Render:          cfg,
		Debug:           *opts.Debug,
	}, scene.Deps{
		Settings: settings.Open(*opts.SettingsFile),
		NewTrail: func(resolution int, to trail.Options) (scene.Trail, error) {
			t, err := trail.New(resolution, to)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
		NewCompositor: func() (scene.Compositor, error) {
			c, err := compositor.New(compositor.Config{
				Linear: cfg.ColorSpaceDefault == options.ColorSpaceLinear,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		LoadVideo: func() (scene.VideoTexture, error) {
			return inputs.NewVideoTexture(newVideoSource(opts)), nil
		},
		LoadMask: func() (scene.MaskTexture, error) {
			img, err := loadMaskImage(*opts.MaskFile)
			if err != nil {
				return nil, err
			}
			m, err := inputs.NewMaskTexture(img, maxMaskSize)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	})
	s.Initialize()
	r.Bind(s)

	ctx.SetTouchHandler(s.OnTouch)
	ctx.SetResizeHandler(r.SetViewport)
	ctx.RegisterKeyCallback(glfw.KeyD, func() { s.ToggleDebugMode() })
	ctx.RegisterKeyCallback(glfw.KeyR, func() {
		log.Println("Resetting parameters")
		s.ResetParameters()
	})

	r.Run()
	return nil
}

func main() {
	opts := &options.ShaderOptions{
		VideoFile:       flag.String("video", "", "Looping background video clip"),
		MaskFile:        flag.String("mask", "", "Logo mask image (green channel is used)"),
		SettingsFile:    flag.String("settings", "", "Parameter file (default ~/.config/gothermal/settings.json)"),
		FFMPEGPath:      flag.String("ffmpeg", "", "Path to ffmpeg executable"),
		Help:            flag.Bool("help", false, "Show help message"),
		Width:           flag.Int("width", 1280, "Window width"),
		Height:          flag.Int("height", 720, "Window height"),
		TrailResolution: flag.Int("trail-res", trail.DefaultResolution, "Side of the square touch trail buffer"),
		Platform:        flag.String("platform", "desktop", "Platform class: desktop or mobile"),
		ColorSpace:      flag.String("colorspace", "srgb", "Output colour space: srgb or linear"),
		Debug:           flag.Bool("debug", false, "Start with the texture alignment view"),
		VSync:           flag.Bool("vsync", true, "Pace frames to the display refresh"),
	}
	flag.Parse()

	if *opts.Help {
		fmt.Println("gothermal - touch reactive thermal gradient")
		fmt.Println("Keys: D toggles debug view, R resets parameters, Esc quits")
		flag.PrintDefaults()
		return
	}

	if err := run(opts); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
