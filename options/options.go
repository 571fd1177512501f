package options

import "fmt"

// ShaderOptions holds the command line configuration. Fields are pointers
// so they can be handed straight to the flag package.
type ShaderOptions struct {
	VideoFile       *string // Looping background clip decoded through ffmpeg.
	MaskFile        *string // Static logo mask; the green channel is sampled.
	SettingsFile    *string // Parameter blob location. Empty selects the per-user default.
	FFMPEGPath      *string
	Help            *bool
	Width           *int
	Height          *int
	TrailResolution *int
	Platform        *string // "desktop" or "mobile"
	ColorSpace      *string // "srgb" or "linear"
	Debug           *bool   // Start with the texture-alignment debug stage.
	VSync           *bool
}

// Platform selects the host class. It is resolved once by the host and
// passed to the core; nothing below cmd queries the OS.
type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
)

type ColorSpace string

const (
	ColorSpaceSRGB   ColorSpace = "srgb"
	ColorSpaceLinear ColorSpace = "linear"
)

// RenderConfig is the explicit replacement for ad-hoc platform checks.
type RenderConfig struct {
	Platform          Platform
	ColorSpaceDefault ColorSpace
}

// Background returns the clear colour the output surface starts each frame with.
func (c RenderConfig) Background() [4]float32 {
	if c.Platform == PlatformMobile {
		return [4]float32{0.02, 0.02, 0.05, 1}
	}
	return [4]float32{0, 0, 0, 1}
}

// IsMobile reports whether touch-sized defaults should be used.
func (c RenderConfig) IsMobile() bool {
	return c.Platform == PlatformMobile
}

// RenderConfig resolves the string flags into a RenderConfig.
func (o *ShaderOptions) RenderConfig() (RenderConfig, error) {
	cfg := RenderConfig{
		Platform:          PlatformDesktop,
		ColorSpaceDefault: ColorSpaceSRGB,
	}
	if o.Platform != nil && *o.Platform != "" {
		switch p := Platform(*o.Platform); p {
		case PlatformDesktop, PlatformMobile:
			cfg.Platform = p
		default:
			return cfg, fmt.Errorf("unknown platform %q", *o.Platform)
		}
	}
	if o.ColorSpace != nil && *o.ColorSpace != "" {
		switch cs := ColorSpace(*o.ColorSpace); cs {
		case ColorSpaceSRGB, ColorSpaceLinear:
			cfg.ColorSpaceDefault = cs
		default:
			return cfg, fmt.Errorf("unknown color space %q", *o.ColorSpace)
		}
	}
	return cfg, nil
}
