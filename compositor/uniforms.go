package compositor

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/gothermal/shader"
)

// Uniforms is the complete state the composite stages read. The scene
// writes it once per frame; nothing reads it back except ApplyTo.
type Uniforms struct {
	Trail uint32
	Video uint32
	Mask  uint32

	Resolution  [2]float32
	HalfExtents [2]float32

	Random          float32
	Opacity         float32
	Amount          float32
	Power           float32
	Saturation      float32
	GradientShift   float32
	InteractionSize float32
	VideoBlend      float32
	Intensity       float32

	MaskScale  [2]float32
	MaskOffset [2]float32

	Palette      Palette
	BlendCenters [Transitions]float32
	FadeWidths   [Transitions]float32

	// Touch is the latest touch in content uv, drawn as a marker by the debug
	// stage over the trail band.
	Touch [2]float32
}

// DefaultUniforms returns the state used before the first scene update.
func DefaultUniforms() Uniforms {
	return Uniforms{
		Resolution:      [2]float32{1, 1},
		HalfExtents:     [2]float32{1, 1},
		Opacity:         1,
		Power:           1,
		Saturation:      1,
		InteractionSize: 1,
		Intensity:       1,
		MaskScale:       [2]float32{0.8, 0.8},
		Palette:         DefaultPalette(),
		BlendCenters:    DefaultBlendCenters,
		FadeWidths:      DefaultFadeWidths,
	}
}

// Set writes a scalar uniform by its shader-facing name. It performs no
// range validation.
func (u *Uniforms) Set(name string, value float32) error {
	switch name {
	case "u_random":
		u.Random = value
	case "u_opacity":
		u.Opacity = value
	case "u_amount":
		u.Amount = value
	case "u_power":
		u.Power = value
	case "u_saturation":
		u.Saturation = value
	case "u_shift":
		u.GradientShift = value
	case "u_interactionSize":
		u.InteractionSize = value
	case "u_videoBlend":
		u.VideoBlend = value
	case "u_intensity":
		u.Intensity = value
	default:
		return fmt.Errorf("unknown scalar uniform %q", name)
	}
	return nil
}

// ApplyTo binds every field to the given program. Textures go to units 0-2.
// Uniforms the program does not use resolve to -1 and are ignored by GL.
func (u *Uniforms) ApplyTo(p *shader.Program) {
	bindTexture(p, "u_trail", 0, u.Trail)
	bindTexture(p, "u_video", 1, u.Video)
	bindTexture(p, "u_mask", 2, u.Mask)

	gl.Uniform2f(p.Location("u_resolution"), u.Resolution[0], u.Resolution[1])
	gl.Uniform2f(p.Location("u_halfExtents"), u.HalfExtents[0], u.HalfExtents[1])

	gl.Uniform1f(p.Location("u_random"), u.Random)
	gl.Uniform1f(p.Location("u_opacity"), u.Opacity)
	gl.Uniform1f(p.Location("u_amount"), u.Amount)
	gl.Uniform1f(p.Location("u_power"), u.Power)
	gl.Uniform1f(p.Location("u_saturation"), u.Saturation)
	gl.Uniform1f(p.Location("u_shift"), u.GradientShift)
	gl.Uniform1f(p.Location("u_interactionSize"), u.InteractionSize)
	gl.Uniform1f(p.Location("u_videoBlend"), u.VideoBlend)
	gl.Uniform1f(p.Location("u_intensity"), u.Intensity)

	gl.Uniform2f(p.Location("u_maskScale"), u.MaskScale[0], u.MaskScale[1])
	gl.Uniform2f(p.Location("u_maskOffset"), u.MaskOffset[0], u.MaskOffset[1])

	for i, c := range u.Palette {
		gl.Uniform3f(p.Location(fmt.Sprintf("u_colors[%d]", i)), c[0], c[1], c[2])
	}
	for i := 0; i < Transitions; i++ {
		gl.Uniform1f(p.Location(fmt.Sprintf("u_blend[%d]", i)), u.BlendCenters[i])
		gl.Uniform1f(p.Location(fmt.Sprintf("u_fade[%d]", i)), u.FadeWidths[i])
	}

	gl.Uniform2f(p.Location("u_touch"), u.Touch[0], u.Touch[1])
}

func bindTexture(p *shader.Program, name string, unit uint32, texture uint32) {
	loc := p.Location(name)
	if loc == -1 {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.Uniform1i(loc, int32(unit))
}

func unbindTextures() {
	for unit := uint32(0); unit < 3; unit++ {
		gl.ActiveTexture(gl.TEXTURE0 + unit)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}
