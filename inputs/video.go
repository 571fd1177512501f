package inputs

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/gothermal/media"
)

// VideoTexture streams frames from a media.Source into a GL texture. The
// source decodes elsewhere; uploads only happen in Update on the render thread.
type VideoTexture struct {
	source    media.Source
	textureID uint32
	width     int
	height    int
	uploaded  bool
}

func NewVideoTexture(source media.Source) *VideoTexture {
	return &VideoTexture{source: source}
}

// Update uploads the newest decoded frame, if any arrived since the last call.
func (v *VideoTexture) Update() {
	if v.source == nil {
		return
	}
	frame, fresh := v.source.Latest()
	if !fresh || frame == nil || len(frame.Pix) < frame.Width*frame.Height*4 {
		return
	}

	if v.textureID == 0 {
		gl.GenTextures(1, &v.textureID)
	}
	gl.BindTexture(gl.TEXTURE_2D, v.textureID)
	if frame.Width != v.width || frame.Height != v.height {
		setSampling("clamp", "linear")
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(frame.Width), int32(frame.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
		v.width, v.height = frame.Width, frame.Height
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(frame.Width), int32(frame.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	v.uploaded = true
}

func (v *VideoTexture) TextureID() uint32 {
	return v.textureID
}

// Ready turns true once the first frame has been uploaded.
func (v *VideoTexture) Ready() bool {
	return v.uploaded
}

// Position is the playback position of the displayed clip in seconds.
func (v *VideoTexture) Position() float64 {
	if v.source == nil {
		return 0
	}
	return v.source.Position()
}

func (v *VideoTexture) Seek(seconds float64) {
	if v.source != nil {
		v.source.Seek(seconds)
	}
}

// Destroy stops the source and releases the texture. It is safe to call twice.
func (v *VideoTexture) Destroy() {
	if v.source != nil {
		v.source.Stop()
		v.source = nil
	}
	if v.textureID != 0 {
		gl.DeleteTextures(1, &v.textureID)
		v.textureID = 0
	}
	v.uploaded = false
}
