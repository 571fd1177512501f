package inputs

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Buffer manages two sets of FBOs and textures for double-buffering.
// A pass reads the previous frame from one texture while writing the
// next frame into the other.
type Buffer struct {
	// Double-buffering resources
	fbo        [2]uint32
	textureID  [2]uint32
	readIndex  int // Index of the texture to be read from (the result of the previous frame)
	writeIndex int // Index of the FBO to write to (the current frame)

	width  int
	height int
}

// NewBuffer creates two signed float render targets of the given size,
// both cleared to zero.
func NewBuffer(width, height int) (*Buffer, error) {
	b := &Buffer{
		readIndex:  0,
		writeIndex: 1,
		width:      width,
		height:     height,
	}

	for i := 0; i < 2; i++ {
		var fbo, texture uint32
		gl.GenTextures(1, &texture)
		gl.BindTexture(gl.TEXTURE_2D, texture)
		// Half floats keep the signed direction channels and let heat exceed 1.
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
		setSampling("clamp", "linear")

		gl.GenFramebuffers(1, &fbo)
		gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, texture, 0)

		b.fbo[i] = fbo
		b.textureID[i] = texture

		if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			b.Destroy()
			return nil, fmt.Errorf("framebuffer %d for buffer is not complete", i)
		}
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}

	// Unbind to avoid accidental modifications
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return b, nil
}

// BindForWriting binds the current write-target FBO and sizes the viewport to it.
func (b *Buffer) BindForWriting() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, b.fbo[b.writeIndex])
	gl.Viewport(0, 0, int32(b.width), int32(b.height))
}

// UnbindForWriting unbinds the FBO.
func (b *Buffer) UnbindForWriting() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// SwapBuffers toggles the read/write indices. This is called after the buffer has been rendered to.
func (b *Buffer) SwapBuffers() {
	b.readIndex, b.writeIndex = b.writeIndex, b.readIndex
}

// GetTextureID returns the ID of the texture that should be read from (the result of the previous frame).
func (b *Buffer) GetTextureID() uint32 {
	return b.textureID[b.readIndex]
}

func (b *Buffer) Destroy() {
	if b.fbo[0] == 0 && b.textureID[0] == 0 {
		return
	}
	gl.DeleteFramebuffers(2, &b.fbo[0])
	gl.DeleteTextures(2, &b.textureID[0])
	b.fbo = [2]uint32{}
	b.textureID = [2]uint32{}
}
