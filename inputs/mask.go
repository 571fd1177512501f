// inputs/mask.go
package inputs

import (
	"fmt"
	"image"
	"log"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/draw"

	// Blank imports for image decoders so image.Decode can handle them.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaskTexture is the static logo mask. Only its green channel is sampled.
type MaskTexture struct {
	textureID  uint32
	resolution [2]float32
}

// LoadImage decodes an image file in any registered format.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &AssetLoadError{Asset: "image", Path: path, Err: err}
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, &AssetLoadError{Asset: "image", Path: path, Err: err}
	}
	log.Printf("Loaded %s image %s (%dx%d)", format, path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// vflip vertically flips the provided RGBA image so row 0 lands at the
// bottom of the GL texture.
func vflip(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	flipped := image.NewRGBA(bounds)
	height := bounds.Dy()

	// This is faster than calling At/Set for each pixel
	rowSize := bounds.Dx() * 4 // 4 bytes per pixel (RGBA)
	for y := 0; y < height; y++ {
		srcRow := src.Pix[((height-1)-y)*src.Stride:]
		dstRow := flipped.Pix[y*flipped.Stride:]
		copy(dstRow, srcRow[:rowSize])
	}
	return flipped
}

// prepareMask converts img to RGBA, scales it down when its longest side
// exceeds maxSize, and flips it for upload.
func prepareMask(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = h * maxSize / w
			w = maxSize
		} else {
			w = w * maxSize / h
			h = maxSize
		}
		w, h = max(w, 1), max(h, 1)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, b, draw.Src, nil)
	}
	return vflip(rgba)
}

// NewMaskTexture uploads img as an RGBA8 texture clamped at its edges.
func NewMaskTexture(img image.Image, maxSize int) (*MaskTexture, error) {
	if img == nil {
		return nil, fmt.Errorf("mask image is nil")
	}
	rgba := prepareMask(img, maxSize)
	width := int32(rgba.Rect.Size().X)
	height := int32(rgba.Rect.Size().Y)

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	setSampling("clamp", "mipmap")
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return &MaskTexture{
		textureID:  textureID,
		resolution: [2]float32{float32(width), float32(height)},
	}, nil
}

func (m *MaskTexture) TextureID() uint32 {
	return m.textureID
}

func (m *MaskTexture) Resolution() [2]float32 {
	return m.resolution
}

// Ready is true as soon as the upload has happened.
func (m *MaskTexture) Ready() bool {
	return m.textureID != 0
}

func (m *MaskTexture) Update() {
	// No-op for static images.
}

func (m *MaskTexture) Destroy() {
	if m.textureID == 0 {
		return
	}
	gl.DeleteTextures(1, &m.textureID)
	m.textureID = 0
}
