package media

import (
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// StaticSource serves a single still picture. It stands in for the clip
// when no video is configured, and its position never advances.
type StaticSource struct {
	mu    sync.Mutex
	frame *Frame
	sent  bool
}

func NewStaticSource(img image.Image) *StaticSource {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &StaticSource{frame: &Frame{
		Pix:    rgba.Pix,
		Width:  b.Dx(),
		Height: b.Dy(),
	}}
}

func (s *StaticSource) Start() error { return nil }

func (s *StaticSource) Latest() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := !s.sent
	s.sent = true
	return s.frame, fresh
}

func (s *StaticSource) Position() float64 { return 0 }

func (s *StaticSource) Seek(seconds float64) {}

func (s *StaticSource) Stop() {}
