package media

// Frame is one decoded RGBA picture, rows top to bottom.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	PTS    float64 // seconds from the start of the clip
}

// Source produces video frames for the background texture. Implementations
// decode on their own goroutine; Latest is called from the render thread.
type Source interface {
	Start() error
	// Latest returns the newest frame and whether it arrived since the
	// previous call.
	Latest() (*Frame, bool)
	// Position is the playback position of the newest frame in seconds.
	Position() float64
	Seek(seconds float64)
	Stop()
}

// fitSize scales width x height down so neither side exceeds maxSize,
// keeping the aspect ratio and even dimensions for the scaler.
func fitSize(width, height, maxSize int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		if width >= height {
			height = height * maxSize / width
			width = maxSize
		} else {
			width = width * maxSize / height
			height = maxSize
		}
	}
	width &^= 1
	height &^= 1
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}
	return width, height
}
