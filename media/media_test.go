package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"within bounds", 640, 360, 720, 640, 360},
		{"landscape scaled", 1920, 1080, 720, 720, 404},
		{"portrait scaled", 1080, 1920, 720, 404, 720},
		{"odd rounded down", 641, 361, 720, 640, 360},
		{"no limit", 1920, 1080, 0, 1920, 1080},
		{"degenerate", 0, 100, 720, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitSize(tt.w, tt.h, tt.max)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitSize(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestParseProbe(t *testing.T) {
	data := `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1280,"height":720}],"format":{"duration":"14.200000"}}`
	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe() error = %v", err)
	}
	if info.width != 1280 || info.height != 720 || info.duration != 14.2 {
		t.Errorf("parseProbe() = %+v, want 1280x720 for 14.2s", info)
	}

	info, err = parseProbe(`{"streams":[{"codec_type":"video","width":4,"height":2}]}`)
	if err != nil || info.duration != 0 {
		t.Errorf("parseProbe() without duration = %+v, %v", info, err)
	}
	if _, err := parseProbe(`{"streams":[{"codec_type":"audio"}]}`); err == nil {
		t.Error("parseProbe() without video stream should fail")
	}
	if _, err := parseProbe(`not json`); err == nil {
		t.Error("parseProbe() with malformed input should fail")
	}
}

func TestResolveLoop(t *testing.T) {
	tests := []struct {
		name                 string
		start, end, duration float64
		want                 loopWindow
	}{
		{"inside clip", 2.95, 11.95, 14.2, loopWindow{2.95, 11.95, 14.2}},
		{"whole clip", 0, 0, 14.2, loopWindow{0, 14.2, 14.2}},
		{"end past clip", 2.95, 20, 14.2, loopWindow{2.95, 14.2, 14.2}},
		{"start past end", 12, 11.95, 10, loopWindow{0, 10, 10}},
		{"unknown duration", 2.95, 11.95, 0, loopWindow{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLoop(tt.start, tt.end, tt.duration); got != tt.want {
				t.Errorf("resolveLoop() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClipTimeWraps(t *testing.T) {
	l := loopWindow{start: 2, end: 4, duration: 5}
	tests := []struct {
		offset float64
		n      int
		want   float64
	}{
		{0, 0, 0},
		{0, 39, 3.9},
		{0, 40, 2},
		{0, 59, 3.9},
		{0, 60, 2},
		{3, 5, 3.5},
		{3, 10, 2},
		{4.5, 0, 2},
	}
	for _, tt := range tests {
		got := l.clipTime(tt.offset, tt.n, 10)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("clipTime(%v, %d) = %v, want %v", tt.offset, tt.n, got, tt.want)
		}
	}
	if got := (loopWindow{}).clipTime(1, 20, 10); got != 3 {
		t.Errorf("clipTime() without a window = %v, want 3", got)
	}
}

func TestDecodeArgsLoopInput(t *testing.T) {
	s := NewFFmpegSource("clip.mp4", SourceOptions{FPS: 30})
	s.width, s.height = 640, 360
	s.loop = loopWindow{start: 2.95, end: 11.95, duration: 14.2}

	a := s.decodeArgs(0)
	if a.input["stream_loop"] != -1 {
		t.Errorf("input = %v, want stream_loop -1", a.input)
	}
	if _, ok := a.input["ss"]; ok {
		t.Error("first run should not seek")
	}
	vf, _ := a.output["vf"].(string)
	for _, want := range []string{"fps=30", "select='if(lt((t+0.000),14.200),lt((t+0.000),11.950),", "gte(mod((t+0.000),14.200),2.950)", "setpts=N/(30*TB)", "scale=640:360"} {
		if !strings.Contains(vf, want) {
			t.Errorf("vf = %q, missing %q", vf, want)
		}
	}
	if _, ok := a.output["re"]; ok {
		t.Error("decoder should not be rate limited by ffmpeg")
	}

	if a := s.decodeArgs(5); a.input["ss"] != "5.000" {
		t.Errorf("seek run input = %v, want ss 5.000", a.input)
	}
}

// frameStream yields zeroed frames until its context is cancelled.
type frameStream struct {
	ctx context.Context
}

func (r frameStream) Read(p []byte) (int, error) {
	if r.ctx.Err() != nil {
		return 0, io.EOF
	}
	clear(p)
	return len(p), nil
}

// newFakeSource returns a source decoding from frameStream and a snapshot
// of the offsets its decoder was launched at.
func newFakeSource(t *testing.T, opts SourceOptions) (*FFmpegSource, func() []float64) {
	t.Helper()
	s := NewFFmpegSource("clip.mp4", opts)
	s.probe = func(string) (string, error) {
		return `{"streams":[{"codec_type":"video","width":4,"height":2}],"format":{"duration":"0.2"}}`, nil
	}
	var mu sync.Mutex
	offsets := []float64{}
	s.launch = func(ctx context.Context, a decodeArgs) (io.Reader, func() error, error) {
		mu.Lock()
		offsets = append(offsets, a.offset)
		mu.Unlock()
		return frameStream{ctx}, func() error { return nil }, nil
	}
	t.Cleanup(s.Stop)
	return s, func() []float64 {
		mu.Lock()
		defer mu.Unlock()
		return append([]float64(nil), offsets...)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFFmpegSourceLoopsWithOneDecoder(t *testing.T) {
	s, _ := newFakeSource(t, SourceOptions{FPS: 200, LoopStart: 0.05, LoopEnd: 0.1})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	peak, wraps := 0.0, 0
	waitFor(t, "two loop wraps", func() bool {
		p := s.Position()
		if p < peak-0.02 {
			wraps++
		}
		if p > peak || p < peak-0.02 {
			peak = p
		}
		if p >= 0.1 {
			t.Fatalf("Position() = %v reached the loop end", p)
		}
		return wraps >= 2
	})
	if n := s.launches.Load(); n != 1 {
		t.Errorf("decoder launched %d times across loop wraps, want 1", n)
	}
	if f, _ := s.Latest(); f == nil || f.Width != 4 || f.Height != 2 || len(f.Pix) != 32 {
		t.Errorf("Latest() = %+v", f)
	}
}

func TestFFmpegSourceSeekDoesNotWait(t *testing.T) {
	s, offsets := newFakeSource(t, SourceOptions{FPS: 200})
	release := make(chan struct{})
	var once sync.Once
	free := func() { once.Do(func() { close(release) }) }
	t.Cleanup(free)
	inner := s.launch
	s.launch = func(ctx context.Context, a decodeArgs) (io.Reader, func() error, error) {
		r, wait, err := inner(ctx, a)
		// The decoder only exits once the test lets it.
		return r, func() error { <-release; return wait() }, err
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "first frame", func() bool { f, _ := s.Latest(); return f != nil })

	begin := time.Now()
	s.Seek(0.07)
	s.Seek(0.03)
	if d := time.Since(begin); d > 50*time.Millisecond {
		t.Errorf("Seek() blocked for %v", d)
	}
	if p := s.Position(); p != 0.03 {
		t.Errorf("Position() after Seek = %v, want 0.03", p)
	}
	free()

	waitFor(t, "seek relaunch", func() bool { return len(offsets()) >= 2 })
	launched := offsets()
	if launched[0] != 0 {
		t.Errorf("first launch offset = %v, want 0", launched[0])
	}
	if last := launched[len(launched)-1]; last != 0.03 && last != 0.07 {
		t.Errorf("relaunch offset = %v, want a requested seek target", last)
	}
}

func TestOpenFallsBackToStill(t *testing.T) {
	still := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if _, ok := Open("", SourceOptions{}, still).(*StaticSource); !ok {
		t.Error("Open() without a path should return a still source")
	}

	s := NewFFmpegSource("missing.mp4", SourceOptions{})
	s.probe = func(string) (string, error) { return "", errors.New("no such file") }
	src := openOrStill(s, still)
	if _, ok := src.(*StaticSource); !ok {
		t.Fatalf("openOrStill() = %T, want *StaticSource", src)
	}
	if err := src.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if f, fresh := src.Latest(); f == nil || !fresh {
		t.Error("fallback should deliver a frame so the scene becomes ready")
	}
}

func TestStaticSource(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 14, 12))
	img.Set(10, 10, color.NRGBA{R: 255, A: 255})
	s := NewStaticSource(img)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f, fresh := s.Latest()
	if !fresh {
		t.Error("first Latest() should report a fresh frame")
	}
	if f.Width != 4 || f.Height != 2 || len(f.Pix) != 4*2*4 {
		t.Fatalf("frame = %dx%d (%d bytes)", f.Width, f.Height, len(f.Pix))
	}
	if f.Pix[0] != 255 || f.Pix[3] != 255 {
		t.Errorf("top-left pixel = %v, want opaque red", f.Pix[:4])
	}

	if _, fresh := s.Latest(); fresh {
		t.Error("second Latest() should not be fresh")
	}
	s.Seek(5)
	if s.Position() != 0 {
		t.Errorf("Position() = %v, want 0", s.Position())
	}
}

func TestFFmpegSourceLatestBeforeStart(t *testing.T) {
	s := NewFFmpegSource("clip.mp4", SourceOptions{})
	if s.opts.FPS != 30 || s.opts.MaxSize != 720 {
		t.Errorf("defaults = %+v", s.opts)
	}
	if f, fresh := s.Latest(); f != nil || fresh {
		t.Error("Latest() before Start should be empty")
	}
	// Seeking an unstarted source must not launch a decoder.
	s.Seek(3)
	if s.cancel != nil || s.launches.Load() != 0 {
		t.Error("Seek() before Start started decoding")
	}
	s.Stop()
}

func TestFFmpegSourcePublish(t *testing.T) {
	s := NewFFmpegSource("clip.mp4", SourceOptions{FPS: 25})
	s.publish(&Frame{PTS: 4.2}, 0)
	if s.Position() != 4.2 {
		t.Errorf("Position() = %v, want 4.2", s.Position())
	}
	if _, fresh := s.Latest(); !fresh {
		t.Error("published frame should be fresh")
	}
	if _, fresh := s.Latest(); fresh {
		t.Error("frame should be consumed once")
	}

	// Frames from a run superseded by a seek are dropped.
	s.gen++
	s.publish(&Frame{PTS: 9}, 0)
	if s.Position() != 4.2 {
		t.Errorf("stale frame moved Position() to %v", s.Position())
	}
}
