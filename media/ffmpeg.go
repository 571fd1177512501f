package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// SourceOptions configures an FFmpegSource.
type SourceOptions struct {
	FFMPEGPath string
	FPS        int // output frame rate; frames are timestamped from it
	MaxSize    int // longest side of the decoded picture

	// LoopStart and LoopEnd bound the segment replayed after the first
	// pass. A zero LoopEnd replays the whole clip.
	LoopStart float64
	LoopEnd   float64

	// ReadAhead is the number of decoded frames buffered ahead of display.
	ReadAhead int
}

// decodeArgs are the ffmpeg arguments for one decoder run starting at
// offset seconds into the clip.
type decodeArgs struct {
	offset float64
	input  ffmpeg.KwArgs
	output ffmpeg.KwArgs
}

// launcher starts a decoder process and returns its raw frame stream and a
// function that reaps it. The process must exit once ctx is cancelled.
type launcher func(ctx context.Context, args decodeArgs) (io.Reader, func() error, error)

// loopWindow is the replayed segment of a clip of known duration.
type loopWindow struct {
	start, end, duration float64
}

func resolveLoop(start, end, duration float64) loopWindow {
	if duration <= 0 {
		return loopWindow{}
	}
	if end <= 0 || end > duration {
		end = duration
	}
	if start < 0 || start >= end {
		start = 0
	}
	return loopWindow{start: start, end: end, duration: duration}
}

// selectExpr keeps frames of the first pass up to the loop end, then only
// frames inside the loop window on every later pass of a -stream_loop
// input.
func (l loopWindow) selectExpr(offset float64) string {
	t := "(t+" + seconds(offset) + ")"
	d, s, e := seconds(l.duration), seconds(l.start), seconds(l.end)
	return fmt.Sprintf("if(lt(%[1]s,%[2]s),lt(%[1]s,%[4]s),gte(mod(%[1]s,%[2]s),%[3]s)*lt(mod(%[1]s,%[2]s),%[4]s))", t, d, s, e)
}

// clipTime maps the n-th frame of a run started at offset to its position
// in the clip.
func (l loopWindow) clipTime(offset float64, n, fps int) float64 {
	t := offset + float64(n)/float64(fps)
	if l.duration <= 0 {
		return t
	}
	first := int(math.Ceil((l.end - offset) * float64(fps)))
	if first < 0 {
		first = 0
	}
	if n < first {
		return t
	}
	per := int(math.Ceil((l.end - l.start) * float64(fps)))
	if per < 1 {
		per = 1
	}
	return l.start + float64((n-first)%per)/float64(fps)
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FFmpegSource decodes a clip to raw RGBA through a single long-lived ffmpeg
// child process. The process loops its input and drops frames outside the
// loop window, so wrapping never restarts the decoder. Frames are read
// ahead into a small queue and paced to FPS by the decode goroutine.
type FFmpegSource struct {
	path string
	opts SourceOptions

	width  int
	height int
	loop   loopWindow

	probe    func(path string) (string, error)
	launch   launcher
	launches atomic.Int32

	mu       sync.Mutex
	latest   *Frame
	fresh    bool
	position float64
	gen      int

	seek   chan float64
	cancel context.CancelFunc
	done   chan struct{}
}

func NewFFmpegSource(path string, opts SourceOptions) *FFmpegSource {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 720
	}
	if opts.ReadAhead <= 0 {
		opts.ReadAhead = 8
	}
	s := &FFmpegSource{path: path, opts: opts}
	s.probe = func(path string) (string, error) { return ffmpeg.Probe(path) }
	s.launch = s.launchFFmpeg
	return s
}

type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeInfo struct {
	width, height int
	duration      float64
}

// parseProbe extracts the first video stream size and the container
// duration from ffprobe JSON. A missing duration is reported as zero.
func parseProbe(data string) (probeInfo, error) {
	var res probeResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return probeInfo{}, fmt.Errorf("invalid probe output: %w", err)
	}
	for _, st := range res.Streams {
		if st.CodecType == "video" && st.Width > 0 && st.Height > 0 {
			info := probeInfo{width: st.Width, height: st.Height}
			if d, err := strconv.ParseFloat(res.Format.Duration, 64); err == nil && d > 0 {
				info.duration = d
			}
			return info, nil
		}
	}
	return probeInfo{}, fmt.Errorf("no video stream found")
}

// Start probes the clip and begins decoding from the start.
func (s *FFmpegSource) Start() error {
	probe, err := s.probe(s.path)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", s.path, err)
	}
	info, err := parseProbe(probe)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", s.path, err)
	}
	s.width, s.height = fitSize(info.width, info.height, s.opts.MaxSize)
	s.loop = resolveLoop(s.opts.LoopStart, s.opts.LoopEnd, info.duration)
	log.Printf("Video source %s: %dx%d decoded at %dx%d, %d fps, loop %.2f-%.2fs",
		s.path, info.width, info.height, s.width, s.height, s.opts.FPS, s.loop.start, s.loop.end)

	ctx, cancel := context.WithCancel(context.Background())
	s.seek = make(chan float64, 1)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	return nil
}

func (s *FFmpegSource) decodeArgs(offset float64) decodeArgs {
	input := ffmpeg.KwArgs{"stream_loop": -1}
	if offset > 0 {
		input["ss"] = seconds(offset)
	}
	filter := fmt.Sprintf("fps=%d", s.opts.FPS)
	if s.loop.duration > 0 {
		filter += fmt.Sprintf(",select='%s',setpts=N/(%d*TB)", s.loop.selectExpr(offset), s.opts.FPS)
	}
	filter += fmt.Sprintf(",scale=%d:%d", s.width, s.height)
	return decodeArgs{
		offset: offset,
		input:  input,
		output: ffmpeg.KwArgs{
			"vf":       filter,
			"format":   "rawvideo",
			"pix_fmt":  "rgba",
			"r":        s.opts.FPS,
			"an":       "",
			"loglevel": "error",
		},
	}
}

func (s *FFmpegSource) launchFFmpeg(ctx context.Context, args decodeArgs) (io.Reader, func() error, error) {
	stream := ffmpeg.Input(s.path, args.input).Output("pipe:", args.output)
	if s.opts.FFMPEGPath != "" {
		stream = stream.SetFfmpegPath(s.opts.FFMPEGPath)
	}
	cmd := stream.Compile()
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ffmpeg output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	go func() {
		<-ctx.Done()
		cmd.Process.Kill()
	}()
	return stdout, cmd.Wait, nil
}

// run keeps one decoder alive until ctx is cancelled. A new process is only
// launched for an explicit seek or after the previous one died.
func (s *FFmpegSource) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	offset := 0.0
	for {
		frames, to, seeked, err := s.play(ctx, offset)
		if ctx.Err() != nil {
			return
		}
		if seeked {
			offset = to
			continue
		}
		if err != nil {
			log.Printf("Warning: video decode of %s stopped: %v", s.path, err)
		}
		offset = s.loop.start
		if frames == 0 {
			// Nothing decodable; avoid spinning on a broken input.
			select {
			case <-ctx.Done():
				return
			case offset = <-s.seek:
			case <-time.After(time.Second):
			}
		}
	}
}

// play runs one decoder process from offset. It returns the number of
// frames shown and, when a seek interrupted it, the requested position.
func (s *FFmpegSource) play(ctx context.Context, offset float64) (int, float64, bool, error) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	procCtx, stop := context.WithCancel(ctx)
	defer stop()
	s.launches.Add(1)
	stdout, wait, err := s.launch(procCtx, s.decodeArgs(offset))
	if err != nil {
		return 0, 0, false, err
	}

	queue := make(chan []byte, s.opts.ReadAhead)
	readErr := make(chan error, 1)
	go func() {
		defer close(queue)
		size := s.width * s.height * 4
		for {
			buf := make([]byte, size)
			if _, err := io.ReadFull(stdout, buf); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					err = nil
				}
				readErr <- err
				return
			}
			select {
			case queue <- buf:
			case <-procCtx.Done():
				readErr <- nil
				return
			}
		}
	}()

	// finish stops the process and reaps it. Errors are only reported when
	// the decoder ended by itself.
	finish := func(interrupted bool) error {
		if interrupted {
			stop()
		}
		for range queue {
		}
		rerr := <-readErr
		werr := wait()
		if interrupted {
			return nil
		}
		if rerr != nil {
			return rerr
		}
		return werr
	}

	ticker := time.NewTicker(time.Second / time.Duration(s.opts.FPS))
	defer ticker.Stop()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, 0, false, finish(true)
		case to := <-s.seek:
			return n, to, true, finish(true)
		case <-ticker.C:
			select {
			case buf, ok := <-queue:
				if !ok {
					return n, 0, false, finish(false)
				}
				s.publish(&Frame{
					Pix:    buf,
					Width:  s.width,
					Height: s.height,
					PTS:    s.loop.clipTime(offset, n, s.opts.FPS),
				}, gen)
				n++
			default:
				// Decoder is behind; keep showing the previous frame.
			}
		}
	}
}

// publish stores f unless a seek has been requested since its run began.
func (s *FFmpegSource) publish(f *Frame, gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.latest = f
	s.fresh = true
	s.position = f.PTS
}

func (s *FFmpegSource) Latest() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := s.fresh
	s.fresh = false
	return s.latest, fresh
}

func (s *FFmpegSource) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Seek asks the decode goroutine to continue from the given position and
// returns immediately. Position reports the target at once; the last frame
// stays available until the first frame of the new run arrives.
func (s *FFmpegSource) Seek(seconds float64) {
	if s.seek == nil {
		return
	}
	s.mu.Lock()
	s.gen++
	s.position = seconds
	s.mu.Unlock()

	select {
	case <-s.seek:
	default:
	}
	select {
	case s.seek <- seconds:
	default:
	}
}

func (s *FFmpegSource) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Open starts a decoder for path. When path is empty or the clip cannot be
// probed, it logs the failure and returns a still source showing fallback
// instead, so the scene still becomes ready.
func Open(path string, opts SourceOptions, fallback image.Image) Source {
	if path == "" {
		log.Println("No video given, using a still frame")
		return NewStaticSource(fallback)
	}
	return openOrStill(NewFFmpegSource(path, opts), fallback)
}

func openOrStill(src *FFmpegSource, fallback image.Image) Source {
	if err := src.Start(); err != nil {
		log.Printf("Warning: failed to load video %q, using a still frame: %v", src.path, err)
		return NewStaticSource(fallback)
	}
	return src
}
