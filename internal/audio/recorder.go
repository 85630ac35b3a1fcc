package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate is mono 16 kHz, what the transcriber expects.
	SampleRate = 16000

	frameSize = 320 // 20ms per frame at 16 kHz
	frameDur  = 20 * time.Millisecond
)

// Options tune the silence gate. Zero values pick the defaults.
type Options struct {
	SilenceRMS   float64       // frame RMS below this counts as silence
	SilencePause time.Duration // trailing silence that ends an utterance
	DumpDir      string        // when set, each capture is written there as wav
}

// Recorder captures one utterance at a time from the default input device.
// Recording starts at the first voiced frame and ends after a trailing
// silence pause or the deadline, whichever comes first.
type Recorder struct {
	opt Options
}

func NewRecorder(opt Options) *Recorder {
	if opt.SilenceRMS <= 0 {
		opt.SilenceRMS = 0.015
	}
	if opt.SilencePause <= 0 {
		opt.SilencePause = 600 * time.Millisecond
	}
	return &Recorder{opt: opt}
}

// Init claims the audio backend. Call Close when done: the microphone
// session must be released on shutdown.
func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Capture records until the speaker pauses or maxDur elapses. It returns a
// nil slice when nothing voiced was heard, which callers treat as silence.
func (r *Recorder) Capture(ctx context.Context, maxDur time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	var (
		speaking bool
		silence  time.Duration
	)

	deadline := time.Now().Add(maxDur)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}

		if frameRMS(buf) > r.opt.SilenceRMS {
			speaking = true
			silence = 0
			out = append(out, buf...)
			continue
		}
		if speaking {
			silence += frameDur
			if silence >= r.opt.SilencePause {
				break
			}
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return nil, nil
	}

	if r.opt.DumpDir != "" {
		path := filepath.Join(r.opt.DumpDir, fmt.Sprintf("capture-%d.wav", time.Now().UnixMilli()))
		if err := writeWAV(path, out, SampleRate); err != nil {
			log.Warn("audio dump failed", "path", path, "err", err)
		}
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
