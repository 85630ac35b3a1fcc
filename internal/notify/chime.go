package notify

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Chime plays a short sound when the assistant wakes, so the user knows it
// is listening before the spoken acknowledgment starts.
type Chime struct {
	buffer *beep.Buffer
}

// NewChime decodes the mp3 at path once and initializes the output device.
func NewChime(path string) (*Chime, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chime: %w", err)
	}
	defer f.Close()

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode chime: %w", err)
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	return &Chime{buffer: buf}, nil
}

// Play blocks until the chime finishes.
func (c *Chime) Play() {
	done := make(chan struct{})
	speaker.Play(beep.Seq(
		c.buffer.Streamer(0, c.buffer.Len()),
		beep.Callback(func() { close(done) }),
	))
	<-done
}
