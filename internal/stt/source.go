package stt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Nithin-2002-kumar/echo/internal/audio"
)

// MicSource couples the microphone recorder with the transcriber to form
// the assistant's transcript source.
type MicSource struct {
	rec *audio.Recorder
	tr  *Transcriber
	opt Options
}

func NewMicSource(rec *audio.Recorder, tr *Transcriber, opt Options) *MicSource {
	return &MicSource{rec: rec, tr: tr, opt: opt}
}

// Capture records until the speaker pauses or timeout elapses, then
// transcribes. Silence (nothing voiced, or an empty transcript) comes back
// as ("", nil).
func (m *MicSource) Capture(ctx context.Context, timeout time.Duration) (string, error) {
	pcm, err := m.rec.Capture(ctx, timeout)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	if len(pcm) == 0 {
		return "", nil
	}

	text, err := m.tr.Transcribe(ctx, pcm, m.opt)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

// LineSource reads utterances as lines of text. Development aid for
// running the assistant without an audio device.
type LineSource struct {
	lines chan string
}

func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{lines: make(chan string)}
	go func() {
		defer close(s.lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
	}()
	return s
}

// Capture returns the next line, or ("", nil) when no line arrives within
// timeout or the input is exhausted.
func (s *LineSource) Capture(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", nil
	case line, ok := <-s.lines:
		if !ok {
			// Input exhausted: behave like a silent room until the
			// operator stops the assistant.
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-timer.C:
				return "", nil
			}
		}
		return strings.ToLower(strings.TrimSpace(line)), nil
	}
}
