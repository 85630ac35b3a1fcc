package tts

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const defaultBinary = "espeak-ng"

// Speaker renders text through espeak-ng. Speak blocks until playback
// finishes, which gives the dispatcher strict turn-taking for free.
type Speaker struct {
	binary string
	rate   int
	voice  string
}

// New builds a speaker with the configured rate (words per minute) and
// voice. voiceID 0 is the plain english voice; higher values select the
// numbered espeak variants.
func New(rate, voiceID int) *Speaker {
	return &Speaker{
		binary: defaultBinary,
		rate:   rate,
		voice:  voiceName(voiceID),
	}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.binary,
		"-s", strconv.Itoa(s.rate),
		"-v", s.voice,
		"--stdin",
	)
	cmd.Stdin = strings.NewReader(text)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", s.binary, err)
	}
	return nil
}

func voiceName(id int) string {
	if id <= 0 {
		return "en"
	}
	return fmt.Sprintf("en+m%d", id)
}
