package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Nithin-2002-kumar/echo/internal/actions"
	"github.com/Nithin-2002-kumar/echo/internal/config"
	"github.com/Nithin-2002-kumar/echo/internal/history"
	"github.com/Nithin-2002-kumar/echo/internal/intent"
)

// scriptedSource replays a fixed sequence of utterances, then cancels the
// run context so Run exits the way an operator interrupt would.
type scriptedSource struct {
	lines  []string
	idx    int
	cancel context.CancelFunc
}

func (s *scriptedSource) Capture(ctx context.Context, _ time.Duration) (string, error) {
	if s.idx >= len(s.lines) {
		s.cancel()
		return "", ctx.Err()
	}
	line := s.lines[s.idx]
	s.idx++
	return line, nil
}

type recordingSpeaker struct {
	spoken []string
	err    error
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.spoken = append(s.spoken, text)
	return s.err
}

type fakeActions struct {
	fn func(kind actions.Kind, arg string) (string, error)
}

func (f *fakeActions) Execute(_ context.Context, kind actions.Kind, arg string) (string, error) {
	if f.fn == nil {
		return "", &actions.ServiceError{Service: kind, Kind: actions.Unreachable, Err: errors.New("no fake installed")}
	}
	return f.fn(kind, arg)
}

type fakeLauncher struct {
	launched []string
	err      error
}

func (f *fakeLauncher) Launch(name string) error {
	if f.err != nil {
		return f.err
	}
	f.launched = append(f.launched, name)
	return nil
}

func (f *fakeLauncher) Names() []string { return []string{"browser"} }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.MaxHistory = 2
	return cfg
}

type fixture struct {
	assistant *Assistant
	speaker   *recordingSpeaker
	history   *history.Store
	launcher  *fakeLauncher
	run       func(t *testing.T)
}

func newFixture(cfg *config.Config, lines []string, acts Actions) *fixture {
	ctx, cancel := context.WithCancel(context.Background())
	source := &scriptedSource{lines: lines, cancel: cancel}
	speaker := &recordingSpeaker{}
	launcher := &fakeLauncher{}
	hist := history.NewStore(cfg.MaxHistory)

	a := New(Deps{
		Config:   cfg,
		Source:   source,
		Speaker:  speaker,
		Actions:  acts,
		Launcher: launcher,
		History:  hist,
		Clock:    func() time.Time { return time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC) },
	})

	return &fixture{
		assistant: a,
		speaker:   speaker,
		history:   hist,
		launcher:  launcher,
		run: func(t *testing.T) {
			t.Helper()
			done := make(chan error, 1)
			go func() { done <- a.Run(ctx) }()
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("Run err: %v", err)
				}
			case <-time.After(5 * time.Second):
				cancel()
				t.Fatal("Run did not finish")
			}
		},
	}
}

func TestWakeThenTimeCommand(t *testing.T) {
	fx := newFixture(testConfig(), []string{
		"echoing down the hall", // must not wake: hotword only as whole token
		"Echo, are you there?",
		"what time is it",
		"echo",
		"goodbye",
	}, &fakeActions{})

	var transitions []State
	fx.assistant.OnTransition(func(_, to State) { transitions = append(transitions, to) })

	fx.run(t)

	want := []State{Awake, Executing, Responding, Idle, Awake, Executing, Responding, Stopped}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}

	if fx.assistant.State() != Stopped {
		t.Fatalf("final state = %s, want stopped", fx.assistant.State())
	}

	var sawTime bool
	for _, s := range fx.speaker.spoken {
		if s == "The current time is 3:04 PM." {
			sawTime = true
		}
	}
	if !sawTime {
		t.Fatalf("time response missing from spoken output: %v", fx.speaker.spoken)
	}

	if fx.history.Len() != 2 {
		t.Fatalf("history len = %d, want 2", fx.history.Len())
	}
}

func TestSilenceAfterWakeProducesNoResponse(t *testing.T) {
	fx := newFixture(testConfig(), []string{
		"echo",
		"", // silence: back to idle, nothing recorded, nothing spoken
		"echo",
		"goodbye",
	}, &fakeActions{})

	fx.run(t)

	if fx.history.Len() != 1 {
		t.Fatalf("history len = %d, want only the goodbye exchange", fx.history.Len())
	}
	for _, s := range fx.speaker.spoken {
		if s == unknownResponse {
			t.Fatal("silence must not produce an unknown-command response")
		}
	}
}

func TestServiceTimeoutBecomesApologyInHistory(t *testing.T) {
	acts := &fakeActions{fn: func(kind actions.Kind, arg string) (string, error) {
		return "", &actions.ServiceError{Service: kind, Kind: actions.Timeout, Err: context.DeadlineExceeded}
	}}
	fx := newFixture(testConfig(), []string{
		"echo",
		"search for lost socks",
		"echo",
		"goodbye",
	}, acts)

	fx.run(t)

	entries := fx.history.Recent(2)
	if len(entries) != 2 {
		t.Fatalf("history len = %d, want 2", len(entries))
	}
	if entries[0].Command != "search for lost socks" {
		t.Fatalf("entry command = %q", entries[0].Command)
	}
	if entries[0].Response != searchFailedResponse {
		t.Fatalf("entry response = %q, want apology %q", entries[0].Response, searchFailedResponse)
	}
}

func TestWeatherNotConfiguredResponse(t *testing.T) {
	acts := &fakeActions{fn: func(kind actions.Kind, arg string) (string, error) {
		return "", &actions.ServiceError{Service: kind, Kind: actions.NotConfigured}
	}}
	fx := newFixture(testConfig(), []string{
		"echo",
		"weather in oslo",
		"echo",
		"goodbye",
	}, acts)

	fx.run(t)

	entries := fx.history.Recent(2)
	if entries[0].Response != weatherNoKeyResponse {
		t.Fatalf("response = %q, want %q", entries[0].Response, weatherNoKeyResponse)
	}
}

func TestWeatherEmptyLocationUsesDefault(t *testing.T) {
	var gotLocation string
	acts := &fakeActions{fn: func(kind actions.Kind, arg string) (string, error) {
		gotLocation = arg
		return "sunny", nil
	}}
	fx := newFixture(testConfig(), []string{
		"echo",
		"what's the weather",
		"echo",
		"goodbye",
	}, acts)

	fx.run(t)

	if gotLocation != "New York" {
		t.Fatalf("location = %q, want configured default", gotLocation)
	}
}

func TestEmptySearchQueryPromptsWithoutNetwork(t *testing.T) {
	acts := &fakeActions{fn: func(kind actions.Kind, arg string) (string, error) {
		t.Error("network call attempted for empty query")
		return "", nil
	}}
	fx := newFixture(testConfig(), []string{
		"echo",
		"search",
		"echo",
		"goodbye",
	}, acts)

	fx.run(t)

	entries := fx.history.Recent(2)
	if entries[0].Response != searchPromptResponse {
		t.Fatalf("response = %q, want prompt", entries[0].Response)
	}
}

func TestHistoryEvictionAcrossCommands(t *testing.T) {
	fx := newFixture(testConfig(), []string{
		"echo", "what time is it",
		"echo", "open browser",
		"echo", "goodbye",
	}, &fakeActions{})

	fx.run(t)

	if fx.history.Len() != 2 {
		t.Fatalf("history len = %d, want bound 2", fx.history.Len())
	}
	entries := fx.history.Recent(2)
	if entries[0].Command != "open browser" || entries[1].Command != "goodbye" {
		t.Fatalf("unexpected surviving entries: %q, %q", entries[0].Command, entries[1].Command)
	}
	if len(fx.launcher.launched) != 1 || fx.launcher.launched[0] != "browser" {
		t.Fatalf("launcher calls = %v", fx.launcher.launched)
	}
}

func TestWakeResponsesCycleInOrder(t *testing.T) {
	cfg := testConfig()
	cfg.WakeResponses = []string{"Yes?", "I'm here!"}
	fx := newFixture(cfg, []string{
		"echo", "what time is it",
		"echo", "what time is it",
		"echo", "goodbye",
	}, &fakeActions{})

	fx.run(t)

	var wakes []string
	for _, s := range fx.speaker.spoken {
		if s == "Yes?" || s == "I'm here!" {
			wakes = append(wakes, s)
		}
	}
	want := []string{"Yes?", "I'm here!", "Yes?"}
	if strings.Join(wakes, "|") != strings.Join(want, "|") {
		t.Fatalf("wake responses = %v, want %v", wakes, want)
	}
}

func TestSynthesisFailureDoesNotStopLoop(t *testing.T) {
	fx := newFixture(testConfig(), []string{
		"echo", "what time is it",
		"echo", "goodbye",
	}, &fakeActions{})
	fx.speaker.err = errors.New("audio device busy")

	fx.run(t)

	if fx.assistant.State() != Stopped {
		t.Fatalf("state = %s, want stopped", fx.assistant.State())
	}
	if fx.history.Len() != 2 {
		t.Fatalf("history len = %d, want 2", fx.history.Len())
	}
}

func TestForceWakeSkipsHotword(t *testing.T) {
	fx := newFixture(testConfig(), []string{
		"what time is it", // consumed as a command thanks to ForceWake
		"echo", "goodbye",
	}, &fakeActions{})
	fx.assistant.ForceWake()

	fx.run(t)

	entries := fx.history.Recent(2)
	if len(entries) != 2 || entries[0].Command != "what time is it" {
		t.Fatalf("unexpected history: %+v", entries)
	}
}

func TestGoodbyeAlwaysStops(t *testing.T) {
	fx := newFixture(testConfig(), []string{
		"echo", "open browser",
		"echo", "what time is it",
		"echo", "exit",
	}, &fakeActions{})

	fx.run(t)

	if fx.assistant.State() != Stopped {
		t.Fatalf("state = %s, want stopped", fx.assistant.State())
	}
	entries := fx.history.Recent(1)
	if entries[0].Response != farewellResponse {
		t.Fatalf("final response = %q, want farewell", entries[0].Response)
	}
}

func TestRegisterReplacesHandler(t *testing.T) {
	fx := newFixture(testConfig(), []string{
		"echo", "what time is it",
		"echo", "goodbye",
	}, &fakeActions{})
	fx.assistant.Register(intent.CheckTime, func(context.Context, string) string {
		return "It is beer o'clock."
	})

	fx.run(t)

	entries := fx.history.Recent(2)
	if entries[0].Response != "It is beer o'clock." {
		t.Fatalf("response = %q, want replacement handler output", entries[0].Response)
	}
}
