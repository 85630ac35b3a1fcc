package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Nithin-2002-kumar/echo/internal/actions"
	"github.com/Nithin-2002-kumar/echo/internal/config"
	"github.com/Nithin-2002-kumar/echo/internal/history"
	"github.com/Nithin-2002-kumar/echo/internal/intent"
)

// State is the dispatcher's position in the wake/command cycle.
type State int32

const (
	Idle State = iota
	Awake
	Executing
	Responding
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Awake:
		return "awake"
	case Executing:
		return "executing"
	case Responding:
		return "responding"
	case Stopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// TranscriptSource captures one utterance as text. ("", nil) means silence
// or unrecognized speech, not an error.
type TranscriptSource interface {
	Capture(ctx context.Context, timeout time.Duration) (string, error)
}

// Speaker renders text as speech and returns when synthesis completes.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Actions is the network-service boundary (see internal/actions).
type Actions interface {
	Execute(ctx context.Context, kind actions.Kind, arg string) (string, error)
}

// Launcher resolves app names to local launch commands.
type Launcher interface {
	Launch(name string) error
	Names() []string
}

// HandlerFunc produces the spoken response for one intent. It must always
// return a sentence, mapping internal failures to apology text itself or
// via the helpers in handlers.go.
type HandlerFunc func(ctx context.Context, arg string) string

// Deps carries everything the assistant is built from. Config is read-only
// after load and shared by reference.
type Deps struct {
	Config   *config.Config
	Source   TranscriptSource
	Speaker  Speaker
	Actions  Actions
	Launcher Launcher
	History  *history.Store
	Chime    func()           // optional, played on wake
	Clock    func() time.Time // optional, defaults to time.Now
}

// Assistant runs the wake-word loop: wait for the hotword, capture a
// command, classify it, run the matching handler, record the exchange and
// speak the response. One cycle at a time; speech blocks the return to
// Idle so the assistant never listens while talking.
type Assistant struct {
	cfg      *config.Config
	source   TranscriptSource
	speaker  Speaker
	actions  Actions
	launcher Launcher
	history  *history.Store
	chime    func()
	clock    func() time.Time

	handlers map[intent.Kind]HandlerFunc

	wakeTimeout    time.Duration
	commandTimeout time.Duration
	serviceTimeout time.Duration

	state   atomic.Int32
	forced  atomic.Bool
	wakeIdx int

	onTransition func(from, to State)
	onExchange   func(entry history.Entry)
}

// New wires an assistant. Handlers for the built-in intents are registered
// here; Register can replace or extend them before Run.
func New(d Deps) *Assistant {
	a := &Assistant{
		cfg:            d.Config,
		source:         d.Source,
		speaker:        d.Speaker,
		actions:        d.Actions,
		launcher:       d.Launcher,
		history:        d.History,
		chime:          d.Chime,
		clock:          d.Clock,
		wakeTimeout:    5 * time.Second,
		commandTimeout: 10 * time.Second,
		serviceTimeout: 10 * time.Second,
	}
	if a.clock == nil {
		a.clock = time.Now
	}

	a.handlers = map[intent.Kind]HandlerFunc{
		intent.CheckTime: a.handleTime,
		intent.WebSearch: a.handleSearch,
		intent.Weather:   a.handleWeather,
		intent.OpenApp:   a.handleOpen,
		intent.Goodbye:   a.handleGoodbye,
		intent.Unknown:   a.handleUnknown,
	}
	return a
}

// Register binds fn to kind, replacing any existing handler. Must be
// called before Run.
func (a *Assistant) Register(kind intent.Kind, fn HandlerFunc) {
	a.handlers[kind] = fn
}

// OnTransition installs a state-change listener. Must be set before Run.
func (a *Assistant) OnTransition(fn func(from, to State)) {
	a.onTransition = fn
}

// OnExchange installs a listener called after each exchange is recorded.
// Must be set before Run.
func (a *Assistant) OnExchange(fn func(entry history.Entry)) {
	a.onExchange = fn
}

// State returns the current dispatcher state.
func (a *Assistant) State() State {
	return State(a.state.Load())
}

// ForceWake makes the next cycle skip hotword detection, as if the wake
// phrase had just been heard. Takes effect once the in-flight capture
// returns.
func (a *Assistant) ForceWake() {
	a.forced.Store(true)
}

// Run drives the state machine until a Goodbye intent or ctx cancellation.
// Both exits are clean: in-flight captures and network calls observe ctx.
func (a *Assistant) Run(ctx context.Context) error {
	a.say(ctx, fmt.Sprintf("Hello %s, how can I assist you today?", a.cfg.DisplayName))

	for {
		if ctx.Err() != nil {
			a.setState(Stopped)
			return nil
		}

		if !a.forced.Swap(false) {
			text, err := a.source.Capture(ctx, a.wakeTimeout)
			if err != nil {
				if ctx.Err() != nil {
					a.setState(Stopped)
					return nil
				}
				log.Error("wake capture failed", "err", err)
				continue
			}
			if !intent.ContainsToken(text, a.cfg.Hotword) {
				continue
			}
		}

		a.setState(Awake)
		if a.chime != nil {
			a.chime()
		}
		a.say(ctx, a.nextWakeResponse())

		command, err := a.source.Capture(ctx, a.commandTimeout)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("command capture failed", "err", err)
			}
			a.setState(Idle)
			continue
		}
		command = strings.TrimSpace(command)
		if command == "" {
			// Silence after the wake phrase gets no response.
			a.setState(Idle)
			continue
		}

		a.setState(Executing)
		it := intent.Classify(command)
		log.Info("command classified", "intent", it.Kind.String(), "arg", it.Arg)
		response := a.dispatch(ctx, it)

		entry := a.history.Append(command, response)
		if a.onExchange != nil {
			a.onExchange(entry)
		}

		a.setState(Responding)
		a.say(ctx, response)

		if it.Kind == intent.Goodbye {
			a.setState(Stopped)
			return nil
		}
		a.setState(Idle)
	}
}

func (a *Assistant) dispatch(ctx context.Context, it intent.Intent) string {
	fn, ok := a.handlers[it.Kind]
	if !ok {
		fn = a.handleUnknown
	}

	ctx, cancel := context.WithTimeout(ctx, a.serviceTimeout)
	defer cancel()
	return fn(ctx, it.Arg)
}

// say speaks text, logging synthesis failures instead of propagating them:
// a failed spoken response must not stop the loop.
func (a *Assistant) say(ctx context.Context, text string) {
	if err := a.speaker.Speak(ctx, text); err != nil {
		log.Error("synthesis failed", "err", err, "text", text)
	}
}

// nextWakeResponse cycles through the configured wake responses in order.
// Deterministic by construction, which keeps tests exact.
func (a *Assistant) nextWakeResponse() string {
	resp := a.cfg.WakeResponses[a.wakeIdx%len(a.cfg.WakeResponses)]
	a.wakeIdx++
	return resp
}

func (a *Assistant) setState(next State) {
	prev := State(a.state.Swap(int32(next)))
	if prev == next {
		return
	}
	log.Debug("state transition", "from", prev.String(), "to", next.String())
	if a.onTransition != nil {
		a.onTransition(prev, next)
	}
}
