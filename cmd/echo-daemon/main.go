package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"github.com/Nithin-2002-kumar/echo/internal/actions"
	"github.com/Nithin-2002-kumar/echo/internal/apps"
	"github.com/Nithin-2002-kumar/echo/internal/assistant"
	"github.com/Nithin-2002-kumar/echo/internal/audio"
	"github.com/Nithin-2002-kumar/echo/internal/config"
	"github.com/Nithin-2002-kumar/echo/internal/history"
	"github.com/Nithin-2002-kumar/echo/internal/ipc"
	"github.com/Nithin-2002-kumar/echo/internal/notify"
	"github.com/Nithin-2002-kumar/echo/internal/proxy"
	"github.com/Nithin-2002-kumar/echo/internal/status"
	"github.com/Nithin-2002-kumar/echo/internal/stt"
	"github.com/Nithin-2002-kumar/echo/internal/tts"
)

const serviceTimeout = 10 * time.Second

func main() {
	configPath := cli.StringP("config", "c", config.DefaultPath, "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	logFile := cli.String("log-file", "echo_assistant.log", "Diagnostic log file")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS proxy address for action services")
	statusAddr := cli.StringP("status", "s", "", "Status server listen address")
	useStdin := cli.Bool("stdin", false, "Read utterances from stdin instead of the microphone")
	modelPath := cli.StringP("model", "m", "models/ggml-base.en.bin", "Whisper model path")
	chimePath := cli.String("chime", "", "Wake chime mp3 path")
	dumpDir := cli.String("dump-audio", "", "Directory for captured-audio wav dumps")
	cli.Parse()

	closeLog := setupLogging(*logLevel, *logFile)
	defer closeLog()

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	log.Debug("Loaded config", "hotword", cfg.Hotword, "max_history", cfg.MaxHistory)

	httpClient := &http.Client{Timeout: serviceTimeout}
	if *proxyAddr != "" {
		httpClient, err = proxy.NewSOCKSClient(*proxyAddr, serviceTimeout)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded proxy", "addr", *proxyAddr)
	}

	source, closeSource, err := buildSource(*useStdin, *modelPath, *dumpDir)
	if err != nil {
		log.Error("Failed to init transcript source", "err", err)
		os.Exit(1)
	}
	defer closeSource()

	hist := history.NewStore(cfg.MaxHistory)
	defer hist.Clear()

	a := assistant.New(assistant.Deps{
		Config:   cfg,
		Source:   source,
		Speaker:  tts.New(cfg.SpeechRate, cfg.VoiceID),
		Actions:  actions.New(httpClient, actions.Config{WeatherKey: cfg.WeatherAPIKey, Timeout: serviceTimeout}),
		Launcher: apps.New(cfg.Apps),
		History:  hist,
		Chime:    buildChime(*chimePath),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *statusAddr != "" {
		srv := status.NewServer(*statusAddr, hist, func() string { return a.State().String() })
		a.OnTransition(func(from, to assistant.State) {
			srv.Publish(status.Event{Kind: "state", From: from.String(), To: to.String()})
		})
		a.OnExchange(func(entry history.Entry) {
			srv.Publish(status.Event{Kind: "exchange", Command: entry.Command, Response: entry.Response, At: entry.Timestamp})
		})
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	ln, err := ipc.StartServer(ipc.SocketPath, func(msg ipc.ControlMessage) ipc.Reply {
		reply := ipc.Reply{State: a.State().String(), History: hist.Len()}
		switch msg.Cmd {
		case "stop":
			stop()
		case "trigger":
			a.ForceWake()
		case "status":
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			reply.Err = "unknown command: " + msg.Cmd
		}
		return reply
	})
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer ln.Close()

	log.Info("Boot up - successful")

	if err := a.Run(ctx); err != nil {
		log.Error("Assistant stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("Stopped")
}

// buildSource picks the transcript source: microphone + whisper by
// default, stdin lines when requested.
func buildSource(useStdin bool, modelPath, dumpDir string) (assistant.TranscriptSource, func(), error) {
	if useStdin {
		return stt.NewLineSource(os.Stdin), func() {}, nil
	}

	rec := audio.NewRecorder(audio.Options{DumpDir: dumpDir})
	if err := rec.Init(); err != nil {
		return nil, nil, err
	}
	log.Debug("Loaded recorder")

	tr, err := stt.NewTranscriber(modelPath)
	if err != nil {
		rec.Close()
		return nil, nil, err
	}
	log.Debug("Loaded whisper", "model", modelPath)

	source := stt.NewMicSource(rec, tr, stt.Options{Language: "en"})
	return source, func() {
		tr.Close()
		rec.Close()
	}, nil
}

// buildChime returns the wake chime, or nil when none is configured or
// the file cannot be decoded. A broken chime is not a failed boot.
func buildChime(path string) func() {
	if path == "" {
		return nil
	}
	c, err := notify.NewChime(path)
	if err != nil {
		log.Warn("Chime disabled", "path", path, "err", err)
		return nil
	}
	return c.Play
}
