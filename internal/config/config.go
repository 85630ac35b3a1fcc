package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DefaultPath is where the assistant looks for its configuration
// when no --config flag is given.
const DefaultPath = "echo_config.json"

// Config holds every option the assistant reads. It is loaded once at
// startup and never mutated afterwards; components receive it by pointer
// at construction.
type Config struct {
	DisplayName     string              `json:"display_name"`
	SpeechRate      int                 `json:"speech_rate"`
	VoiceID         int                 `json:"voice_id"`
	Hotword         string              `json:"hotword"`
	WakeResponses   []string            `json:"wake_responses"`
	WeatherAPIKey   string              `json:"weather_api_key"`
	MaxHistory      int                 `json:"max_history"`
	DefaultLocation string              `json:"default_location"`
	Apps            map[string][]string `json:"apps"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		DisplayName:     "User",
		SpeechRate:      170,
		VoiceID:         0,
		Hotword:         "echo",
		WakeResponses:   []string{"Yes?", "I'm here!", "How can I assist?"},
		MaxHistory:      100,
		DefaultLocation: "New York",
		Apps: map[string][]string{
			"browser": {"xdg-open", "https://www.google.com"},
		},
	}
}

// Load reads the JSON config at path. A missing file is not an error:
// the defaults are written there and returned. Absent fields keep their
// default values. ECHO_WEATHER_API_KEY overrides the weather key so the
// credential can stay out of the config file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if werr := write(path, cfg); werr != nil {
			return nil, fmt.Errorf("write default config: %w", werr)
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if uerr := json.Unmarshal(data, cfg); uerr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, uerr)
		}
	}

	if key := os.Getenv("ECHO_WEATHER_API_KEY"); key != "" {
		cfg.WeatherAPIKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Hotword == "" {
		return errors.New("config: hotword must not be empty")
	}
	if len(c.WakeResponses) == 0 {
		return errors.New("config: wake_responses must not be empty")
	}
	if c.MaxHistory <= 0 {
		return fmt.Errorf("config: max_history must be positive, got %d", c.MaxHistory)
	}
	if c.SpeechRate <= 0 {
		return fmt.Errorf("config: speech_rate must be positive, got %d", c.SpeechRate)
	}
	return nil
}

func write(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
