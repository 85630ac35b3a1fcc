package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Kind names an external service the dispatcher can call.
type Kind string

const (
	Search  Kind = "search"
	Weather Kind = "weather"
)

// ErrorKind classifies a service failure so call sites can pick the right
// spoken response without parsing error strings.
type ErrorKind int

const (
	Timeout ErrorKind = iota
	Unreachable
	InvalidResponse
	NotConfigured
)

func (k ErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Unreachable:
		return "unreachable"
	case InvalidResponse:
		return "invalid_response"
	case NotConfigured:
		return "not_configured"
	default:
		return "unknown"
	}
}

// ServiceError is the only error type Execute returns.
type ServiceError struct {
	Service Kind
	Kind    ErrorKind
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Service, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from an error returned by Execute.
func KindOf(err error) (ErrorKind, bool) {
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.Kind, true
	}
	return 0, false
}

const (
	defaultWeatherBaseURL = "https://api.weatherapi.com/v1/current.json"
	defaultSearchBaseURL  = "https://api.duckduckgo.com/"
)

// Config selects credentials, endpoints and the per-call deadline.
// Zero-value endpoints fall back to the real providers; tests point them
// at local servers.
type Config struct {
	WeatherKey     string
	WeatherBaseURL string
	SearchBaseURL  string
	Timeout        time.Duration
}

// Services executes weather and search requests behind one uniform
// contract. Every call is bounded by the configured timeout and every
// failure comes back as a *ServiceError.
type Services struct {
	client  *http.Client
	cfg     Config
	timeout time.Duration
}

// New builds the service boundary. client may carry a proxied transport;
// nil falls back to a plain client.
func New(client *http.Client, cfg Config) *Services {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.WeatherBaseURL == "" {
		cfg.WeatherBaseURL = defaultWeatherBaseURL
	}
	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = defaultSearchBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Services{client: client, cfg: cfg, timeout: timeout}
}

// Execute runs one request against the named service and returns a spoken
// sentence fragment. arg is the search query or weather location.
func (s *Services) Execute(ctx context.Context, kind Kind, arg string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch kind {
	case Weather:
		return s.weather(ctx, arg)
	case Search:
		return s.search(ctx, arg)
	default:
		return "", &ServiceError{Service: kind, Kind: NotConfigured, Err: fmt.Errorf("unknown service %q", kind)}
	}
}

func (s *Services) weather(ctx context.Context, location string) (string, error) {
	if s.cfg.WeatherKey == "" {
		return "", &ServiceError{Service: Weather, Kind: NotConfigured, Err: errors.New("weather API key not set")}
	}

	q := url.Values{}
	q.Set("key", s.cfg.WeatherKey)
	q.Set("q", location)

	var payload struct {
		Current struct {
			TempC     float64 `json:"temp_c"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := s.getJSON(ctx, Weather, s.cfg.WeatherBaseURL+"?"+q.Encode(), &payload); err != nil {
		return "", err
	}

	if payload.Current.Condition.Text == "" {
		return "", &ServiceError{Service: Weather, Kind: InvalidResponse, Err: errors.New("response missing current condition")}
	}
	return fmt.Sprintf("The weather in %s is %s with a temperature of %.0f degrees Celsius.",
		location, payload.Current.Condition.Text, payload.Current.TempC), nil
}

func (s *Services) search(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")

	var payload struct {
		AbstractText string `json:"AbstractText"`
	}
	if err := s.getJSON(ctx, Search, s.cfg.SearchBaseURL+"?"+q.Encode(), &payload); err != nil {
		return "", err
	}
	return payload.AbstractText, nil
}

func (s *Services) getJSON(ctx context.Context, kind Kind, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &ServiceError{Service: kind, Kind: InvalidResponse, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return classify(kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ServiceError{Service: kind, Kind: InvalidResponse, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Service: kind, Kind: InvalidResponse, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func classify(kind Kind, err error) *ServiceError {
	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ServiceError{Service: kind, Kind: Timeout, Err: err}
	case errors.As(err, &nerr) && nerr.Timeout():
		return &ServiceError{Service: kind, Kind: Timeout, Err: err}
	default:
		return &ServiceError{Service: kind, Kind: Unreachable, Err: err}
	}
}
