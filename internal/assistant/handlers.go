package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/Nithin-2002-kumar/echo/internal/actions"
)

const (
	searchPromptResponse  = "What would you like me to search for?"
	searchFailedResponse  = "Sorry, I couldn't search for that right now."
	weatherNoKeyResponse  = "Weather API key not configured."
	weatherFailedResponse = "I couldn't retrieve the weather information."
	openFailedResponse    = "I couldn't open that application."
	unknownResponse       = "I'm not sure how to handle that command."
	farewellResponse      = "Goodbye!"
)

func (a *Assistant) handleTime(_ context.Context, _ string) string {
	return fmt.Sprintf("The current time is %s.", a.clock().Format("3:04 PM"))
}

func (a *Assistant) handleSearch(ctx context.Context, query string) string {
	if query == "" {
		return searchPromptResponse
	}

	abstract, err := a.actions.Execute(ctx, actions.Search, query)
	if err != nil {
		kind, _ := actions.KindOf(err)
		log.Error("search failed", "query", query, "kind", kind.String(), "err", err)
		return searchFailedResponse
	}
	if abstract == "" {
		return fmt.Sprintf("Searching for %s.", query)
	}
	return fmt.Sprintf("Searching for %s. %s", query, abstract)
}

func (a *Assistant) handleWeather(ctx context.Context, location string) string {
	if location == "" {
		location = a.cfg.DefaultLocation
	}

	report, err := a.actions.Execute(ctx, actions.Weather, location)
	if err != nil {
		kind, _ := actions.KindOf(err)
		if kind == actions.NotConfigured {
			return weatherNoKeyResponse
		}
		log.Error("weather lookup failed", "location", location, "kind", kind.String(), "err", err)
		return weatherFailedResponse
	}
	return report
}

func (a *Assistant) handleOpen(_ context.Context, app string) string {
	if a.launcher == nil || app == "" {
		return openFailedResponse
	}
	if err := a.launcher.Launch(app); err != nil {
		log.Error("launch failed", "app", app, "err", err)
		if names := a.launcher.Names(); len(names) > 0 {
			return fmt.Sprintf("I can only open %s at the moment.", strings.Join(names, " or "))
		}
		return openFailedResponse
	}
	return fmt.Sprintf("Opening %s.", app)
}

func (a *Assistant) handleGoodbye(_ context.Context, _ string) string {
	return farewellResponse
}

func (a *Assistant) handleUnknown(_ context.Context, _ string) string {
	return unknownResponse
}
