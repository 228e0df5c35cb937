// Package handler contains the per-site summarizers and the dispatcher
// that selects among them.
package handler

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

// Arguments carries the per-request summarize parameters.
type Arguments struct {
	URL       *url.URL
	Lang      string // validated BCP-47 tag, empty when not requested
	UserAgent string // caller-supplied UA override
}

// FetchOptions translates the request arguments into outbound options.
func (a *Arguments) FetchOptions() fetch.Options {
	return fetch.Options{
		Lang:            a.Lang,
		UserAgentString: a.UserAgent,
	}
}

// Handler is one site-specific summarizer. Handlers are stateless and
// safe for concurrent use.
type Handler interface {
	ID() string
	Test(u *url.URL) bool
	Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error)
}

// RegistryConfig selects and tunes the active handlers.
type RegistryConfig struct {
	Disabled        []string
	IgnoreRobotsTxt bool
}

// NewRegistry builds the ordered handler list. Order matters: the first
// handler whose Test matches wins, and General is the unconditional
// terminator.
func NewRegistry(client *fetch.Client, extractor *summary.Extractor, robots *fetch.Robots, cfg RegistryConfig, log zerolog.Logger) []Handler {
	all := []Handler{
		&Wikipedia{client: client},
		&YouTube{client: client, extractor: extractor},
		&Skeb{client: client, base: "https://skeb.jp"},
		&Twitter{client: client, base: "https://cdn.syndication.twimg.com", log: log},
		&Spotify{client: client, extractor: extractor},
		&BranchIO{client: client, extractor: extractor},
		&Amazon{client: client, extractor: extractor},
		&Reddit{client: client, extractor: extractor},
		&General{client: client, extractor: extractor, robots: robots, ignoreRobots: cfg.IgnoreRobotsTxt, log: log},
	}

	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, id := range cfg.Disabled {
		disabled[id] = true
	}

	active := make([]Handler, 0, len(all))
	for _, h := range all {
		if disabled[h.ID()] {
			log.Info().Str("handler", h.ID()).Msg("handler disabled by configuration")
			continue
		}
		active = append(active, h)
	}
	return active
}
