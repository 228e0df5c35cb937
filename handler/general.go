package handler

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

// ErrDisallowedByRobots is returned when the target host's robots.txt
// forbids scraping.
var ErrDisallowedByRobots = errors.New("scraping disallowed by robots.txt")

// General is the unconditional terminator of the handler list: plain
// generic extraction gated by robots.txt.
type General struct {
	client       *fetch.Client
	extractor    *summary.Extractor
	robots       *fetch.Robots
	ignoreRobots bool
	log          zerolog.Logger
}

func (h *General) ID() string { return "general" }

func (h *General) Test(u *url.URL) bool { return true }

func (h *General) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
	if !h.ignoreRobots && !h.robots.Allowed(ctx, args.URL) {
		h.log.Debug().Stringer("url", args.URL).Msg("scraping disallowed by robots.txt")
		return nil, ErrDisallowedByRobots
	}

	resp, err := h.client.Get(ctx, args.URL.String(), args.FetchOptions())
	if err != nil {
		return nil, err
	}
	ttl := resp.TTL()
	body, err := resp.Text()
	if err != nil {
		return nil, err
	}

	s, err := h.extractor.Summarize(ctx, args.URL, body, args.FetchOptions())
	if err != nil {
		return nil, err
	}
	return &summary.WithTTL{Summary: s, CacheTTL: ttl}, nil
}
