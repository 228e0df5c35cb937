package handler

import (
	"context"
	"net/url"
	"strings"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

// Reddit scrapes post pages as Twitterbot.
type Reddit struct {
	client    *fetch.Client
	extractor *summary.Extractor
}

func (h *Reddit) ID() string { return "reddit" }

func (h *Reddit) Test(u *url.URL) bool {
	host := u.Hostname()
	return host == "reddit.com" || strings.HasSuffix(host, ".reddit.com") || host == "redd.it"
}

func (h *Reddit) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
	opts := args.FetchOptions()
	opts.UserAgent = fetch.UATwitterBot

	resp, err := h.client.Get(ctx, args.URL.String(), opts)
	if err != nil {
		return nil, err
	}
	body, err := resp.Text()
	if err != nil {
		return nil, err
	}

	s, err := h.extractor.Summarize(ctx, args.URL, body, args.FetchOptions())
	if err != nil {
		return nil, err
	}
	return &summary.WithTTL{Summary: s, CacheTTL: 3600}, nil
}
