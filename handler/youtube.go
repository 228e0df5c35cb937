package handler

import (
	"context"
	"net/url"
	"regexp"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

var youtubeDomainRe = regexp.MustCompile(`^(.*\.)?(youtube(-nocookie)?\.com|youtu.be)$`)

// YouTube fetches watch pages as Twitterbot, which gets the full OG
// metadata without a consent interstitial.
type YouTube struct {
	client    *fetch.Client
	extractor *summary.Extractor
}

func (h *YouTube) ID() string { return "youtube" }

func (h *YouTube) Test(u *url.URL) bool {
	return youtubeDomainRe.MatchString(u.Hostname())
}

func (h *YouTube) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
	opts := args.FetchOptions()
	opts.UserAgent = fetch.UATwitterBot

	resp, err := h.client.Get(ctx, args.URL.String(), opts)
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
