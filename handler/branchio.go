package handler

import (
	"context"
	"net/url"
	"strings"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

// BranchIO handles branch.io deep links (spotify.link, *.app.link). The
// $web_only flag makes the link resolve to a web page instead of an app
// store interstitial.
type BranchIO struct {
	client    *fetch.Client
	extractor *summary.Extractor
}

func (h *BranchIO) ID() string { return "branchio" }

func (h *BranchIO) Test(u *url.URL) bool {
	host := u.Hostname()
	return host == "spotify.link" || strings.HasSuffix(host, ".app.link")
}

func (h *BranchIO) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
	fixed := *args.URL
	fixed.RawQuery = "$web_only=true"

	resp, err := h.client.Get(ctx, fixed.String(), args.FetchOptions())
	if err != nil {
		return nil, err
	}
	ttl := resp.TTL()
	body, err := resp.Text()
	if err != nil {
		return nil, err
	}

	s, err := h.extractor.Summarize(ctx, &fixed, body, args.FetchOptions())
	if err != nil {
		return nil, err
	}
	return &summary.WithTTL{Summary: s, CacheTTL: ttl}, nil
}
