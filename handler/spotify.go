package handler

import (
	"context"
	"net/url"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

// Spotify scrapes open.spotify.com as Twitterbot. The fallback player is
// suppressed: the og:video URLs there are not embeddable, so only an
// oEmbed player survives.
type Spotify struct {
	client    *fetch.Client
	extractor *summary.Extractor
}

func (h *Spotify) ID() string { return "spotify" }

func (h *Spotify) Test(u *url.URL) bool {
	return u.Hostname() == "open.spotify.com"
}

func (h *Spotify) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
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

	s, err := h.extractor.SummarizeWith(ctx, args.URL, body, args.FetchOptions(), summary.Overrides{
		Sitename:      "Spotify",
		SkipIconProbe: true,
		NoPlayer:      true,
		NoSensitive:   true,
		NoFediverse:   true,
		LargeCard:     summary.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	return &summary.WithTTL{Summary: s, CacheTTL: 86400}, nil
}
