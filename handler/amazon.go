package handler

import (
	"context"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

var (
	amazonDomainRe  = regexp.MustCompile(`^(www\.)?((amazon(\.co|com)?(\.[a-z]{2})?|amzn\.[a-z]{2,4}))$`)
	amazonAdultWarn = cascadia.MustCompile("#adultWarning")
)

// Amazon scrapes product pages as Twitterbot. Product pages behind the
// adult warning gate are marked sensitive.
type Amazon struct {
	client    *fetch.Client
	extractor *summary.Extractor
}

func (h *Amazon) ID() string { return "amazon" }

func (h *Amazon) Test(u *url.URL) bool {
	return amazonDomainRe.MatchString(u.Hostname())
}

func (h *Amazon) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
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
		Sitename:      "Amazon",
		Icon:          "https://www.amazon.com/favicon.ico",
		SkipIconProbe: true,
		NoOEmbed:      true,
		NoFediverse:   true,
		LargeCard:     summary.Bool(true),
		Sensitive: func(doc *goquery.Document) *bool {
			return summary.Bool(doc.FindMatcher(amazonAdultWarn).Length() > 0)
		},
	})
	if err != nil {
		return nil, err
	}
	return &summary.WithTTL{Summary: s, CacheTTL: 3600}, nil
}
