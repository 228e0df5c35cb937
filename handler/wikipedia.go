package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

var wikipediaPageRe = regexp.MustCompile(`^https?://(?:(?P<lang>.*).)?wikipedia\.org/wiki/(?P<title>.*?)(?:[#?/].*)?$`)

// Wikipedia summarizes articles through the REST summary API instead of
// scraping the page.
type Wikipedia struct {
	client *fetch.Client
}

func (h *Wikipedia) ID() string { return "wikipedia" }

func (h *Wikipedia) Test(u *url.URL) bool {
	host := u.Hostname()
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

type wikipediaPage struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

func (h *Wikipedia) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
	m := wikipediaPageRe.FindStringSubmatch(args.URL.String())
	if m == nil {
		return nil, fmt.Errorf("not a wikipedia article URL: %s", args.URL)
	}
	lang := m[wikipediaPageRe.SubexpIndex("lang")]
	if lang == "" {
		lang = "en"
	}
	title := m[wikipediaPageRe.SubexpIndex("title")]

	opts := args.FetchOptions()
	opts.Accept = "application/json"

	resp, err := h.client.Get(ctx, fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1/page/summary/%s", lang, title), opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("wikipedia API returned HTTP %d", resp.StatusCode)
	}
	body, err := resp.Text()
	if err != nil {
		return nil, err
	}

	var page wikipediaPage
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		return nil, fmt.Errorf("decoding wikipedia API response: %w", err)
	}

	return &summary.WithTTL{
		Summary: &summary.Summary{
			Title:       summary.TextClamp(page.Title, 100),
			Description: summary.String(summary.TextClamp(page.Extract, 300)),
			Icon:        summary.String("https://wikipedia.org/static/favicon/wikipedia.ico"),
			Sitename:    summary.String("Wikipedia"),
			Thumbnail:   summary.String(fmt.Sprintf("https://wikipedia.org/static/images/project-logos/%swiki.png", lang)),
			Player:      summary.EmptyPlayer(),
		},
		CacheTTL: 604800,
	}, nil
}
