package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

var (
	skebURLRe    = regexp.MustCompile(`^https://([a-z0-9-]+\.)?skeb\.jp/@(?P<user>\w+)(/works/(?P<work>[0-9]+))?/?$`)
	skebCookieRe = regexp.MustCompile(`document\.cookie\s?=\s?"(?P<cookie>.*)";`)
)

// Skeb talks to the Skeb JSON API. The API sits behind a cookie check
// that answers HTTP 429 with Retry-After: 0 and a script setting
// document.cookie; we capture that cookie and retry once.
type Skeb struct {
	client *fetch.Client
	base   string
}

func (h *Skeb) ID() string { return "skeb" }

func (h *Skeb) Test(u *url.URL) bool {
	return skebURLRe.MatchString(u.String())
}

type skebUser struct {
	Name        string  `json:"name"`
	ScreenName  string  `json:"screen_name"`
	Description *string `json:"description"`
	OGImageURL  *string `json:"og_image_url"`
}

type skebWork struct {
	Creator    skebCreator `json:"creator"`
	Body       *string     `json:"body"`
	OGImageURL *string     `json:"og_image_url"`
	NSFW       bool        `json:"nsfw"`
}

type skebCreator struct {
	Name string `json:"name"`
}

func (h *Skeb) apiOptions() fetch.Options {
	return fetch.Options{
		UserAgent: fetch.UAChrome,
		Accept:    "application/json",
		Headers:   map[string]string{"Authorization": "Bearer null"},
	}
}

func (h *Skeb) call(ctx context.Context, rawurl string, out interface{}) error {
	u, err := url.Parse(rawurl)
	if err != nil {
		return err
	}

	resp, err := h.client.Get(ctx, rawurl, h.apiOptions())
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusTooManyRequests && resp.Header.Get("Retry-After") == "0" {
		body, err := resp.Text()
		if err != nil {
			return err
		}
		m := skebCookieRe.FindStringSubmatch(body)
		if m == nil {
			return fmt.Errorf("skeb cookie check page had no cookie")
		}
		h.client.AddCookie(u, m[skebCookieRe.SubexpIndex("cookie")])

		resp, err = h.client.Get(ctx, rawurl, h.apiOptions())
		if err != nil {
			return err
		}
	}

	body, err := resp.Text()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

func (h *Skeb) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
	m := skebURLRe.FindStringSubmatch(args.URL.String())
	if m == nil {
		return nil, fmt.Errorf("not a skeb URL: %s", args.URL)
	}
	user := m[skebURLRe.SubexpIndex("user")]
	work := m[skebURLRe.SubexpIndex("work")]

	var (
		title       string
		description *string
		thumbnail   *string
		nsfw        bool
	)

	if work != "" {
		var res skebWork
		if err := h.call(ctx, fmt.Sprintf("%s/api/users/%s/works/%s", h.base, user, work), &res); err != nil {
			return nil, err
		}
		caption := "Untitled"
		if res.Body != nil {
			caption = summary.TextClamp(strings.ReplaceAll(*res.Body, "\n", ""), 12)
			description = summary.String(summary.TextClamp(*res.Body, 300))
		}
		title = fmt.Sprintf("%s by %s", caption, res.Creator.Name)
		thumbnail = res.OGImageURL
		nsfw = res.NSFW
	} else {
		var res skebUser
		if err := h.call(ctx, fmt.Sprintf("%s/api/users/%s", h.base, user), &res); err != nil {
			return nil, err
		}
		title = fmt.Sprintf("%s (@%s)", res.Name, res.ScreenName)
		if res.Description != nil {
			description = summary.String(summary.TextClamp(*res.Description, 300))
		}
		thumbnail = res.OGImageURL
	}

	return &summary.WithTTL{
		Summary: &summary.Summary{
			Title:       fmt.Sprintf("%s | Skeb", title),
			Description: description,
			Icon:        summary.String("https://fcdn.skeb.jp/assets/v1/commons/favicon.ico"),
			Sitename:    summary.String("Skeb"),
			Thumbnail:   thumbnail,
			Sensitive:   summary.Bool(nsfw),
			LargeCard:   summary.Bool(true),
			Player:      summary.EmptyPlayer(),
		},
		CacheTTL: 3600,
	}, nil
}
