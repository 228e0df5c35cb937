package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/summary"
)

var tweetURLRe = regexp.MustCompile(`^https?://((www|mobile)\.)?(twitter|x)\.com/\w+/status/(?P<id>\d+)([/?#].*)?$`)

// Twitter resolves tweet URLs through the syndication CDN, which serves
// tweet JSON without authentication.
type Twitter struct {
	client *fetch.Client
	base   string // syndication CDN base URL
	log    zerolog.Logger
}

func (h *Twitter) ID() string { return "twitter" }

func (h *Twitter) Test(u *url.URL) bool {
	return tweetURLRe.MatchString(u.String())
}

type tweetData struct {
	Typename          *string        `json:"__typename"`
	Text              *string        `json:"text"`
	User              *tweetUser     `json:"user"`
	Entities          *tweetEntities `json:"entities"`
	Photos            []tweetPhoto   `json:"photos"`
	Video             *tweetVideo    `json:"video"`
	PossiblySensitive *bool          `json:"possibly_sensitive"`
}

type tweetUser struct {
	Name                 *string `json:"name"`
	ScreenName           *string `json:"screen_name"`
	ProfileImageURLHTTPS *string `json:"profile_image_url_https"`
}

type tweetEntities struct {
	URLs  []tweetURL `json:"urls"`
	Media []tweetURL `json:"media"`
}

type tweetURL struct {
	URL        *string `json:"url"`
	DisplayURL *string `json:"display_url"`
}

type tweetPhoto struct {
	URL *string `json:"url"`
}

type tweetVideo struct {
	Poster *string `json:"poster"`
}

func (h *Twitter) Summarize(ctx context.Context, args *Arguments) (*summary.WithTTL, error) {
	m := tweetURLRe.FindStringSubmatch(args.URL.String())
	if m == nil {
		return nil, fmt.Errorf("not a tweet URL: %s", args.URL)
	}
	id := m[tweetURLRe.SubexpIndex("id")]

	resp, err := h.client.Get(ctx, fmt.Sprintf("%s/tweet-result?id=%s&token=x&lang=en", h.base, id), args.FetchOptions())
	if err != nil {
		return nil, err
	}
	body, err := resp.Text()
	if err != nil {
		return nil, err
	}

	var tweet tweetData
	if err := json.Unmarshal([]byte(body), &tweet); err != nil {
		return nil, fmt.Errorf("decoding tweet %s: %w", id, err)
	}

	isTwitter := strings.Contains(strings.ToLower(args.URL.Hostname()), "twitter")
	s := &summary.Summary{
		Icon:      summary.String("https://x.com/favicon.ico"),
		Sitename:  summary.String("X"),
		Sensitive: tweet.PossiblySensitive,
		Player:    summary.EmptyPlayer(),
	}
	if isTwitter {
		s.Icon = summary.String("https://abs.twimg.com/favicons/twitter.2.ico")
		s.Sitename = summary.String("Twitter")
	}

	if tweet.Typename == nil || *tweet.Typename != "Tweet" {
		// Withheld or deleted tweets still get a minimal card.
		s.Title = *s.Sitename
		return &summary.WithTTL{Summary: s, CacheTTL: 3600}, nil
	}

	if tweet.User == nil || tweet.User.Name == nil || tweet.User.ScreenName == nil {
		h.log.Info().Str("id", id).Msg("tweet user data is missing")
		return nil, fmt.Errorf("tweet %s has no user data", id)
	}

	text := ""
	if tweet.Text != nil {
		text = *tweet.Text
	}
	if tweet.Entities != nil {
		for _, u := range tweet.Entities.URLs {
			if u.URL != nil && u.DisplayURL != nil {
				text = strings.ReplaceAll(text, *u.URL, *u.DisplayURL)
			}
		}
		for _, m := range tweet.Entities.Media {
			if m.URL != nil {
				text = strings.ReplaceAll(text, *m.URL, "")
			}
		}
	}

	s.Title = fmt.Sprintf("%s (@%s)", *tweet.User.Name, *tweet.User.ScreenName)
	s.Description = summary.String(strings.TrimSpace(text))
	s.Thumbnail = tweetThumbnail(&tweet)

	return &summary.WithTTL{Summary: s, CacheTTL: 3600}, nil
}

// tweetThumbnail picks the video poster, then the first photo, then the
// author's full-size avatar.
func tweetThumbnail(tweet *tweetData) *string {
	if tweet.Video != nil && tweet.Video.Poster != nil {
		return tweet.Video.Poster
	}
	if len(tweet.Photos) > 0 && tweet.Photos[0].URL != nil {
		return tweet.Photos[0].URL
	}
	if tweet.User != nil && tweet.User.ProfileImageURLHTTPS != nil {
		return summary.String(strings.ReplaceAll(*tweet.User.ProfileImageURLHTTPS, "_normal.", "."))
	}
	return nil
}
