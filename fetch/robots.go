package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"

	"github.com/hideki0403/nokogiri/cache"
)

const robotsAgent = "SummalyBot"

// Robots answers "may we scrape this URL?" by fetching and caching the
// target host's robots.txt.
type Robots struct {
	client *Client
	cache  *cache.Cache
	log    zerolog.Logger
}

func NewRobots(client *Client, c *cache.Cache, log zerolog.Logger) *Robots {
	return &Robots{client: client, cache: c, log: log}
}

type robotsFetch struct {
	body string
	// failed fetches are not cached; disallowed marks the transient
	// failures (5xx, 429) where the conservative answer is "no".
	failed     bool
	disallowed bool
}

// Allowed reports whether robotsAgent may scrape u.
func (r *Robots) Allowed(ctx context.Context, u *url.URL) bool {
	host := u.Hostname()
	if host == "" {
		return false
	}

	body, cached := r.cache.GetRobots(ctx, host)
	if cached {
		r.log.Debug().Str("host", host).Msg("robots.txt cache hit")
	} else {
		res := r.fetch(ctx, u)
		if res.failed {
			return !res.disallowed
		}
		body = res.body
	}

	robots, err := robotstxt.FromString(body)
	if err != nil {
		// A malformed robots.txt is fully permissive.
		if !cached {
			r.cache.SetRobots(ctx, host, "")
		}
		return true
	}
	if !cached {
		r.cache.SetRobots(ctx, host, body)
	}
	return robots.FindGroup(robotsAgent).Test(u.Path)
}

func (r *Robots) fetch(ctx context.Context, u *url.URL) robotsFetch {
	robotsURL, err := u.Parse("/robots.txt")
	if err != nil {
		r.log.Debug().Err(err).Stringer("url", u).Msg("failed to construct robots.txt URL")
		return robotsFetch{failed: true}
	}

	resp, err := r.client.Get(ctx, robotsURL.String(), Options{})
	if err != nil {
		// Transport failures are definitive: cache the empty body and
		// allow scraping.
		r.cache.SetRobots(ctx, u.Hostname(), "")
		return robotsFetch{failed: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		// 5xx and 429 are transient; deny scraping and retry later by
		// leaving the cache untouched.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return robotsFetch{failed: true, disallowed: true}
		}
		r.cache.SetRobots(ctx, u.Hostname(), "")
		return robotsFetch{failed: true}
	}

	if !strings.HasPrefix(resp.ContentType(), "text/plain") {
		resp.Body.Close()
		r.cache.SetRobots(ctx, u.Hostname(), "")
		return robotsFetch{failed: true}
	}

	body, err := resp.Text()
	if err != nil {
		r.cache.SetRobots(ctx, u.Hostname(), "")
		return robotsFetch{failed: true}
	}

	return robotsFetch{body: body}
}
