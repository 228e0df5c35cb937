// Package fetch is the outbound HTTP layer: a single shared client with a
// cookie jar, redirect cap, timeouts, user-agent presets and a size-capped
// body reader, plus the ACL-checking dialer and the robots.txt gate.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/hideki0403/nokogiri/acl"
	"github.com/hideki0403/nokogiri/version"
)

// ErrBodyTooLarge is returned when a response body exceeds the configured
// content length limit. This is a size-policy error, not a transport error.
var ErrBodyTooLarge = errors.New("response body exceeds the content length limit")

// UserAgent selects one of the outbound user-agent presets.
type UserAgent int

const (
	UADefault UserAgent = iota
	UATwitterBot
	UAChrome
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

func (ua UserAgent) String() string {
	switch ua {
	case UATwitterBot:
		return "Twitterbot/1.0"
	case UAChrome:
		return chromeUA
	default:
		return fmt.Sprintf("Mozilla/5.0 (compatible; %s %s) SummalyBot/1.0 %s/%s",
			runtime.GOOS, runtime.GOARCH, version.Name, version.Version)
	}
}

// Options adjusts a single outbound request. The zero value asks for HTML
// with the default user agent and the configured default language.
type Options struct {
	UserAgent       UserAgent
	UserAgentString string // caller-supplied UA, used only with UADefault
	Accept          string
	Lang            string
	Headers         map[string]string
}

const defaultAccept = "text/html,application/xhtml+xml"

// ClientConfig carries the construction-time policies. Redirect, timeout
// and size limits live here; extractors never override them.
type ClientConfig struct {
	Transport        http.RoundTripper
	MaxRedirects     int
	OperationTimeout time.Duration
	BodyLimit        int64 // bytes; 0 disables the cap
	DefaultLang      string
}

// Client is the shared outbound HTTP client.
type Client struct {
	http        *http.Client
	bodyLimit   int64
	defaultLang string
	log         zerolog.Logger
}

func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})

	maxRedirects := cfg.MaxRedirects
	return &Client{
		http: &http.Client{
			Transport: cfg.Transport,
			Jar:       jar,
			Timeout:   cfg.OperationTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		bodyLimit:   cfg.BodyLimit,
		defaultLang: cfg.DefaultLang,
		log:         log,
	}
}

// Get fetches rawurl. Non-2xx responses are returned, not treated as
// errors; callers that care check the status themselves.
func (c *Client) Get(ctx context.Context, rawurl string, opts Options) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawurl, nil)
	if err != nil {
		return nil, err
	}

	accept := opts.Accept
	if accept == "" {
		accept = defaultAccept
	}
	req.Header.Set("Accept", accept)

	lang := opts.Lang
	if lang == "" {
		lang = c.defaultLang
	}
	req.Header.Set("Accept-Language", lang)

	switch {
	case opts.UserAgent != UADefault:
		req.Header.Set("User-Agent", opts.UserAgent.String())
	case opts.UserAgentString != "":
		req.Header.Set("User-Agent", opts.UserAgentString)
	default:
		req.Header.Set("User-Agent", UADefault.String())
	}

	// Custom headers merge last and override the defaults above.
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, ErrBlockedHost) || errors.Is(err, acl.ErrNonGlobalIP) {
			c.log.Info().Str("url", rawurl).Msg("fetch blocked by ACL: the resolved IP address is not allowed")
		} else {
			c.log.Error().Str("url", rawurl).AnErr("cause", rootCause(err)).Msgf("failed to fetch %q", rawurl)
		}
		return nil, err
	}

	return &Response{Response: resp, limit: c.bodyLimit, log: c.log}, nil
}

// Head performs a HEAD request and returns the response headers. Any
// response at all, whatever its status, counts as success.
func (c *Client) Head(ctx context.Context, rawurl string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", rawurl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UADefault.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp.Header, nil
}

// AddCookie stores a Set-Cookie style string in the shared jar for u.
func (c *Client) AddCookie(u *url.URL, cookie string) {
	resp := http.Response{Header: http.Header{"Set-Cookie": []string{cookie}}}
	c.http.Jar.SetCookies(u, resp.Cookies())
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// Response wraps an http.Response with the body-size policy.
type Response struct {
	*http.Response
	limit int64
	log   zerolog.Logger
}

// Text reads the whole body as UTF-8 text. The read is aborted with
// ErrBodyTooLarge once it exceeds the content length limit; a limit of 0
// disables the cap. Non-UTF-8 bodies fail.
func (r *Response) Text() (string, error) {
	defer r.Body.Close()

	var buf bytes.Buffer
	if r.limit <= 0 {
		if _, err := io.Copy(&buf, r.Body); err != nil {
			return "", fmt.Errorf("reading response body: %w", err)
		}
	} else {
		n, err := io.Copy(&buf, io.LimitReader(r.Body, r.limit+1))
		if err != nil {
			return "", fmt.Errorf("reading response body: %w", err)
		}
		if n > r.limit {
			r.log.Warn().Int64("limit", r.limit).Msg("response body exceeded the content length limit")
			return "", fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, r.limit)
		}
	}

	if !utf8.Valid(buf.Bytes()) {
		return "", errors.New("response body is not valid UTF-8")
	}
	return buf.String(), nil
}

// TTL extracts max-age from the Cache-Control header, defaulting to 300
// seconds when absent or malformed.
func (r *Response) TTL() int64 {
	for _, part := range strings.Split(r.Header.Get("Cache-Control"), ",") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "max-age="); ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
				return n
			}
		}
	}
	return 300
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}
