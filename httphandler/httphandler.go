// Package httphandler exposes the summarization pipeline over HTTP.
//
// The handler expects a percent-encoded ?url= query parameter and
// responds with the summary JSON:
//
//	$ curl -s 'localhost:3000/url?url=https%3A%2F%2Fexample.com' | jq .
//	{
//	    "title": "Example Domain",
//	    ...
//	    "url": "https://example.com"
//	}
package httphandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hideki0403/nokogiri/handler"
	"github.com/hideki0403/nokogiri/summary"
	"github.com/hideki0403/nokogiri/version"
)

// Summarizer is the dispatcher interface the handler depends on.
type Summarizer interface {
	Summarize(ctx context.Context, args *handler.Arguments) (*summary.Summary, error)
}

// Successful summaries may be cached aggressively by clients.
const cacheControl = "public, max-age=604800"

// Handler serves GET /url.
type Handler struct {
	dispatcher Summarizer
	secretKey  string
}

var _ http.Handler = &Handler{}

// New creates a new Handler. An empty secretKey disables authentication.
func New(dispatcher Summarizer, secretKey string) *Handler {
	return &Handler{dispatcher: dispatcher, secretKey: secretKey}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawURL := q.Get("url")
	if rawURL == "" {
		sendText(w, http.StatusBadRequest, "Missing 'url' parameter")
		return
	}

	if h.secretKey != "" && q.Get("secretKey") != h.secretKey {
		sendText(w, http.StatusUnauthorized, "Invalid secret key")
		return
	}

	// The query value arrives percent-decoded once already; clients
	// conventionally send a double-encoded URL, so decode once more.
	decoded, err := url.QueryUnescape(rawURL)
	if err != nil {
		sendText(w, http.StatusBadRequest, "URL Decode failed")
		return
	}

	u, err := url.Parse(decoded)
	if err != nil {
		sendText(w, http.StatusBadRequest, "Invalid URL")
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		sendText(w, http.StatusBadRequest, "Only http and https are supported")
		return
	}

	s, err := h.dispatcher.Summarize(r.Context(), &handler.Arguments{
		URL:       u,
		Lang:      q.Get("lang"),
		UserAgent: q.Get("userAgent"),
	})
	if err != nil || s == nil {
		sendText(w, http.StatusInternalServerError, "Failed to summarize the URL")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", cacheControl)
	_ = json.NewEncoder(w).Encode(s)
}

func sendText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, msg)
}

// Index serves the GET / service banner.
func Index() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "%s v%s - %s", version.Name, version.Version, version.Repository)
	})
}

// RobotsTxt serves GET /robots.txt; the service itself is not crawlable.
func RobotsTxt() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /")
	})
}
