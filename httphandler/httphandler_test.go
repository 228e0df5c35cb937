package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hideki0403/nokogiri/handler"
	"github.com/hideki0403/nokogiri/summary"
)

type stubSummarizer struct {
	lastArgs *handler.Arguments
	result   *summary.Summary
	err      error
}

func (s *stubSummarizer) Summarize(ctx context.Context, args *handler.Arguments) (*summary.Summary, error) {
	s.lastArgs = args
	return s.result, s.err
}

func TestServeHTTP(t *testing.T) {
	okSummary := &summary.Summary{
		Title:  "Example",
		Player: summary.EmptyPlayer(),
		URL:    "https://example.com/",
	}

	testCases := map[string]struct {
		query     string
		secretKey string
		stub      stubSummarizer
		wantCode  int
		wantBody  string
	}{
		"ok": {
			query:    "?url=" + url.QueryEscape("https://example.com/"),
			stub:     stubSummarizer{result: okSummary},
			wantCode: http.StatusOK,
			wantBody: `"title":"Example"`,
		},
		"missing url": {
			query:    "",
			wantCode: http.StatusBadRequest,
			wantBody: "Missing 'url' parameter",
		},
		"wrong secret key": {
			query:     "?url=" + url.QueryEscape("https://example.com/") + "&secretKey=wrong",
			secretKey: "right",
			wantCode:  http.StatusUnauthorized,
			wantBody:  "Invalid secret key",
		},
		"no secret key provided": {
			query:     "?url=" + url.QueryEscape("https://example.com/"),
			secretKey: "right",
			wantCode:  http.StatusUnauthorized,
			wantBody:  "Invalid secret key",
		},
		"correct secret key": {
			query:     "?url=" + url.QueryEscape("https://example.com/") + "&secretKey=right",
			secretKey: "right",
			stub:      stubSummarizer{result: okSummary},
			wantCode:  http.StatusOK,
		},
		"undecodable url": {
			query:    "?url=" + url.QueryEscape("%zz"),
			wantCode: http.StatusBadRequest,
			wantBody: "URL Decode failed",
		},
		"unsupported scheme": {
			query:    "?url=" + url.QueryEscape("ftp://example.com/"),
			wantCode: http.StatusBadRequest,
			wantBody: "Only http and https are supported",
		},
		"scheme-less": {
			query:    "?url=" + url.QueryEscape("example.com/page"),
			wantCode: http.StatusBadRequest,
			wantBody: "Only http and https are supported",
		},
		"summarize failure": {
			query:    "?url=" + url.QueryEscape("https://example.com/"),
			stub:     stubSummarizer{err: errors.New("boom")},
			wantCode: http.StatusInternalServerError,
			wantBody: "Failed to summarize the URL",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			stub := tc.stub
			h := New(&stub, tc.secretKey)

			r := httptest.NewRequest("GET", "/url"+tc.query, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantBody != "" {
				assert.Contains(t, w.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestServeHTTPSuccessHeaders(t *testing.T) {
	stub := &stubSummarizer{result: &summary.Summary{
		Title:  "Example",
		Player: summary.EmptyPlayer(),
		URL:    "https://example.com/",
	}}
	h := New(stub, "")

	r := httptest.NewRequest("GET", "/url?url="+url.QueryEscape("https://example.com/"), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=604800", w.Header().Get("Cache-Control"))

	var s summary.Summary
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&s))
	assert.Equal(t, "Example", s.Title)
	assert.Equal(t, "https://example.com/", s.URL)
}

func TestServeHTTPDoubleDecodes(t *testing.T) {
	stub := &stubSummarizer{result: &summary.Summary{Title: "t", Player: summary.EmptyPlayer()}}
	h := New(stub, "")

	// double-encoded target, as clients conventionally send it
	target := "https://example.com/search?q=hello world"
	r := httptest.NewRequest("GET", "/url?url="+url.QueryEscape(url.QueryEscape(target)), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https", stub.lastArgs.URL.Scheme)
	assert.Equal(t, "example.com", stub.lastArgs.URL.Hostname())
}

func TestServeHTTPPassesLangAndUserAgent(t *testing.T) {
	stub := &stubSummarizer{result: &summary.Summary{Title: "t", Player: summary.EmptyPlayer()}}
	h := New(stub, "")

	r := httptest.NewRequest("GET", "/url?url="+url.QueryEscape("https://example.com/")+"&lang=ja-JP&userAgent=custom%2F1.0", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ja-JP", stub.lastArgs.Lang)
	assert.Equal(t, "custom/1.0", stub.lastArgs.UserAgent)
}

func TestServeHTTPResponseNullFields(t *testing.T) {
	stub := &stubSummarizer{result: &summary.Summary{
		Title:  "t",
		Player: summary.EmptyPlayer(),
	}}
	h := New(stub, "")

	r := httptest.NewRequest("GET", "/url?url="+url.QueryEscape("https://example.com/"), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	body := w.Body.String()
	assert.Contains(t, body, `"icon":null`)
	assert.Contains(t, body, `"description":null`)
	assert.Contains(t, body, `"player":{"url":null,"width":null,"height":null,"allow":[]}`)
}

func TestIndex(t *testing.T) {
	h := Index()

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "nokogiri v"))

	r = httptest.NewRequest("GET", "/nope", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRobotsTxt(t *testing.T) {
	r := httptest.NewRequest("GET", "/robots.txt", nil)
	w := httptest.NewRecorder()
	RobotsTxt().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User-agent: *\nDisallow: /", w.Body.String())
}
