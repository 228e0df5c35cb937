package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkebWork(t *testing.T) {
	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/alice/works/123", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{
			"creator": {"name": "Alice"},
			"body": "A long commissioned illustration description",
			"og_image_url": "https://cdn.skeb.example/work.png",
			"nsfw": true
		}`))
	}))
	defer srv.Close()

	h := &Skeb{client: newHandlerClient(), base: srv.URL}

	res, err := h.Summarize(context.Background(), &Arguments{
		URL: mustParse(t, "https://skeb.jp/@alice/works/123"),
	})
	assert.NoError(t, err)

	assert.Equal(t, "Bearer null", gotAuth)
	assert.Contains(t, gotUA, "Chrome/")

	s := res.Summary
	assert.Equal(t, "A long commi... by Alice | Skeb", s.Title)
	assert.Equal(t, "A long commissioned illustration description", *s.Description)
	assert.Equal(t, "https://cdn.skeb.example/work.png", *s.Thumbnail)
	assert.Equal(t, "Skeb", *s.Sitename)
	assert.True(t, *s.Sensitive)
	assert.True(t, *s.LargeCard)
	assert.Equal(t, int64(3600), res.CacheTTL)
}

func TestSkebWorkWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"creator": {"name": "Alice"}, "nsfw": false}`))
	}))
	defer srv.Close()

	h := &Skeb{client: newHandlerClient(), base: srv.URL}

	res, err := h.Summarize(context.Background(), &Arguments{
		URL: mustParse(t, "https://skeb.jp/@alice/works/123"),
	})
	assert.NoError(t, err)
	assert.Equal(t, "Untitled by Alice | Skeb", res.Summary.Title)
	assert.Nil(t, res.Summary.Description)
	assert.False(t, *res.Summary.Sensitive)
}

func TestSkebUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/alice", r.URL.Path)
		w.Write([]byte(`{
			"name": "Alice",
			"screen_name": "alice",
			"description": "commissions open",
			"og_image_url": "https://cdn.skeb.example/user.png"
		}`))
	}))
	defer srv.Close()

	h := &Skeb{client: newHandlerClient(), base: srv.URL}

	res, err := h.Summarize(context.Background(), &Arguments{
		URL: mustParse(t, "https://skeb.jp/@alice"),
	})
	assert.NoError(t, err)

	s := res.Summary
	assert.Equal(t, "Alice (@alice) | Skeb", s.Title)
	assert.Equal(t, "commissions open", *s.Description)
	assert.Equal(t, "https://cdn.skeb.example/user.png", *s.Thumbnail)
	assert.Nil(t, s.Sensitive)
}

func TestSkebCookieChallenge(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if cookie, err := r.Cookie("request_key"); err == nil {
			assert.Equal(t, "abc123", cookie.Value)
			w.Write([]byte(`{"name": "Alice", "screen_name": "alice"}`))
			return
		}
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`<script>document.cookie = "request_key=abc123; path=/";</script>`))
	}))
	defer srv.Close()

	h := &Skeb{client: newHandlerClient(), base: srv.URL}

	res, err := h.Summarize(context.Background(), &Arguments{
		URL: mustParse(t, "https://skeb.jp/@alice"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Equal(t, "Alice (@alice) | Skeb", res.Summary.Title)
}

func TestSkebCookieChallengeWithoutCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited for real`)) // no cookie script
	}))
	defer srv.Close()

	h := &Skeb{client: newHandlerClient(), base: srv.URL}

	_, err := h.Summarize(context.Background(), &Arguments{
		URL: mustParse(t, "https://skeb.jp/@alice"),
	})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "cookie"))
}

func TestSkebLongBodyCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"creator": {"name": "Alice"}, "body": "line one\nline two", "nsfw": false}`))
	}))
	defer srv.Close()

	h := &Skeb{client: newHandlerClient(), base: srv.URL}

	res, err := h.Summarize(context.Background(), &Arguments{
		URL: mustParse(t, "https://skeb.jp/@alice/works/9"),
	})
	assert.NoError(t, err)

	// newlines are stripped from the caption but kept in the description
	assert.Equal(t, "line oneline... by Alice | Skeb", res.Summary.Title)
	assert.Equal(t, "line one\nline two", *res.Summary.Description)
}
