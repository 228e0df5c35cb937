package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hideki0403/nokogiri/cache"
)

func newRobotsCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return cache.New(rdb, "", zerolog.Nop()), srv
}

func TestRobotsAllowed(t *testing.T) {
	disallowBot := "User-agent: SummalyBot\nDisallow: /private\n"

	testCases := map[string]struct {
		handler    http.HandlerFunc
		path       string
		want       bool
		wantCached bool
	}{
		"no rules allows": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("User-agent: *\nAllow: /\n"))
			},
			path:       "/page",
			want:       true,
			wantCached: true,
		},
		"agent rule disallows matching path": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte(disallowBot))
			},
			path:       "/private/page",
			want:       false,
			wantCached: true,
		},
		"agent rule allows other paths": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte(disallowBot))
			},
			path:       "/public",
			want:       true,
			wantCached: true,
		},
		"404 allows and caches empty": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			path:       "/page",
			want:       true,
			wantCached: true,
		},
		"non-plaintext body allows and caches empty": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>robots</html>"))
			},
			path:       "/page",
			want:       true,
			wantCached: true,
		},
		"500 disallows without caching": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			path:       "/page",
			want:       false,
			wantCached: false,
		},
		"429 disallows without caching": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			path:       "/page",
			want:       false,
			wantCached: false,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c, redisSrv := newRobotsCache(t)
			robots := NewRobots(newTestClient(ClientConfig{}), c, zerolog.Nop())

			u, err := url.Parse(srv.URL + tc.path)
			assert.NoError(t, err)

			assert.Equal(t, tc.want, robots.Allowed(context.Background(), u))

			if tc.wantCached {
				assert.Equal(t, 1, len(redisSrv.Keys()))
			} else {
				assert.Equal(t, 0, len(redisSrv.Keys()))
			}
		})
	}
}

func TestRobotsCacheHit(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("User-agent: SummalyBot\nDisallow: /private\n"))
	}))
	defer srv.Close()

	c, _ := newRobotsCache(t)
	robots := NewRobots(newTestClient(ClientConfig{}), c, zerolog.Nop())

	u, _ := url.Parse(srv.URL + "/private/x")
	assert.False(t, robots.Allowed(context.Background(), u))
	assert.False(t, robots.Allowed(context.Background(), u))
	assert.Equal(t, 1, fetches)
}

func TestRobotsTransportFailure(t *testing.T) {
	// a closed server is unreachable; scraping stays allowed
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u, _ := url.Parse(srv.URL + "/page")
	srv.Close()

	c, redisSrv := newRobotsCache(t)
	client := newTestClient(ClientConfig{OperationTimeout: time.Second})
	robots := NewRobots(client, c, zerolog.Nop())

	assert.True(t, robots.Allowed(context.Background(), u))
	assert.Equal(t, 1, len(redisSrv.Keys()))
}

func TestRobotsNilCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("User-agent: *\nDisallow: /\n"))
	}))
	defer srv.Close()

	robots := NewRobots(newTestClient(ClientConfig{}), nil, zerolog.Nop())

	u, _ := url.Parse(srv.URL + "/page")
	assert.False(t, robots.Allowed(context.Background(), u))
}
