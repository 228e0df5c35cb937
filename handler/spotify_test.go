package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hideki0403/nokogiri/summary"
)

func TestSpotifySummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Twitterbot/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`
			<title>Some Track</title>
			<meta property="og:site_name" content="ignored">
			<meta property="og:video" content="https://open.spotify.example/embed/track">
			<meta name="twitter:card" content="summary_large_image">
			<meta property="mixi:content_rating" content="1">
			<link rel="alternate" type="application/activity+json" href="https://social.example/notes/1">
			<meta name="fediverse:creator" content="@user@social.example">
		`))
	}))
	defer srv.Close()

	h := &Spotify{client: newHandlerClient(), extractor: &summary.Extractor{Client: newHandlerClient()}}

	res, err := h.Summarize(context.Background(), &Arguments{
		URL: mustParse(t, srv.URL+"/track/abc"),
	})
	assert.NoError(t, err)

	s := res.Summary
	assert.Equal(t, "Some Track", s.Title)
	assert.Equal(t, "Spotify", *s.Sitename)
	assert.False(t, *s.LargeCard)

	// non-embeddable og:video, rating and fediverse metadata are all
	// suppressed
	assert.Nil(t, s.Player.URL)
	assert.Nil(t, s.Sensitive)
	assert.Nil(t, s.ActivityPub)
	assert.Nil(t, s.FediverseCreator)

	assert.Equal(t, int64(86400), res.CacheTTL)
}
