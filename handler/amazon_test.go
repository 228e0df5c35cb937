package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hideki0403/nokogiri/summary"
)

func TestAmazonSummarize(t *testing.T) {
	testCases := map[string]struct {
		body          string
		wantSensitive bool
	}{
		"plain product": {
			body:          `<title>A Product</title>`,
			wantSensitive: false,
		},
		"adult-gated product": {
			body:          `<title>A Product</title><div id="adultWarning">18+</div>`,
			wantSensitive: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Twitterbot/1.0", r.Header.Get("User-Agent"))
				w.Write([]byte(tc.body + `
					<link rel="alternate" type="application/activity+json" href="https://social.example/notes/1">
					<meta name="fediverse:creator" content="@user@social.example">
				`))
			}))
			defer srv.Close()

			h := &Amazon{client: newHandlerClient(), extractor: &summary.Extractor{Client: newHandlerClient()}}

			res, err := h.Summarize(context.Background(), &Arguments{
				URL: mustParse(t, srv.URL+"/dp/B000000000"),
			})
			assert.NoError(t, err)

			s := res.Summary
			assert.Equal(t, "A Product", s.Title)
			assert.Equal(t, "Amazon", *s.Sitename)
			assert.Equal(t, "https://www.amazon.com/favicon.ico", *s.Icon)
			assert.True(t, *s.LargeCard)
			assert.Equal(t, tc.wantSensitive, *s.Sensitive)

			// fediverse metadata is suppressed on product pages
			assert.Nil(t, s.ActivityPub)
			assert.Nil(t, s.FediverseCreator)

			assert.Equal(t, int64(3600), res.CacheTTL)
		})
	}
}
