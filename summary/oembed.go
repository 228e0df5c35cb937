package summary

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hideki0403/nokogiri/fetch"
)

const maxPlayerHeight = 1024

type oEmbedData struct {
	Type    string  `json:"type"`
	Version string  `json:"version"`
	HTML    string  `json:"html"`
	Width   *uint32 `json:"width"`
	Height  *uint32 `json:"height"`
}

var oembedAllowedPermissions = []string{
	"autoplay",
	"clipboard-write",
	"fullscreen",
	"encrypted-media",
	"picture-in-picture",
	"web-share",
}

var oembedIgnoredPermissions = []string{
	"accelerometer",
	"gyroscope",
}

// resolveOEmbed discovers a player from an application/json+oembed
// endpoint. Every validation failure yields nil, in which case the caller
// falls back to the twitter-card/OG player.
func (e *Extractor) resolveOEmbed(ctx context.Context, page *url.URL, href string, opts fetch.Options) *Player {
	endpoint, ok := ResolveAbsoluteURL(page, href)
	if !ok {
		return nil
	}

	opts.Accept = "application/json"
	resp, err := e.Client.Get(ctx, endpoint, opts)
	if err != nil {
		return nil
	}
	body, err := resp.Text()
	if err != nil {
		return nil
	}

	var oembed oEmbedData
	if err := json.Unmarshal([]byte(body), &oembed); err != nil {
		return nil
	}

	if oembed.Version != "1.0" || (oembed.Type != "video" && oembed.Type != "rich") {
		return nil
	}

	fragment := strings.TrimSpace(oembed.HTML)
	if !strings.HasPrefix(fragment, "<iframe ") || !strings.HasSuffix(fragment, "</iframe>") {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	iframes := doc.FindMatcher(selIframe)
	if iframes.Length() != 1 {
		return nil
	}
	iframe := iframes.First()

	src, ok := iframe.Attr("src")
	if !ok {
		return nil
	}
	srcURL, err := url.Parse(src)
	if err != nil || srcURL.Scheme != "https" {
		return nil
	}

	width := attrUint32(iframe, "width")
	if width == nil {
		width = oembed.Width
	}
	height := attrUint32(iframe, "height")
	if height == nil {
		height = oembed.Height
	}
	if height == nil {
		return nil
	}
	if *height > maxPlayerHeight {
		height = Uint32(maxPlayerHeight)
	}

	rawAllow, _ := iframe.Attr("allow")
	permissions := []string{}
	for _, token := range strings.Split(rawAllow, ";") {
		token = strings.TrimSpace(token)
		if token == "" || contains(oembedIgnoredPermissions, token) {
			continue
		}
		if !contains(oembedAllowedPermissions, token) {
			return nil
		}
		permissions = append(permissions, token)
	}

	return &Player{
		URL:    String(srcURL.String()),
		Width:  width,
		Height: height,
		Allow:  permissions,
	}
}

func attrUint32(s *goquery.Selection, attr string) *uint32 {
	v, ok := s.Attr(attr)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil
	}
	return Uint32(uint32(n))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
