package summary

import (
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

var defaultPlayerAllow = []string{"autoplay", "encrypted-media", "fullscreen"}

// fallbackPlayer builds a player from twitter-card/OG video metadata. The
// twitter:player selectors only apply when the card is summary_large_image.
func fallbackPlayer(u *url.URL, doc *goquery.Document, largeCard bool) *Player {
	playerURL, ok := "", false
	if largeCard {
		playerURL, ok = SelectAttr(doc, "content", selTwitterPlayer...)
	}
	if !ok {
		playerURL, ok = SelectAttr(doc, "content", selOGVideo...)
	}
	if !ok {
		return nil
	}

	var width, height *uint32
	if w, ok := SelectAttr(doc, "content", selPlayerWidth...); ok {
		if n, err := strconv.ParseUint(w, 10, 32); err == nil {
			width = Uint32(uint32(n))
		}
	}
	if h, ok := SelectAttr(doc, "content", selPlayerHeight...); ok {
		if n, err := strconv.ParseUint(h, 10, 32); err == nil {
			height = Uint32(uint32(n))
		}
	}

	var abs *string
	if resolved, ok := ResolveAbsoluteURL(u, playerURL); ok {
		abs = &resolved
	}

	return &Player{
		URL:    abs,
		Width:  width,
		Height: height,
		Allow:  append([]string(nil), defaultPlayerAllow...),
	}
}
