package summary

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

func sel(s string) goquery.Matcher { return cascadia.MustCompile(s) }

// The selector catalog, compiled once, keyed by semantic role. Order
// within each slice is the fallback order.
var (
	selCard = []goquery.Matcher{
		sel(`meta[name="twitter:card"]`),
		sel(`meta[property="twitter:card"]`),
	}

	selMetaTitle = []goquery.Matcher{
		sel(`meta[property="og:title"]`),
		sel(`meta[name="twitter:title"]`),
		sel(`meta[property="twitter:title"]`),
	}
	selTitleTag = sel("title")

	selMetaThumbnail = []goquery.Matcher{
		sel(`meta[property="og:image"]`),
		sel(`meta[name="twitter:image"]`),
		sel(`meta[property="twitter:image"]`),
	}
	selLinkThumbnail = []goquery.Matcher{
		sel(`link[rel="image_src"]`),
		sel(`link[rel="apple-touch-icon"]`),
	}

	selTwitterPlayer = []goquery.Matcher{
		sel(`meta[name="twitter:player"]`),
		sel(`meta[property="twitter:player"]`),
	}
	selOGVideo = []goquery.Matcher{
		sel(`meta[property="og:video"]`),
		sel(`meta[property="og:video:secure_url"]`),
		sel(`meta[property="og:video:url"]`),
	}
	selPlayerWidth = []goquery.Matcher{
		sel(`meta[name="twitter:player:width"]`),
		sel(`meta[property="twitter:player:width"]`),
		sel(`meta[property="og:video:width"]`),
	}
	selPlayerHeight = []goquery.Matcher{
		sel(`meta[name="twitter:player:height"]`),
		sel(`meta[property="twitter:player:height"]`),
		sel(`meta[property="og:video:height"]`),
	}

	selDescription = []goquery.Matcher{
		sel(`meta[property="og:description"]`),
		sel(`meta[name="twitter:description"]`),
		sel(`meta[property="twitter:description"]`),
		sel(`meta[name="description"]`),
	}

	selSitename = []goquery.Matcher{
		sel(`meta[property="og:site_name"]`),
		sel(`meta[name="application-name"]`),
	}

	selFavicon = []goquery.Matcher{
		sel(`link[rel="icon"]`),
		sel(`link[rel="shortcut icon"]`),
	}

	selActivityPub = []goquery.Matcher{
		sel(`link[rel="alternate"][type="application/activity+json"]`),
	}

	selFediverseCreator = []goquery.Matcher{
		sel(`meta[name="fediverse:creator"]`),
	}

	selMixiRating = []goquery.Matcher{
		sel(`meta[property="mixi:content_rating"]`),
	}
	selRating = []goquery.Matcher{
		sel(`meta[name="rating"]`),
	}

	selOEmbed = []goquery.Matcher{
		sel(`link[type="application/json+oembed"]`),
	}

	selIframe = sel("iframe")
)
