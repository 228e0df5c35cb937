package summary

import (
	"context"
	"errors"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/hideki0403/nokogiri/fetch"
)

// ErrNoTitle is returned when a page has no usable title; the whole
// extraction fails in that case.
var ErrNoTitle = errors.New("no title")

const (
	titleLimit       = 100
	descriptionLimit = 300
)

// Extractor is the generic HTML extractor. The client is used for the
// oEmbed sub-fetch and the favicon HEAD probe.
type Extractor struct {
	Client *fetch.Client
}

// Overrides adjusts individual probes for site-specific handlers; the
// zero value is the fully generic extraction.
type Overrides struct {
	Sitename      string // forced sitename
	Icon          string // forced favicon URL
	SkipIconProbe bool   // assume the favicon exists
	NoOEmbed      bool
	NoPlayer      bool  // disables the twitter-card/OG fallback player
	NoSensitive   bool  // forces sensitive to null
	NoFediverse   bool  // suppresses the activity_pub/fediverse_creator probes
	LargeCard     *bool // forces the large-card flag
	// Sensitive replaces the meta-tag sensitivity probe.
	Sensitive func(doc *goquery.Document) *bool
}

// Summarize runs the generic extraction over an HTML body.
func (e *Extractor) Summarize(ctx context.Context, u *url.URL, body string, opts fetch.Options) (*Summary, error) {
	return e.SummarizeWith(ctx, u, body, opts, Overrides{})
}

// SummarizeWith runs the extraction with site-specific overrides applied.
func (e *Extractor) SummarizeWith(ctx context.Context, u *url.URL, body string, opts fetch.Options, ov Overrides) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	rawTitle, ok := extractTitle(doc)
	if !ok {
		return nil, ErrNoTitle
	}
	title := TextClamp(html.UnescapeString(rawTitle), titleLimit)

	largeCard := isSummaryLargeImage(doc)
	if ov.LargeCard != nil {
		largeCard = *ov.LargeCard
	}

	var thumbnail *string
	if img, ok := extractThumbnail(doc); ok {
		if abs, ok := ResolveAbsoluteURL(u, img); ok {
			thumbnail = &abs
		}
	}

	favicon := ov.Icon
	if favicon == "" {
		favicon = extractFavicon(u, doc)
	}
	oembedHref := ""
	if !ov.NoOEmbed {
		oembedHref, _ = SelectAttr(doc, "href", selOEmbed...)
	}

	// The oEmbed sub-fetch and the favicon probe are independent network
	// round trips; run them concurrently and join before assembly.
	var (
		player  *Player
		iconOK  bool
		g, gctx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		if oembedHref != "" {
			player = e.resolveOEmbed(gctx, u, oembedHref, opts)
		}
		return nil
	})
	g.Go(func() error {
		switch {
		case favicon == "":
			iconOK = false
		case ov.SkipIconProbe:
			iconOK = true
		default:
			_, err := e.Client.Head(gctx, favicon)
			iconOK = err == nil
		}
		return nil
	})
	_ = g.Wait()

	if player == nil && !ov.NoPlayer {
		player = fallbackPlayer(u, doc, largeCard)
	}
	if player == nil {
		p := EmptyPlayer()
		player = &p
	}

	var description *string
	if d, ok := SelectAttr(doc, "content", selDescription...); ok {
		clamped := TextClamp(html.UnescapeString(d), descriptionLimit)
		description = &clamped
	}

	var sitename *string
	switch {
	case ov.Sitename != "":
		sitename = &ov.Sitename
	default:
		if name, ok := SelectAttr(doc, "content", selSitename...); ok {
			decoded := html.UnescapeString(name)
			sitename = &decoded
		} else if u.Hostname() != "" {
			sitename = String(u.Hostname())
		}
	}

	var sensitive *bool
	switch {
	case ov.NoSensitive:
	case ov.Sensitive != nil:
		sensitive = ov.Sensitive(doc)
	default:
		sensitive = extractSensitive(doc)
	}

	var icon *string
	if iconOK {
		icon = &favicon
	}

	var activityPub, fediverseCreator *string
	if !ov.NoFediverse {
		if ap, ok := SelectAttr(doc, "href", selActivityPub...); ok {
			activityPub = &ap
		}
		if fc, ok := SelectAttr(doc, "content", selFediverseCreator...); ok {
			fediverseCreator = &fc
		}
	}

	return &Summary{
		Title:            title,
		Icon:             icon,
		Description:      description,
		Thumbnail:        thumbnail,
		Sitename:         sitename,
		Player:           *player,
		Sensitive:        sensitive,
		ActivityPub:      activityPub,
		FediverseCreator: fediverseCreator,
		LargeCard:        Bool(largeCard),
	}, nil
}

func extractTitle(doc *goquery.Document) (string, bool) {
	if t, ok := SelectAttr(doc, "content", selMetaTitle...); ok {
		return t, true
	}
	return SelectText(doc, selTitleTag)
}

func extractThumbnail(doc *goquery.Document) (string, bool) {
	if img, ok := SelectAttr(doc, "content", selMetaThumbnail...); ok {
		return img, true
	}
	return SelectAttr(doc, "href", selLinkThumbnail...)
}

// extractFavicon returns the absolute favicon URL, falling back to
// /favicon.ico when the page declares none.
func extractFavicon(u *url.URL, doc *goquery.Document) string {
	href, ok := SelectAttr(doc, "href", selFavicon...)
	if !ok {
		href = "/favicon.ico"
	}
	abs, ok := ResolveAbsoluteURL(u, href)
	if !ok {
		return ""
	}
	return abs
}

func extractSensitive(doc *goquery.Document) *bool {
	if s, ok := SelectAttr(doc, "content", selMixiRating...); ok {
		return Bool(s == "true" || s == "1")
	}
	if s, ok := SelectAttr(doc, "content", selRating...); ok {
		upper := strings.ToUpper(s)
		return Bool(upper == "ADULT" || upper == "RTA-5042-1996-1400-1577-RTA")
	}
	return nil
}

func isSummaryLargeImage(doc *goquery.Document) bool {
	card, ok := SelectAttr(doc, "content", selCard...)
	return ok && card == "summary_large_image"
}
