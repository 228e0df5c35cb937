package summary

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// SelectAttr walks the matchers in order and returns the given attribute
// of the first matched element that carries it.
func SelectAttr(doc *goquery.Document, attr string, matchers ...goquery.Matcher) (string, bool) {
	for _, m := range matchers {
		if v, ok := doc.FindMatcher(m).First().Attr(attr); ok {
			return v, true
		}
	}
	return "", false
}

// SelectText returns the concatenated text of the first element matched.
func SelectText(doc *goquery.Document, m goquery.Matcher) (string, bool) {
	found := doc.FindMatcher(m).First()
	if found.Length() == 0 {
		return "", false
	}
	return found.Text(), true
}

// ResolveAbsoluteURL resolves ref against base.
func ResolveAbsoluteURL(base *url.URL, ref string) (string, bool) {
	u, err := base.Parse(ref)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// TextClamp truncates s to max user-perceived characters, counted by code
// points, appending "..." only when something was cut.
func TextClamp(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
