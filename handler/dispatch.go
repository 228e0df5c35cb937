package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/hideki0403/nokogiri/cache"
	"github.com/hideki0403/nokogiri/summary"
)

// ErrNoSummary is returned when no handler produced a summary.
var ErrNoSummary = errors.New("no summary produced")

// Dispatcher walks the active handlers in order, coordinating the cache.
type Dispatcher struct {
	handlers []Handler
	cache    *cache.Cache
	log      zerolog.Logger
}

func NewDispatcher(handlers []Handler, c *cache.Cache, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{handlers: handlers, cache: c, log: log}
}

// normalizeLang validates a language tag. Well-formed tags with unknown
// subtags (language.ValueError) are accepted as-is; the dialectal ja-KS is
// rewritten to ja-JP after validation.
func normalizeLang(lang string) (string, error) {
	if lang == "" {
		return "", nil
	}
	if _, err := language.Parse(lang); err != nil {
		var verr language.ValueError
		if !errors.As(err, &verr) {
			return "", err
		}
	}
	if lang == "ja-KS" {
		lang = "ja-JP"
	}
	return lang, nil
}

// Summarize resolves a summary for the request, consulting and updating
// the cache. A nil summary with a nil error never occurs; failures of any
// kind surface as an error.
func (d *Dispatcher) Summarize(ctx context.Context, args *Arguments) (*summary.Summary, error) {
	lang, err := normalizeLang(args.Lang)
	if err != nil {
		d.log.Error().Str("lang", args.Lang).Msg("invalid language code")
		return nil, fmt.Errorf("invalid language code %q: %w", args.Lang, err)
	}
	args.Lang = lang

	rawURL := args.URL.String()
	if cached, ok := d.cache.GetSummarize(ctx, rawURL, lang); ok {
		d.log.Debug().Str("url", rawURL).Msg("summary cache hit")
		if cached == cache.NullValue {
			return nil, ErrNoSummary
		}
		var s summary.Summary
		if err := json.Unmarshal([]byte(cached), &s); err != nil {
			return nil, fmt.Errorf("decoding cached summary: %w", err)
		}
		return &s, nil
	}

	for _, h := range d.handlers {
		if !h.Test(args.URL) {
			continue
		}
		d.log.Debug().Str("handler", h.ID()).Str("url", rawURL).Msg("using handler")

		res, err := h.Summarize(ctx, args)
		if err != nil || res == nil || res.Summary == nil {
			if err != nil {
				d.log.Debug().Err(err).Str("handler", h.ID()).Str("url", rawURL).Msg("handler produced no summary")
			}
			d.cache.SetSummarize(ctx, rawURL, lang, cache.NullValue, cache.NegativeTTL)
			if err == nil {
				err = ErrNoSummary
			}
			return nil, err
		}

		s := res.Summary
		if s.URL == "" {
			s.URL = rawURL
		}
		if data, err := json.Marshal(s); err == nil {
			d.cache.SetSummarize(ctx, rawURL, lang, string(data), time.Duration(res.CacheTTL)*time.Second)
		}
		return s, nil
	}
	return nil, ErrNoSummary
}
