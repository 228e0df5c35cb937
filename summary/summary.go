// Package summary holds the link-preview data model and the generic
// HTML/OpenGraph/Twitter-card/oEmbed extractor.
package summary

// Player describes an embeddable media player.
type Player struct {
	URL    *string  `json:"url"`
	Width  *uint32  `json:"width"`
	Height *uint32  `json:"height"`
	Allow  []string `json:"allow"`
}

// EmptyPlayer returns the "no player" value. Allow is an empty list, not
// null, to keep the serialized form stable across implementations.
func EmptyPlayer() Player {
	return Player{Allow: []string{}}
}

// Summary is the structured link-preview record returned to clients.
// Optional fields serialize as null when absent.
type Summary struct {
	Title            string  `json:"title"`
	Icon             *string `json:"icon"`
	Description      *string `json:"description"`
	Thumbnail        *string `json:"thumbnail"`
	Sitename         *string `json:"sitename"`
	Player           Player  `json:"player"`
	Sensitive        *bool   `json:"sensitive"`
	ActivityPub      *string `json:"activity_pub"`
	FediverseCreator *string `json:"fediverse_creator"`
	LargeCard        *bool   `json:"large_card"`
	URL              string  `json:"url"`
}

// WithTTL pairs a Summary with the cache TTL its producer wants.
type WithTTL struct {
	Summary  *Summary
	CacheTTL int64 // seconds
}

func String(s string) *string { return &s }
func Bool(b bool) *bool       { return &b }
func Uint32(n uint32) *uint32 { return &n }
