// Package version holds build identity shared by the user agent string and
// the service banner.
package version

const (
	Name       = "nokogiri"
	Version    = "1.0.0"
	Repository = "https://github.com/hideki0403/nokogiri"
)
