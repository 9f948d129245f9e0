// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// reSupportedMedia matches http(s) links on the supported video hosts.
var reSupportedMedia = regexp.MustCompile(
	`^https?://(www\.)?(youtube\.com|youtu\.be|tiktok\.com|instagram\.com)/.+$`)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// IsSupportedMediaURL reports whether the URL points at one of the supported
// video hosts over http or https.
func IsSupportedMediaURL(raw string) bool {
	return reSupportedMedia.MatchString(raw)
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}
