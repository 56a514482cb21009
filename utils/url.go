package utils

import (
	"net/url"
	"strings"
)

// EncodeURLWithSpaces re-encodes a URL that may contain raw spaces. Some
// indexers hand out signed NZB links with unencoded spaces in the path or
// query, which SABnzbd refuses as-is.
func EncodeURLWithSpaces(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	encoded := parsed.Scheme + "://" + parsed.Host + parsed.EscapedPath()
	if parsed.RawQuery != "" {
		encoded += "?" + strings.ReplaceAll(parsed.RawQuery, " ", "%20")
	}
	return encoded, nil
}
