package shortener

import "strings"

const defaultScheme = "https://"

// HasScheme reports whether rawURL starts with http:// or https://.
func HasScheme(rawURL string) bool {
	return strings.HasPrefix(rawURL, "https://") || strings.HasPrefix(rawURL, "http://")
}

// EnsureScheme prefixes https:// to URLs that carry no protocol.
func EnsureScheme(rawURL string) string {
	if HasScheme(rawURL) {
		return rawURL
	}

	return defaultScheme + rawURL
}
