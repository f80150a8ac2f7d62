package domain

import (
	"net/url"
	"strings"
)

// IsAbsoluteURL reports whether raw is a well-formed http(s) URL with a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ResolveLink prefers the primary link and falls back to the alternate
// identifier only when the alternate is itself an absolute URL.
func ResolveLink(primary, alternate string) (string, bool) {
	if primary = strings.TrimSpace(primary); IsAbsoluteURL(primary) {
		return primary, true
	}
	if alternate = strings.TrimSpace(alternate); IsAbsoluteURL(alternate) {
		return alternate, true
	}
	return "", false
}
