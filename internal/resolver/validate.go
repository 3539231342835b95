package resolver

import (
	"net/url"
	"strings"
)

// ValidPDFURL reports whether candidate is an absolute http(s) URL whose
// path ends in ".pdf" (case-insensitive). Anything else, including the
// analyzer's "NA" not-found sentinel, counts as no result.
func ValidPDFURL(candidate string) bool {
	u, err := url.Parse(strings.TrimSpace(candidate))
	if err != nil || !u.IsAbs() {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
