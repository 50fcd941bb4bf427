package browse

import (
	"net/url"
	"strings"
)

// ExtractItemID pulls the numeric item id out of an eBay listing URL.
// It accepts only URLs whose host contains "ebay.com" and whose path has
// an "/itm/" segment, and returns the first purely numeric path segment
// after "itm" (any trailing "?..." stripped). Every other shape returns
// the empty string; it never fails.
func ExtractItemID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if !strings.Contains(u.Hostname(), "ebay.com") {
		return ""
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if seg != "itm" {
			continue
		}
		for _, candidate := range segments[i+1:] {
			// A literal '?' can survive in the path when the URL was
			// pasted unescaped.
			candidate, _, _ = strings.Cut(candidate, "?")
			if isDigits(candidate) {
				return candidate
			}
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
