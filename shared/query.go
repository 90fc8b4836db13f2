package shared

import (
	"net/url"
	"strconv"
	"strings"
)

// StripKeyQuery removes any client-supplied key parameter from a query
// string before it is forwarded upstream.
func StripKeyQuery(rawQuery string) string {
	raw := strings.TrimPrefix(strings.TrimSpace(rawQuery), "?")
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		// Best effort: drop key=... pairs textually.
		var kept []string
		for _, pair := range strings.Split(raw, "&") {
			if strings.HasPrefix(strings.ToLower(pair), "key=") {
				continue
			}
			if pair != "" {
				kept = append(kept, pair)
			}
		}
		return strings.Join(kept, "&")
	}
	values.Del("key")
	return values.Encode()
}

// ParseIntText parses an upstream plain-text integer response.
func ParseIntText(text string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
