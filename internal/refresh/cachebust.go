package refresh

import (
	"strconv"
	"strings"
)

// freshnessParam is the query parameter carrying the image version token.
const freshnessParam = "time"

// BustCache drops any query string from src and appends the token.
func BustCache(src string, token int64) string {
	base, _, _ := strings.Cut(src, "?")
	return base + "?" + freshnessParam + "=" + strconv.FormatInt(token, 10)
}

// ImageBase returns src without its query string.
func ImageBase(src string) string {
	base, _, _ := strings.Cut(src, "?")
	return base
}
