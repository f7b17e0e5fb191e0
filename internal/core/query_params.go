// internal/core/query_params.go
package core

import (
	"net/url"
	"strconv"
)

// Limits for the recent queries listing
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 1000
)

// ParseRecentLimit reads the "limit" query parameter. Missing, malformed and
// non-positive values fall back to DefaultRecentLimit; large values are capped
// at MaxRecentLimit.
func ParseRecentLimit(queryParams url.Values) int {
	limitStr := queryParams.Get("limit")
	if limitStr == "" {
		return DefaultRecentLimit
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
