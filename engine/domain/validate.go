package domain

import "strconv"

const (
	// DefaultLimit is applied when the request omits limit.
	DefaultLimit = 10
	// MaxLimit bounds a single page.
	MaxLimit = 50
	// MaxQueryLen bounds raw query text. Longer input is rejected rather
	// than truncated so the cache key always reflects the full query.
	MaxQueryLen = 2048
)

// ValidateSearchRequest checks a request and applies defaults in place.
// An empty query is valid; the downstream search simply finds nothing.
func ValidateSearchRequest(req *SearchRequest) error {
	if len(req.Query) > MaxQueryLen {
		return NewValidationError("query", req.Query[:32]+"...", ErrQueryTooLong)
	}
	if req.Limit < 0 {
		return NewValidationError("limit", strconv.Itoa(req.Limit), ErrNegativeLimit)
	}
	if req.Limit > MaxLimit {
		return NewValidationError("limit", strconv.Itoa(req.Limit), ErrLimitTooLarge)
	}
	if req.Offset < 0 {
		return NewValidationError("offset", strconv.Itoa(req.Offset), ErrNegativeOffset)
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	return nil
}
