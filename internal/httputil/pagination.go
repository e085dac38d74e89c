package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLimit is the page size when ?limit is absent.
	DefaultLimit = 50
	// MaxLimit caps ?limit on every admin listing.
	MaxLimit = 100
)

// ParsePagination reads ?offset (>= 0, default 0) and ?limit (1..MaxLimit, default
// DefaultLimit) from the request.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = queryInt(c, "offset", 0, 0, -1)
	if err != nil {
		return 0, 0, err
	}
	limit, err = queryInt(c, "limit", DefaultLimit, 1, MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

// queryInt parses an integer query parameter within [lower, upper]; upper < 0 means
// unbounded.
func queryInt(c *gin.Context, key string, fallback, lower, upper int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	switch {
	case err != nil, value < lower:
		return 0, rangeError(key, lower, upper)
	case upper >= 0 && value > upper:
		return 0, rangeError(key, lower, upper)
	}
	return value, nil
}

func rangeError(key string, lower, upper int) error {
	if upper < 0 {
		return fmt.Errorf("invalid %s parameter: must be an integer >= %d", key, lower)
	}
	return fmt.Errorf("invalid %s parameter: must be between %d and %d", key, lower, upper)
}
