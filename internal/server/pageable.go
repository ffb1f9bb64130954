package server

import (
	"strconv"
	"strings"

	"userdata/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PageableDefaults are the pagination values applied when a request omits
// or exceeds them.
type PageableDefaults struct {
	Page    int
	Size    int
	MaxSize int
}

// DefaultPageable mirrors the paging defaults of the internal API.
var DefaultPageable = PageableDefaults{Page: 0, Size: 10, MaxSize: 2000}

// parsePageable reads page, size and sort query parameters. Malformed
// numbers, including ones outside the int32 range, fall back to the
// defaults rather than failing the request.
func parsePageable(c *fiber.Ctx, d PageableDefaults) models.PageRequest {
	req := models.PageRequest{Page: d.Page, Size: d.Size}

	if n, ok := queryInt32(c, "page"); ok {
		req.Page = n
	}
	if req.Page < 0 {
		req.Page = 0
	}

	if n, ok := queryInt32(c, "size"); ok {
		req.Size = n
	}
	if req.Size < 1 {
		req.Size = d.Size
	}
	if d.MaxSize > 0 && req.Size > d.MaxSize {
		req.Size = d.MaxSize
	}

	for _, raw := range c.Context().QueryArgs().PeekMulti("sort") {
		req.Sort = append(req.Sort, parseSort(string(raw))...)
	}
	return req
}

// queryInt32 keeps page*size within int64 for any accepted page.
func queryInt32(c *fiber.Ctx, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// parseSort parses one "prop[,prop...][,dir]" entry. The direction applies
// to every property in the entry.
func parseSort(raw string) []models.SortOrder {
	parts := strings.Split(raw, ",")
	dir := models.Asc
	if n := len(parts); n > 1 {
		if d, ok := models.ParseDirection(parts[n-1]); ok {
			dir = d
			parts = parts[:n-1]
		}
	}

	var orders []models.SortOrder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		orders = append(orders, models.SortOrder{Property: p, Direction: dir})
	}
	return orders
}
