// Package pagination parses page/limit query parameters.
package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit inside an int32 OFFSET
	MaxPage = math.MaxInt32 / MaxLimit
)

// Pagination for listing
type Pagination struct {
	Page  int
	Limit int
}

// FromRequest reads ?page and ?limit, falling back to page 1 and DefaultLimit
// on missing or out of range values.
func FromRequest(r *http.Request) Pagination {
	query := r.URL.Query()

	page := 1
	limit := DefaultLimit
	if p := query.Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = min(v, MaxPage)
		}
	}
	if l := query.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= MaxLimit {
			limit = v
		}
	}

	return Pagination{Page: page, Limit: limit}
}

// Offset is the row offset for the page
func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (min(p.Page, MaxPage) - 1) * min(p.Limit, MaxLimit)
}
