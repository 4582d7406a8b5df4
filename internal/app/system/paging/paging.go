// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size used when the client does not supply one.
const DefaultLimit = 10

// Params is an offset-based page request. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Parse extracts "page" and "limit" query parameters, falling back to
// page 1 and DefaultLimit when absent or invalid.
func Parse(r *http.Request) Params {
	return Params{
		Page:  parsePositive(query.Get(r, "page"), 1),
		Limit: parsePositive(query.Get(r, "limit"), DefaultLimit),
	}
}

func parsePositive(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Skip returns the number of documents to skip for this page.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Meta is the pagination block attached to list responses. TotalPages is
// ceil(total/limit); HasNextPage is true iff page*limit < total.
type Meta struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalPolicies int64 `json:"totalPolicies"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

// NewMeta computes pagination metadata from a page request and the total
// count of the same filter.
func NewMeta(p Params, total int64) Meta {
	totalPages := int(total / int64(p.Limit))
	if total%int64(p.Limit) != 0 {
		totalPages++
	}
	return Meta{
		CurrentPage:   p.Page,
		TotalPages:    totalPages,
		TotalPolicies: total,
		HasNextPage:   int64(p.Page)*int64(p.Limit) < total,
		HasPrevPage:   p.Page > 1,
	}
}
