// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps the ?limit= a client may ask for.
const MaxPageSize = 500

// Page is an offset window over a sorted list.
type Page struct {
	Start int // 1-based index of the first row
	Limit int
}

// Offset is the number of rows to skip, for Mongo Find().SetSkip().
func (p Page) Offset() int64 { return int64(p.Start - 1) }

// LimitPlusOne returns Limit+1 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func (p Page) LimitPlusOne() int64 { return int64(p.Limit + 1) }

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	return parsePositive(query.Get(r, "start"), 1)
}

// Parse reads ?start= and ?limit=. Limit defaults to PageSize and is capped
// at MaxPageSize.
func Parse(r *http.Request) Page {
	limit := parsePositive(query.Get(r, "limit"), PageSize)
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Start: ParseStart(r), Limit: limit}
}

func parsePositive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Result is the paging block of a list response.
type Result struct {
	Start     int  `json:"start"`
	End       int  `json:"end"`
	HasNext   bool `json:"has_next"`
	NextStart int  `json:"next_start,omitempty"`
}

// Trim cuts a look-ahead fetch of LimitPlusOne rows down to the page and
// reports the range shown.
func Trim[T any](rows *[]T, p Page) Result {
	res := Result{}
	if len(*rows) > p.Limit {
		*rows = (*rows)[:p.Limit]
		res.HasNext = true
	}
	shown := len(*rows)
	if shown == 0 {
		return res
	}
	res.Start = p.Start
	res.End = p.Start + shown - 1
	if res.HasNext {
		res.NextStart = res.End + 1
	}
	return res
}
