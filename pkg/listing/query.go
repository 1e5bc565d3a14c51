package listing

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names understood by the collection service.
const (
	ParamPage     = "page"
	ParamPageSize = "page_size"
	ParamSearch   = "search"
)

// ErrInvalidPageSize is returned for page sizes outside the fixed choices.
var ErrInvalidPageSize = errors.New("invalid page size")

// PageSize is the number of items requested per page.
type PageSize int

// DefaultPageSize is the page size a fresh list view starts with.
const DefaultPageSize PageSize = 10

var pageSizes = []PageSize{5, 10, 20, 50, 100}

// PageSizes returns the selectable page sizes in ascending order.
func PageSizes() []PageSize {
	out := make([]PageSize, len(pageSizes))
	copy(out, pageSizes)
	return out
}

// ParsePageSize validates n against the fixed page size choices.
func ParsePageSize(n int) (PageSize, error) {
	for _, s := range pageSizes {
		if int(s) == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %d (allowed: 5, 10, 20, 50, 100)", ErrInvalidPageSize, n)
}

// Valid reports whether s is one of the selectable page sizes.
func (s PageSize) Valid() bool {
	_, err := ParsePageSize(int(s))
	return err == nil
}

// Next returns the page size following s, wrapping around after the largest.
func (s PageSize) Next() PageSize {
	for i, candidate := range pageSizes {
		if candidate == s {
			return pageSizes[(i+1)%len(pageSizes)]
		}
	}
	return DefaultPageSize
}

// Query is the canonical (page, page size, search) tuple that determines a
// single fetch request.
type Query struct {
	Page     int
	PageSize PageSize
	Search   string
}

// NewQuery builds a Query, trimming the search text and clamping page to 1.
func NewQuery(page int, pageSize PageSize, search string) Query {
	if page < 1 {
		page = 1
	}
	return Query{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(search),
	}
}

// HasSearch reports whether the query carries a search term.
func (q Query) HasSearch() bool {
	return q.Search != ""
}

// Values serializes the query into request parameters.
// The search parameter is present only when the search text is non-empty.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(q.Page))
	v.Set(ParamPageSize, strconv.Itoa(int(q.PageSize)))
	if search := strings.TrimSpace(q.Search); search != "" {
		v.Set(ParamSearch, search)
	}
	return v
}

// Encode returns the URL-encoded query string, e.g. "page=1&page_size=10".
func (q Query) Encode() string {
	return q.Values().Encode()
}

// String implements fmt.Stringer.
func (q Query) String() string {
	return q.Encode()
}
