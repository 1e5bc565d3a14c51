// Package listing defines the data model shared by the item list client and the
// collection service: items, result pages, page sizes and the canonical Query.
//
// A Query is derived from the list view's editable state and is the unit of
// staleness detection. Two queries are equal exactly when they would produce
// the same request, so Query is a comparable value type:
//
//	q := listing.NewQuery(1, listing.DefaultPageSize, "  widget ")
//	q.Encode() // "page=1&page_size=10&search=widget"
//
// An empty (or whitespace-only) search omits the search parameter entirely.
package listing
