package controller

import (
	"fmt"

	"github.com/Sternrassler/item-list-client/pkg/listing"
	"github.com/Sternrassler/item-list-client/pkg/pagination"
)

// State is an immutable snapshot of the controller.
//
// Items, TotalPages and TotalItems hold the last successful result; they are
// kept while a newer query is loading or after it failed.
type State struct {
	Page       int
	PageSize   listing.PageSize
	Search     string
	Items      []listing.Item
	TotalPages int
	TotalItems int
	Status     listing.FetchStatus
	Query      listing.Query

	// Generation identifies the active fetch cycle.
	Generation uint64
	// Revision increases with every state change.
	Revision uint64
}

// Loading reports whether the active fetch cycle is in flight.
func (s State) Loading() bool {
	return s.Status.Kind == listing.StatusLoading
}

// Error returns the failure message of the active cycle, or "".
func (s State) Error() string {
	if s.Status.Kind == listing.StatusFailure {
		return s.Status.Message
	}
	return ""
}

// CanPrevious reports whether the previous button is enabled.
func (s State) CanPrevious() bool {
	return pagination.CanPrevious(s.Page)
}

// CanNext reports whether the next button is enabled.
func (s State) CanNext() bool {
	return pagination.CanNext(s.Page, s.TotalPages)
}

// DisplayPage is the page number shown in the summary: 0 when there are no pages.
func (s State) DisplayPage() int {
	if s.TotalPages == 0 {
		return 0
	}
	return s.Page
}

// Summary renders the footer line, e.g. "Page 1 of 3 • 25 items".
func (s State) Summary() string {
	return fmt.Sprintf("Page %d of %d • %d items", s.DisplayPage(), s.TotalPages, s.TotalItems)
}
