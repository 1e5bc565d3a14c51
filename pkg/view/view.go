// Package view derives what the list view displays from a controller
// snapshot. It is free of any terminal or styling concerns.
package view

import (
	"strconv"

	"github.com/Sternrassler/item-list-client/pkg/controller"
	"github.com/Sternrassler/item-list-client/pkg/listing"
)

// Fixed texts of the list body.
const (
	LoadingText = "Loading…"
	EmptyText   = "No items found."
)

// BodyKind selects which of the mutually exclusive bodies is shown.
type BodyKind int

const (
	BodyLoading BodyKind = iota
	BodyError
	BodyEmpty
	BodyItems
)

// Row is one rendered item.
type Row struct {
	ID          listing.ItemID
	Title       string
	Description string
}

// Screen is the presentation model of the list view.
type Screen struct {
	Search   string
	PageSize listing.PageSize
	// PageSizes are the selector choices.
	PageSizes []listing.PageSize

	Body    BodyKind
	Message string
	Rows    []Row

	Summary     string
	CanPrevious bool
	CanNext     bool
}

// Render builds the screen for s. Loading takes precedence over an error,
// and an error over the item list.
func Render(s controller.State) Screen {
	screen := Screen{
		Search:      s.Search,
		PageSize:    s.PageSize,
		PageSizes:   listing.PageSizes(),
		Summary:     s.Summary(),
		CanPrevious: s.CanPrevious(),
		CanNext:     s.CanNext(),
	}

	switch {
	case s.Loading():
		screen.Body = BodyLoading
		screen.Message = LoadingText
	case s.Error() != "":
		screen.Body = BodyError
		screen.Message = s.Error()
	case len(s.Items) == 0:
		screen.Body = BodyEmpty
		screen.Message = EmptyText
	default:
		screen.Body = BodyItems
		screen.Rows = make([]Row, 0, len(s.Items))
		for _, it := range s.Items {
			screen.Rows = append(screen.Rows, Row{
				ID:          it.ID,
				Title:       it.Name,
				Description: it.Description,
			})
		}
	}

	return screen
}

// Lines flattens the body into plain text lines: the message, or each row's
// title followed by its description when present.
func (s Screen) Lines() []string {
	if s.Body != BodyItems {
		return []string{s.Message}
	}
	lines := make([]string, 0, len(s.Rows)*2)
	for _, r := range s.Rows {
		lines = append(lines, r.Title)
		if r.Description != "" {
			lines = append(lines, "  "+r.Description)
		}
	}
	return lines
}

// PageSizeLabel renders the page size selector choice.
func PageSizeLabel(size listing.PageSize) string {
	return strconv.Itoa(int(size))
}
