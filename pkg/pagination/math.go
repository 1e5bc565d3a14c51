package pagination

// CanPrevious reports whether moving to the previous page is valid.
func CanPrevious(page int) bool {
	return page > 1
}

// CanNext reports whether moving to the next page is valid.
func CanNext(page, totalPages int) bool {
	return totalPages > 0 && page < totalPages
}

// TotalPages returns the number of pages needed for totalItems, 0 when empty.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Bounds returns the half-open slice bounds [start, end) of page within a
// collection of total items. Pages past the end yield an empty range.
func Bounds(page, pageSize, total int) (start, end int) {
	if page < 1 || pageSize <= 0 {
		return 0, 0
	}
	start = (page - 1) * pageSize
	if start > total {
		return total, total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
