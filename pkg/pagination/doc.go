// Package pagination holds the page arithmetic shared by the list controller
// and the collection service, plus a batch fetcher that walks every page of a
// query.
//
// Navigation rules:
//   - previous is allowed when page > 1
//   - next is allowed when totalPages > 0 and page < totalPages
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(collectionClient, pagination.DefaultConfig())
//	items, err := fetcher.FetchAll(ctx, "widget", listing.PageSize(100))
//
// The batch fetcher:
//   - Fetches the first page to learn the total page count
//   - Fetches the remaining pages with a bounded worker pool
//   - Returns items in page order, or the first error encountered
package pagination
