package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/item-list-client/pkg/listing"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int
	// Timeout per page fetch. Zero disables the per-page timeout.
	Timeout time.Duration
}

// DefaultConfig returns a conservative configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches a single page of a query.
type PageFetcher interface {
	FetchPage(ctx context.Context, q listing.Query) (*listing.ResultSet, error)
}

// BatchFetcher walks every page of a query.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll returns every item matching search, in page order.
// Any page failure aborts the walk and is returned.
func (bf *BatchFetcher) FetchAll(ctx context.Context, search string, pageSize listing.PageSize) ([]listing.Item, error) {
	start := time.Now()

	first, err := bf.fetchPage(ctx, listing.NewQuery(1, pageSize, search))
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	totalPages := first.TotalPages
	log.Debug().
		Str("search", search).
		Int("page_size", int(pageSize)).
		Int("total_pages", totalPages).
		Msg("Starting batch page fetch")

	if totalPages <= 1 {
		return first.Items, nil
	}

	pages := make([][]listing.Item, totalPages)
	pages[0] = first.Items

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		page := page
		g.Go(func() error {
			rs, err := bf.fetchPage(gctx, listing.NewQuery(page, pageSize, search))
			if err != nil {
				log.Warn().Err(err).Int("page", page).Msg("Page fetch failed")
				return fmt.Errorf("fetch page %d: %w", page, err)
			}
			// each goroutine owns its own slot
			pages[page-1] = rs.Items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]listing.Item, 0, first.TotalItems)
	for _, p := range pages {
		items = append(items, p...)
	}

	log.Info().
		Str("search", search).
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return items, nil
}

func (bf *BatchFetcher) fetchPage(ctx context.Context, q listing.Query) (*listing.ResultSet, error) {
	if bf.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bf.config.Timeout)
		defer cancel()
	}
	return bf.fetcher.FetchPage(ctx, q)
}
