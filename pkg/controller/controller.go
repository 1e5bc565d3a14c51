// Package controller implements the list view controller: it owns the
// editable list state, derives the canonical query from it and reconciles
// that query against the collection service.
//
// Every change of the derived query starts a new fetch cycle and bumps a
// generation token. A cycle commits its outcome only if its generation is
// still current when it resolves, so the last query issued always wins no
// matter in which order responses arrive. Superseded cycles also have their
// context cancelled, but suppression does not depend on the transport
// honouring that.
package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/item-list-client/pkg/listing"
	"github.com/Sternrassler/item-list-client/pkg/metrics"
	"github.com/Sternrassler/item-list-client/pkg/pagination"
)

var (
	fetchCyclesTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "itemlist_fetch_cycles_total",
		Help: "Total fetch cycles started by list controllers",
	})

	staleResponsesTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "itemlist_stale_responses_total",
		Help: "Fetch outcomes discarded because a newer query was issued or the controller closed",
	}, []string{"outcome"})
)

// unknownErrorMessage is shown when a failure carries no message.
const unknownErrorMessage = "Unknown error"

// ErrClosed is returned by Start on a closed controller.
var ErrClosed = errors.New("controller closed")

// Fetcher reads one page of the collection.
type Fetcher interface {
	ListItems(ctx context.Context, q listing.Query) (*listing.ResultSet, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, q listing.Query) (*listing.ResultSet, error)

// ListItems implements Fetcher.
func (f FetcherFunc) ListItems(ctx context.Context, q listing.Query) (*listing.ResultSet, error) {
	return f(ctx, q)
}

// Options configures a Controller.
type Options struct {
	// PageSize is the initial page size (default listing.DefaultPageSize).
	PageSize listing.PageSize
	// Search is the initial search text.
	Search string
	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// Controller is the list view state owner.
// All methods are safe for concurrent use.
type Controller struct {
	fetcher Fetcher
	logger  zerolog.Logger

	mu         sync.Mutex
	page       int
	pageSize   listing.PageSize
	search     string
	items      []listing.Item
	totalPages int
	totalItems int
	status     listing.FetchStatus
	query      listing.Query
	issued     bool
	generation uint64
	revision   uint64
	cancel     context.CancelFunc
	baseCtx    context.Context
	started    bool
	closed     bool
	listeners  []func(State)

	inflight sync.WaitGroup
}

// New creates a controller. No fetch happens until Start is called.
func New(fetcher Fetcher, opts Options) (*Controller, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = listing.DefaultPageSize
	}
	if !pageSize.Valid() {
		_, err := listing.ParsePageSize(int(pageSize))
		return nil, err
	}

	logger := log.With().Str("component", "list-controller").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Controller{
		fetcher:  fetcher,
		logger:   logger,
		page:     1,
		pageSize: pageSize,
		search:   opts.Search,
		items:    []listing.Item{},
		status:   listing.Idle(),
	}, nil
}

// Start mounts the controller: it derives the initial query and fetches it.
// ctx bounds every fetch cycle; cancelling it suppresses pending outcomes
// the same way Close does.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.baseCtx = ctx
	c.logger.Debug().Msg("Controller started")
	c.reconcileLocked()
	snap, listeners := c.snapshotLocked()
	c.mu.Unlock()

	notify(listeners, snap)
	return nil
}

// SetSearch updates the search text and resets to the first page.
func (c *Controller) SetSearch(text string) {
	c.mutate(func() {
		c.search = text
		c.page = 1
	})
}

// SetPageSize updates the page size and resets to the first page.
// Sizes outside the fixed choices are rejected with listing.ErrInvalidPageSize.
func (c *Controller) SetPageSize(n int) error {
	size, err := listing.ParsePageSize(n)
	if err != nil {
		return err
	}
	c.mutate(func() {
		c.pageSize = size
		c.page = 1
	})
	return nil
}

// PreviousPage moves one page back. It is a no-op on the first page.
func (c *Controller) PreviousPage() {
	c.mutate(func() {
		if pagination.CanPrevious(c.page) {
			c.page--
		}
	})
}

// NextPage moves one page forward. It is a no-op unless the last known
// result has more pages.
func (c *Controller) NextPage() {
	c.mutate(func() {
		if pagination.CanNext(c.page, c.totalPages) {
			c.page++
		}
	})
}

// Query returns the query derived from the current state.
func (c *Controller) Query() listing.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deriveLocked()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, _ := c.snapshotLocked()
	return snap
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs outside the controller lock and may call back into the controller.
// Snapshots can arrive out of order across goroutines; use State.Revision to
// discard older ones.
func (c *Controller) Subscribe(fn func(State)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Wait blocks until every fetch cycle started so far has finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close tears the controller down. Pending fetch outcomes are suppressed
// and later mutations no longer issue fetches.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.logger.Debug().Msg("Controller closed")
	return nil
}

// mutate applies fn to the state and reconciles the derived query.
func (c *Controller) mutate(fn func()) {
	c.mu.Lock()
	before := c.deriveLocked()
	fn()
	after := c.deriveLocked()
	changed := before != after
	if changed && c.started && !c.closed {
		c.reconcileLocked()
	}
	var (
		snap      State
		listeners []func(State)
	)
	if changed {
		c.revision++
		snap, listeners = c.snapshotLocked()
	}
	c.mu.Unlock()

	if changed {
		notify(listeners, snap)
	}
}

func (c *Controller) deriveLocked() listing.Query {
	return listing.NewQuery(c.page, c.pageSize, c.search)
}

// reconcileLocked issues a fetch cycle for the derived query unless that
// exact query is already the active one.
func (c *Controller) reconcileLocked() {
	q := c.deriveLocked()
	if c.issued && q == c.query {
		return
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	c.query = q
	c.issued = true

	parent := c.baseCtx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel

	c.status = listing.Loading()
	c.revision++
	fetchCyclesTotal.Inc()

	c.logger.Debug().
		Uint64("generation", gen).
		Str("query", q.Encode()).
		Msg("Fetch cycle started")

	c.inflight.Add(1)
	go c.run(ctx, cancel, gen, q)
}

// run executes one fetch cycle and commits its outcome if still current.
func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, gen uint64, q listing.Query) {
	defer c.inflight.Done()
	defer cancel()

	rs, err := c.fetcher.ListItems(ctx, q)

	c.mu.Lock()
	if !c.isCurrentLocked(gen) {
		c.mu.Unlock()
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		staleResponsesTotal.WithLabelValues(outcome).Inc()
		c.logger.Debug().
			Uint64("generation", gen).
			Str("query", q.Encode()).
			Str("outcome", outcome).
			Msg("Discarding stale fetch outcome")
		return
	}

	if err != nil {
		c.status = listing.Failure(errorMessage(err))
		c.logger.Warn().
			Err(err).
			Str("query", q.Encode()).
			Msg("Fetch cycle failed")
	} else {
		result := listing.ResultSet{Items: []listing.Item{}}
		if rs != nil {
			result = *rs
			if result.Items == nil {
				result.Items = []listing.Item{}
			}
		}
		c.items = result.Items
		c.totalPages = result.TotalPages
		c.totalItems = result.TotalItems
		c.status = listing.Success(result)
		c.logger.Debug().
			Str("query", q.Encode()).
			Int("items", len(result.Items)).
			Int("total_pages", result.TotalPages).
			Msg("Fetch cycle committed")
	}
	c.revision++
	snap, listeners := c.snapshotLocked()
	c.mu.Unlock()

	notify(listeners, snap)
}

// isCurrentLocked is the commit guard: the cycle must still be the latest,
// the controller open and the mount context alive.
func (c *Controller) isCurrentLocked(gen uint64) bool {
	if c.closed || gen != c.generation {
		return false
	}
	if c.baseCtx != nil && c.baseCtx.Err() != nil {
		return false
	}
	return true
}

func (c *Controller) snapshotLocked() (State, []func(State)) {
	items := make([]listing.Item, len(c.items))
	copy(items, c.items)

	snap := State{
		Page:       c.page,
		PageSize:   c.pageSize,
		Search:     c.search,
		Items:      items,
		TotalPages: c.totalPages,
		TotalItems: c.totalItems,
		Status:     c.status,
		Query:      c.deriveLocked(),
		Generation: c.generation,
		Revision:   c.revision,
	}

	listeners := make([]func(State), len(c.listeners))
	copy(listeners, c.listeners)
	return snap, listeners
}

func notify(listeners []func(State), snap State) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func errorMessage(err error) string {
	if err == nil {
		return unknownErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownErrorMessage
}
