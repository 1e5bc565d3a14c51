package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/item-list-client/pkg/listing"
)

// call is one pending ListItems invocation of the fake fetcher.
type call struct {
	query  listing.Query
	ctx    context.Context
	result chan outcome
}

type outcome struct {
	rs  *listing.ResultSet
	err error
}

// fakeFetcher blocks every request until the test resolves it, ignoring
// context cancellation so that suppression is tested independently of it.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []*call
	added chan *call
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{added: make(chan *call, 64)}
}

func (f *fakeFetcher) ListItems(ctx context.Context, q listing.Query) (*listing.ResultSet, error) {
	c := &call{query: q, ctx: ctx, result: make(chan outcome, 1)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	f.added <- c

	o := <-c.result
	return o.rs, o.err
}

// next waits for the next issued request.
func (f *fakeFetcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.added:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch")
		return nil
	}
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (c *call) succeed(rs listing.ResultSet) { c.result <- outcome{rs: &rs} }
func (c *call) fail(err error)             { c.result <- outcome{err: err} }

func page(totalPages, totalItems int, names ...string) listing.ResultSet {
	rs := listing.ResultSet{TotalPages: totalPages, TotalItems: totalItems, Items: []listing.Item{}}
	for i, n := range names {
		rs.Items = append(rs.Items, listing.Item{ID: listing.IntID(int64(i + 1)), Name: n})
	}
	return rs
}

func newStarted(t *testing.T, f Fetcher, opts Options) *Controller {
	t.Helper()
	c, err := New(f, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Error("expected error for nil fetcher")
	}
	if _, err := New(newFakeFetcher(), Options{PageSize: 7}); !errors.Is(err, listing.ErrInvalidPageSize) {
		t.Errorf("error = %v, want ErrInvalidPageSize", err)
	}

	c, err := New(newFakeFetcher(), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s := c.Snapshot()
	if s.Page != 1 || s.PageSize != listing.DefaultPageSize {
		t.Errorf("initial page/size = %d/%d, want 1/%d", s.Page, s.PageSize, listing.DefaultPageSize)
	}
	if s.Status.Kind != listing.StatusIdle {
		t.Errorf("initial status = %s, want idle", s.Status.Kind)
	}
}

func TestStart_FetchesInitialQuery(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})

	call := f.next(t)
	if want := listing.NewQuery(1, 10, ""); call.query != want {
		t.Errorf("query = %+v, want %+v", call.query, want)
	}
	if !c.Snapshot().Loading() {
		t.Error("state should be loading while the fetch is in flight")
	}

	call.succeed(page(3, 25, "Widget"))
	c.Wait()

	s := c.Snapshot()
	if s.Status.Kind != listing.StatusSuccess {
		t.Fatalf("status = %s, want success", s.Status.Kind)
	}
	if len(s.Items) != 1 || s.TotalPages != 3 || s.TotalItems != 25 {
		t.Errorf("state = %+v", s)
	}

	// a second Start is a no-op
	if err := c.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
	if f.count() != 1 {
		t.Errorf("fetches = %d, want 1", f.count())
	}
}

func TestSetSearch_ResetsPage(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})

	f.next(t).succeed(page(5, 50))
	c.Wait()

	c.NextPage()
	f.next(t).succeed(page(5, 50))
	c.NextPage()
	f.next(t).succeed(page(5, 50))
	c.Wait()
	if got := c.Snapshot().Page; got != 3 {
		t.Fatalf("page = %d, want 3", got)
	}

	c.SetSearch("widget")
	call := f.next(t)
	if want := listing.NewQuery(1, 10, "widget"); call.query != want {
		t.Errorf("query = %+v, want %+v", call.query, want)
	}
	if got := c.Snapshot().Page; got != 1 {
		t.Errorf("page after SetSearch = %d, want 1", got)
	}
	call.succeed(page(1, 1, "Widget"))
	c.Wait()
}

func TestSetPageSize_ResetsPage(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})

	f.next(t).succeed(page(3, 25))
	c.Wait()
	c.NextPage()
	f.next(t).succeed(page(3, 25))
	c.Wait()

	if err := c.SetPageSize(50); err != nil {
		t.Fatalf("SetPageSize() error = %v", err)
	}
	call := f.next(t)
	if want := listing.NewQuery(1, 50, ""); call.query != want {
		t.Errorf("query = %+v, want %+v", call.query, want)
	}
	call.succeed(page(1, 25))
	c.Wait()

	if err := c.SetPageSize(30); !errors.Is(err, listing.ErrInvalidPageSize) {
		t.Errorf("SetPageSize(30) error = %v, want ErrInvalidPageSize", err)
	}
	if got := c.Snapshot().PageSize; got != 50 {
		t.Errorf("page size = %d, want 50", got)
	}
}

func TestNavigation(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})

	// before any result, totalPages is 0: next is a no-op
	c.NextPage()
	c.PreviousPage()
	first := f.next(t)
	if got := c.Snapshot().Page; got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}

	first.succeed(page(2, 15))
	c.Wait()

	c.PreviousPage()
	if got := c.Snapshot().Page; got != 1 {
		t.Errorf("PreviousPage on page 1: page = %d, want 1", got)
	}

	c.NextPage()
	f.next(t).succeed(page(2, 15))
	c.Wait()
	if got := c.Snapshot().Page; got != 2 {
		t.Fatalf("page = %d, want 2", got)
	}

	c.NextPage()
	if got := c.Snapshot().Page; got != 2 {
		t.Errorf("NextPage on last page: page = %d, want 2", got)
	}

	c.PreviousPage()
	f.next(t).succeed(page(2, 15))
	c.Wait()
	if got := c.Snapshot().Page; got != 1 {
		t.Errorf("page = %d, want 1", got)
	}

	if f.count() != 3 {
		t.Errorf("fetches = %d, want 3", f.count())
	}
}

func TestFetchOncePerDistinctQuery(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})
	f.next(t).succeed(page(1, 1))
	c.Wait()

	c.SetSearch("")
	c.SetSearch("   ")
	if err := c.SetPageSize(10); err != nil {
		t.Fatal(err)
	}
	c.PreviousPage()

	if f.count() != 1 {
		t.Errorf("fetches = %d, want 1 (query never changed)", f.count())
	}

	c.SetSearch("widget")
	f.next(t).succeed(page(1, 1))
	c.SetSearch(" widget ")
	c.Wait()
	if f.count() != 2 {
		t.Errorf("fetches = %d, want 2", f.count())
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})
	f.next(t).succeed(page(1, 1))
	c.Wait()

	c.SetSearch("a")
	callA := f.next(t)
	c.SetSearch("b")
	callB := f.next(t)

	if callA.ctx.Err() == nil {
		t.Error("superseded fetch context should be cancelled")
	}

	callB.succeed(page(1, 1, "B"))
	// A resolves after B
	callA.succeed(page(9, 90, "A1", "A2"))
	c.Wait()

	s := c.Snapshot()
	if s.Status.Kind != listing.StatusSuccess {
		t.Fatalf("status = %s, want success", s.Status.Kind)
	}
	if len(s.Items) != 1 || s.Items[0].Name != "B" {
		t.Errorf("items = %+v, want only B", s.Items)
	}
	if s.TotalPages != 1 || s.TotalItems != 1 {
		t.Errorf("totals = %d/%d, want 1/1", s.TotalPages, s.TotalItems)
	}
}

func TestStaleFailureDiscarded(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})

	callA := f.next(t)
	c.SetSearch("b")
	callB := f.next(t)

	// A fails before B resolves: the failure must not surface
	callA.fail(errors.New("boom"))
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if s := c.Snapshot(); s.Status.Kind != listing.StatusLoading {
			t.Fatalf("status = %s, want loading while B is in flight", s.Status.Kind)
		}
		time.Sleep(5 * time.Millisecond)
	}

	callB.succeed(page(1, 1, "B"))
	c.Wait()
	if s := c.Snapshot(); s.Error() != "" || s.Items[0].Name != "B" {
		t.Errorf("state = %+v", s)
	}
}

func TestFailureKeepsLastResult(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})
	f.next(t).succeed(page(3, 25, "Widget"))
	c.Wait()

	c.NextPage()
	f.next(t).fail(errors.New("Internal Server Error"))
	c.Wait()

	s := c.Snapshot()
	if s.Status.Kind != listing.StatusFailure {
		t.Fatalf("status = %s, want failure", s.Status.Kind)
	}
	if s.Error() != "Internal Server Error" {
		t.Errorf("Error() = %q, want %q", s.Error(), "Internal Server Error")
	}
	if s.TotalPages != 3 || len(s.Items) != 1 {
		t.Errorf("last result should be kept, got %+v", s)
	}

	// recovery by changing input
	c.PreviousPage()
	f.next(t).succeed(page(3, 25, "Widget"))
	c.Wait()
	if s := c.Snapshot(); s.Error() != "" || s.Status.Kind != listing.StatusSuccess {
		t.Errorf("state after recovery = %+v", s)
	}
}

func TestFailureWithoutMessage(t *testing.T) {
	f := newFakeFetcher()
	c := newStarted(t, f, Options{})
	f.next(t).fail(errors.New(""))
	c.Wait()

	if got := c.Snapshot().Error(); got != unknownErrorMessage {
		t.Errorf("Error() = %q, want %q", got, unknownErrorMessage)
	}
}

func TestClose_SuppressesPending(t *testing.T) {
	f := newFakeFetcher()
	c, err := New(f, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	call := f.next(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if call.ctx.Err() == nil {
		t.Error("pending fetch context should be cancelled on Close")
	}

	call.succeed(page(3, 25, "Widget"))
	c.Wait()

	s := c.Snapshot()
	if len(s.Items) != 0 || s.TotalPages != 0 {
		t.Errorf("closed controller committed a result: %+v", s)
	}

	c.SetSearch("x")
	if f.count() != 1 {
		t.Errorf("fetches after Close = %d, want 1", f.count())
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close error = %v, want ErrClosed", err)
	}
}

func TestMountContextCancelled(t *testing.T) {
	f := newFakeFetcher()
	c, err := New(f, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	call := f.next(t)
	cancel()
	call.succeed(page(1, 1, "late"))
	c.Wait()

	if s := c.Snapshot(); len(s.Items) != 0 {
		t.Errorf("outcome committed after mount context cancelled: %+v", s.Items)
	}
}

func TestSubscribe(t *testing.T) {
	f := newFakeFetcher()
	c, err := New(f, Options{Search: "widget"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var (
		mu     sync.Mutex
		states []State
	)
	c.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.next(t).succeed(page(3, 25, "Widget"))
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 {
		t.Fatalf("notifications = %d, want >= 2", len(states))
	}
	last := states[len(states)-1]
	if last.Status.Kind != listing.StatusSuccess {
		t.Errorf("last notification status = %s, want success", last.Status.Kind)
	}
	for i := 1; i < len(states); i++ {
		if states[i].Revision <= states[i-1].Revision {
			t.Errorf("revisions not increasing: %d then %d", states[i-1].Revision, states[i].Revision)
		}
	}
}

func TestFetcherHonouringCancellation(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	fetcher := FetcherFunc(func(ctx context.Context, q listing.Query) (*listing.ResultSet, error) {
		mu.Lock()
		seen[q.Search]++
		mu.Unlock()
		if q.Search == "slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		rs := page(1, 1, q.Search)
		return &rs, nil
	})

	c := newStarted(t, fetcher, Options{Search: "slow"})
	c.SetSearch("fast")
	c.Wait()

	s := c.Snapshot()
	if s.Status.Kind != listing.StatusSuccess || s.Items[0].Name != "fast" {
		t.Errorf("state = %+v, want success for fast", s)
	}
	mu.Lock()
	defer mu.Unlock()
	if seen["slow"] != 1 || seen["fast"] != 1 {
		t.Errorf("fetches = %v", seen)
	}
}
