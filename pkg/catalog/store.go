// Package catalog implements the item collection service: the dataset
// stores, the paginated search over them and its HTTP surface.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sternrassler/item-list-client/pkg/listing"
)

// ErrStoreEmpty is returned when a store has never been seeded.
var ErrStoreEmpty = errors.New("catalog store is empty")

// Store holds the full item dataset, ordered by ID.
type Store interface {
	All(ctx context.Context) ([]listing.Item, error)
}

// Seeder is a Store that can be (re)populated.
type Seeder interface {
	Store
	Seed(ctx context.Context, items []listing.Item) error
}

// SeedItems generates the demo dataset: "Item i" / "Description for item i"
// for i in 1..n.
func SeedItems(n int) []listing.Item {
	items := make([]listing.Item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, listing.Item{
			ID:          listing.IntID(int64(i)),
			Name:        fmt.Sprintf("Item %d", i),
			Description: fmt.Sprintf("Description for item %d", i),
		})
	}
	return items
}

// MemoryStore keeps the dataset in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items []listing.Item
}

// NewMemoryStore creates a store holding items.
func NewMemoryStore(items []listing.Item) *MemoryStore {
	s := &MemoryStore{}
	s.items = cloneItems(items)
	return s
}

// All implements Store.
func (s *MemoryStore) All(ctx context.Context) ([]listing.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items), nil
}

// Seed implements Seeder.
func (s *MemoryStore) Seed(ctx context.Context, items []listing.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloneItems(items)
	return nil
}

func cloneItems(items []listing.Item) []listing.Item {
	out := make([]listing.Item, len(items))
	copy(out, items)
	return out
}
