package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/item-list-client/pkg/listing"
	"github.com/Sternrassler/item-list-client/pkg/pagination"
)

const (
	// DefaultPage is used when a request names no page.
	DefaultPage = 1
	// DefaultPageSize is used when a request names no page size.
	DefaultPageSize = 10
	// MaxPageSize is the largest page a request may ask for.
	MaxPageSize = 100
)

var (
	// ErrPageOutOfRange is returned for a page past the last one of a
	// non-empty result.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrInvalidParams wraps parameter validation failures.
	ErrInvalidParams = errors.New("invalid parameters")
)

// Params are the listing request parameters.
type Params struct {
	Page     int `validate:"gte=1"`
	PageSize int `validate:"gte=1,lte=100"`
	Search   string
}

// DefaultParams returns the parameters of a request without query string.
func DefaultParams() Params {
	return Params{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Service answers paginated, searchable item listings.
type Service struct {
	store    Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService creates a listing service over store.
func NewService(store Store) *Service {
	if store == nil {
		panic("catalog store cannot be nil")
	}
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.With().Str("component", "catalog").Logger(),
	}
}

// Validate checks p against the parameter constraints.
func (s *Service) Validate(p Params) error {
	if err := s.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must satisfy %s=%s", ErrInvalidParams, paramName(fe.Field()), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// List returns one page of the items matching p.Search.
//
// A search without matches yields an empty page with zero totals for any
// requested page. Otherwise a page past the last one fails with
// ErrPageOutOfRange.
func (s *Service) List(ctx context.Context, p Params) (*listing.Page, error) {
	if err := s.Validate(p); err != nil {
		listRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	all, err := s.store.All(ctx)
	if err != nil && !errors.Is(err, ErrStoreEmpty) {
		listRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load items: %w", err)
	}

	matched := Filter(all, p.Search)
	total := len(matched)
	if total == 0 {
		listRequests.WithLabelValues("ok").Inc()
		return &listing.Page{
			Items:    []listing.Item{},
			Page:     p.Page,
			PageSize: p.PageSize,
		}, nil
	}

	totalPages := pagination.TotalPages(total, p.PageSize)
	if p.Page > totalPages {
		listRequests.WithLabelValues("out_of_range").Inc()
		s.logger.Debug().
			Int("page", p.Page).
			Int("total_pages", totalPages).
			Msg("Requested page out of range")
		return nil, ErrPageOutOfRange
	}

	start, end := pagination.Bounds(p.Page, p.PageSize, total)
	items := make([]listing.Item, end-start)
	copy(items, matched[start:end])

	listRequests.WithLabelValues("ok").Inc()
	return &listing.Page{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// Filter keeps the items whose name or description contains search,
// ignoring case. An empty search keeps everything.
func Filter(items []listing.Item, search string) []listing.Item {
	if search == "" {
		return items
	}
	needle := strings.ToLower(search)
	out := make([]listing.Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) ||
			strings.Contains(strings.ToLower(item.Description), needle) {
			out = append(out, item)
		}
	}
	return out
}

func paramName(field string) string {
	switch field {
	case "Page":
		return listing.ParamPage
	case "PageSize":
		return listing.ParamPageSize
	case "Search":
		return listing.ParamSearch
	default:
		return strings.ToLower(field)
	}
}
