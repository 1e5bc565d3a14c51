package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/item-list-client/pkg/listing"
	"github.com/Sternrassler/item-list-client/pkg/metrics"
)

// PageOutOfRangeDetail is the error detail sent with 404 responses.
const PageOutOfRangeDetail = "Page out of range"

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Service *Service
	Logger  zerolog.Logger
	// Store is pinged by /health when it implements Pinger.
	Store Store
	// RateLimitPerMinute is the per-IP request budget; 0 disables limiting.
	RateLimitPerMinute int
}

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewRouter builds the collection service HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(allowAllOrigins())

	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(cfg.RateLimitPerMinute, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeJSON(w, http.StatusTooManyRequests, errorResponse{Detail: "Too many requests"})
				}),
			))
		}

		r.Get("/health", healthHandler(cfg.Store))
		r.Get("/items", listItemsHandler(cfg.Service))
	})

	return r
}

func healthHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(Pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func listItemsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := ParseParams(r)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
			return
		}

		page, err := svc.List(r.Context(), params)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, page)
		case errors.Is(err, ErrPageOutOfRange):
			writeJSON(w, http.StatusNotFound, errorResponse{Detail: PageOutOfRangeDetail})
		case errors.Is(err, ErrInvalidParams):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("List items failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// ParseParams reads the listing parameters from the query string. Missing
// parameters take their defaults and an empty search means no search.
func ParseParams(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := DefaultParams()

	if raw := q.Get(listing.ParamPage); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("%w: %s must be an integer (got %q)", ErrInvalidParams, listing.ParamPage, raw)
		}
		p.Page = n
	}
	if raw := q.Get(listing.ParamPageSize); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("%w: %s must be an integer (got %q)", ErrInvalidParams, listing.ParamPageSize, raw)
		}
		p.PageSize = n
	}
	p.Search = q.Get(listing.ParamSearch)
	return p, nil
}

// allowAllOrigins is a permissive CORS policy: any origin, method and
// header, credentials allowed.
func allowAllOrigins() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool { return true },
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}

// requestLogger attaches logger to the request context and logs one line
// per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLogger := logger.With().
				Str("request_id", chimw.GetReqID(r.Context())).
				Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			next.ServeHTTP(ww, r)

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
