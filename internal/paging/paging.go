package paging

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/MikeMC777/product-catalog/internal/paging"

const (
	outcomeFirstPage     = "first_page"
	outcomeNextPage      = "next_page"
	outcomeInvalidCursor = "invalid_cursor"
	outcomeStorageError  = "storage_error"
)

// Source is the storage side of a search. Both methods return rows ordered by
// created_at DESC, id DESC, filtered by a case-insensitive substring match on
// name when query is non-empty.
type Source[T any] interface {
	FetchTop(ctx context.Context, query string, limit int) ([]T, error)
	FetchAfter(ctx context.Context, query string, before time.Time, limit int) ([]T, error)
}

// Filter is the per-request search input. PageSize is clamped by the caller.
type Filter struct {
	Query    string
	PageSize int
}

// Page is one slice of the ordered result set.
// NextCursor is set only when HasMore is true and Items is non-empty.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
	Size       int     `json:"size"`
}

// Empty returns the terminal page: no items, no cursor.
func Empty[T any]() Page[T] {
	return Page[T]{Items: []T{}}
}

// Map projects the items of a page, keeping its continuation metadata.
func Map[A, B any](p Page[A], fn func(A) B) Page[B] {
	out := Page[B]{
		Items:      make([]B, 0, len(p.Items)),
		NextCursor: p.NextCursor,
		HasMore:    p.HasMore,
		Size:       p.Size,
	}
	for _, it := range p.Items {
		out.Items = append(out.Items, fn(it))
	}
	return out
}

// Engine runs cursor searches against a Source. It holds no per-request state
// and is safe for concurrent use.
type Engine[T any] struct {
	src   Source[T]
	key   func(T) time.Time
	log   logrus.FieldLogger
	pages metric.Int64Counter
}

// NewEngine builds an engine; key extracts the creation timestamp of a row.
func NewEngine[T any](src Source[T], key func(T) time.Time, log logrus.FieldLogger) *Engine[T] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	pages, err := otel.Meter(instrumentationName).Int64Counter(
		"catalog_search_pages_total",
		metric.WithDescription("Search pages served, by outcome"),
	)
	if err != nil {
		log.WithError(err).Warn("search counter unavailable")
	}
	return &Engine[T]{src: src, key: key, log: log.WithField("component", "paging"), pages: pages}
}

// Search returns exactly one page. It never fails: a malformed cursor or a
// storage error both produce the empty page.
func (e *Engine[T]) Search(ctx context.Context, f Filter, cursor string) Page[T] {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "paging.Search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("paging.page_size", f.PageSize),
		attribute.Bool("paging.has_cursor", cursor != ""),
	)

	if f.PageSize < 1 {
		return Empty[T]()
	}

	// one extra row tells whether another page exists
	limit := f.PageSize
	if limit < math.MaxInt {
		limit++
	}

	var (
		rows    []T
		err     error
		outcome = outcomeFirstPage
	)
	if cursor == "" {
		rows, err = e.src.FetchTop(ctx, f.Query, limit)
	} else {
		before, derr := DecodeCursor(cursor)
		if derr != nil {
			e.count(ctx, outcomeInvalidCursor)
			span.SetAttributes(attribute.String("paging.outcome", outcomeInvalidCursor))
			e.log.WithError(derr).Debug("rejecting search cursor")
			return Empty[T]()
		}
		outcome = outcomeNextPage
		rows, err = e.src.FetchAfter(ctx, f.Query, before, limit)
	}
	if err != nil {
		e.count(ctx, outcomeStorageError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.WithError(err).WithField("query", f.Query).Warn("search fetch failed")
		return Empty[T]()
	}
	e.count(ctx, outcome)
	span.SetAttributes(attribute.String("paging.outcome", outcome))

	return e.assemble(rows, f.PageSize)
}

func (e *Engine[T]) assemble(rows []T, size int) Page[T] {
	hasMore := len(rows) > size
	if hasMore {
		rows = rows[:size]
	}
	if rows == nil {
		rows = []T{}
	}
	page := Page[T]{Items: rows, HasMore: hasMore, Size: len(rows)}
	if hasMore && len(rows) > 0 {
		next := EncodeCursor(e.key(rows[len(rows)-1]))
		page.NextCursor = &next
	}
	return page
}

func (e *Engine[T]) count(ctx context.Context, outcome string) {
	if e.pages == nil {
		return
	}
	e.pages.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
