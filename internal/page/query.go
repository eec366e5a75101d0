package page

import (
	"context"
	"math"
	"strings"
)

// QueryAdapter turns UI paging, sorting and search into EntityService.List
// calls. Fetch and Count both go through List with the same search term so
// the rows shown and the total reported cannot disagree.
type QueryAdapter[T any] struct {
	svc       EntityService[T]
	sortField map[string]string
	search    string
}

// NewQueryAdapter builds an adapter whose sortable columns come from cols.
func NewQueryAdapter[T any](svc EntityService[T], cols []Column[T]) *QueryAdapter[T] {
	fields := make(map[string]string, len(cols))
	for _, c := range cols {
		if c.SortField != "" {
			fields[c.Key] = c.SortField
		}
	}
	return &QueryAdapter[T]{svc: svc, sortField: fields}
}

// SetSearch replaces the active filter. The term is trimmed; empty means no filter.
func (a *QueryAdapter[T]) SetSearch(term string) { a.search = strings.TrimSpace(term) }

// Search returns the active filter.
func (a *QueryAdapter[T]) Search() string { return a.search }

// Fetch returns at most limit rows starting at offset.
func (a *QueryAdapter[T]) Fetch(ctx context.Context, offset, limit int, sort []SortOrder) ([]*T, error) {
	limit = max(limit, 1)
	offset = max(offset, 0)
	w, err := a.svc.List(ctx, PageQuery{Offset: offset, Limit: limit, Sort: a.translate(sort)}, a.search)
	if err != nil {
		return nil, err
	}
	if len(w.Items) > limit {
		w.Items = w.Items[:limit]
	}
	return w.Items, nil
}

// Count returns the number of rows matching the active filter.
func (a *QueryAdapter[T]) Count(ctx context.Context, sort []SortOrder) (int, error) {
	w, err := a.svc.List(ctx, PageQuery{Offset: 0, Limit: 1, Sort: a.translate(sort)}, a.search)
	if err != nil {
		return 0, err
	}
	return clampCount(w.Total), nil
}

// translate maps column keys to backend sort properties, dropping
// columns that are not sortable.
func (a *QueryAdapter[T]) translate(sort []SortOrder) []SortOrder {
	if len(sort) == 0 {
		return nil
	}
	out := make([]SortOrder, 0, len(sort))
	for _, s := range sort {
		if f, ok := a.sortField[s.Field]; ok {
			out = append(out, SortOrder{Field: f, Direction: s.Direction})
		}
	}
	return out
}

// PageIndex derives a page number from a cursor. Offset stays the
// authoritative position; the index is for display only.
func PageIndex(offset, limit int) int {
	return max(offset, 0) / max(limit, 1)
}

func clampCount(n int64) int {
	switch {
	case n < 0:
		return 0
	case uint64(n) > uint64(math.MaxInt):
		return math.MaxInt
	}
	return int(n)
}
