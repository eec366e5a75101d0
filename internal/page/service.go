package page

import "context"

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortOrder is one (field, direction) pair. In the UI the field is a column
// key; after translation it is the backend sort property.
type SortOrder struct {
	Field     string
	Direction Direction
}

// PageQuery is a window request.
type PageQuery struct {
	Offset int
	Limit  int
	Sort   []SortOrder
}

// Window is a slice of rows plus the total matching the same filter.
type Window[T any] struct {
	Items []*T
	Total int64
}

// EntityService is the persistence and business-rule collaborator.
//
// List applies search to both the returned window and Total. GetByID
// returns ErrNotFound for missing ids. Save returns the authoritative copy,
// with identity and revision assigned; a stale revision yields a
// *ConflictError. NewEntity returns an unsaved instance; name may be empty.
type EntityService[T any] interface {
	List(ctx context.Context, q PageQuery, search string) (Window[T], error)
	GetByID(ctx context.Context, id string) (*T, error)
	Save(ctx context.Context, e *T) (*T, error)
	Delete(ctx context.Context, e *T) error
	NewEntity(name string) *T
	OnBeforeSave(e *T) bool
}

// SessionService stores the last selected id per entity kind. An empty id
// means no selection.
type SessionService interface {
	ActiveID(ctx context.Context, kind string) (string, error)
	SetActiveID(ctx context.Context, kind, id string) error
}
