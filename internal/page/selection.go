package page

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Selection keeps the grid value, the session's active id and the detail
// registry pointing at the same entity.
type Selection[T any] struct {
	kind     *Kind[T]
	svc      EntityService[T]
	adapter  *QueryAdapter[T]
	grid     *Grid[T]
	registry *Registry[T]
	session  SessionService
	log      zerolog.Logger

	current *T
	events  listeners[SelectionEvent[T]]
}

func newSelection[T any](kind *Kind[T], svc EntityService[T], adapter *QueryAdapter[T], grid *Grid[T],
	registry *Registry[T], session SessionService, log zerolog.Logger) *Selection[T] {
	return &Selection[T]{
		kind:     kind,
		svc:      svc,
		adapter:  adapter,
		grid:     grid,
		registry: registry,
		session:  session,
		log:      log,
	}
}

// Current is the entity driving the detail view, nil for a blank form.
func (s *Selection[T]) Current() *T { return s.current }

// Subscribe registers fn for selection changes. Listeners run after the
// registry has been repopulated and the active id written.
func (s *Selection[T]) Subscribe(fn func(SelectionEvent[T])) func() {
	return s.events.subscribe(fn)
}

// Select makes e current (nil clears), repopulates every section and
// records e's id as the session's active id.
func (s *Selection[T]) Select(ctx context.Context, e *T) error {
	if err := s.registry.Populate(e); err != nil {
		return err
	}
	s.grid.selected = e
	s.current = e
	s.persistActive(ctx, e)
	s.events.fire(SelectionEvent[T]{Entity: e, ID: s.kind.idOf(e)})
	return nil
}

// bindUnsaved shows an entity without identity. The grid is deselected and
// the active id keeps pointing at the last persisted selection so Cancel
// can return to it.
func (s *Selection[T]) bindUnsaved(e *T) error {
	if err := s.registry.Populate(e); err != nil {
		return err
	}
	s.grid.selected = nil
	s.current = e
	s.events.fire(SelectionEvent[T]{Entity: e})
	return nil
}

// adopt swaps in a newer copy of the current entity without reloading
// form inputs.
func (s *Selection[T]) adopt(e *T) {
	s.current = e
	if s.grid.selected != nil {
		s.grid.selected = e
	}
	s.registry.Rebind(e)
}

// SelectByIndex selects the row at absolute position i of the current
// provider window. A negative index, or one past the end, clears.
func (s *Selection[T]) SelectByIndex(ctx context.Context, i int) error {
	if i < 0 {
		return s.Select(ctx, nil)
	}
	rows, err := s.adapter.Fetch(ctx, i, 1, s.grid.Sort)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return s.Select(ctx, nil)
	}
	return s.Select(ctx, rows[0])
}

// SelectLastOrFirst selects candidate when given, else row 0, else nothing.
func (s *Selection[T]) SelectLastOrFirst(ctx context.Context, candidate *T) error {
	if candidate != nil {
		return s.Select(ctx, candidate)
	}
	return s.SelectByIndex(ctx, 0)
}

// Restore re-reads the session's active id and selects that entity. A
// vanished entity degrades to first-or-none without an error.
func (s *Selection[T]) Restore(ctx context.Context) error {
	id, err := s.session.ActiveID(ctx, s.kind.Name)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", s.kind.Name).Msg("read active id")
		return s.SelectLastOrFirst(ctx, nil)
	}
	if id == "" {
		return s.SelectLastOrFirst(ctx, nil)
	}
	e, err := s.svc.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		s.log.Debug().Str("kind", s.kind.Name).Str("id", id).Msg("active entity gone, falling back")
		return s.SelectLastOrFirst(ctx, nil)
	case err != nil:
		if ferr := s.SelectLastOrFirst(ctx, nil); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}
	return s.SelectLastOrFirst(ctx, e)
}

func (s *Selection[T]) persistActive(ctx context.Context, e *T) {
	id := s.kind.idOf(e)
	if err := s.session.SetActiveID(ctx, s.kind.Name, id); err != nil {
		s.log.Warn().Err(err).Str("kind", s.kind.Name).Str("id", id).Msg("write active id")
	}
}
