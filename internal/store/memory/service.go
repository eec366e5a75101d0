// Package memory is an in-process EntityService used by tests and by the
// --memory mode of the TUI.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/jask/entitypages/internal/page"
)

// fuzzyMinLen is the shortest search term matched by edit distance.
const fuzzyMinLen = 4

// Accessors tell the service how to handle T.
type Accessors[T any] struct {
	ID          func(*T) string
	SetID       func(*T, string)
	Revision    func(*T) int64
	SetRevision func(*T, int64)
	Copy        func(*T) *T
	New         func(name string) *T
	// Text returns the values search matches against.
	Text func(*T) []string
	// Compare orders a and b by a backend sort property.
	Compare func(a, b *T, field string) int
	// BeforeSave is the business-rule veto; nil allows every save.
	BeforeSave func(*T) bool
}

// Service stores entities in memory with revision checks on update.
type Service[T any] struct {
	acc Accessors[T]

	mu    sync.Mutex
	items map[string]*T
	order []string
}

func New[T any](acc Accessors[T]) *Service[T] {
	return &Service[T]{acc: acc, items: map[string]*T{}}
}

var _ page.EntityService[struct{}] = (*Service[struct{}])(nil)

func (s *Service[T]) List(_ context.Context, q page.PageQuery, search string) (page.Window[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToLower(strings.TrimSpace(search))
	matched := make([]*T, 0, len(s.order))
	for _, id := range s.order {
		e := s.items[id]
		if term == "" || s.matches(e, term) {
			matched = append(matched, e)
		}
	}
	if len(q.Sort) > 0 && s.acc.Compare != nil {
		slices.SortStableFunc(matched, func(a, b *T) int {
			for _, o := range q.Sort {
				c := s.acc.Compare(a, b, o.Field)
				if o.Direction == page.Descending {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	w := page.Window[T]{Total: int64(len(matched))}
	start := min(max(q.Offset, 0), len(matched))
	end := min(start+max(q.Limit, 1), len(matched))
	for _, e := range matched[start:end] {
		w.Items = append(w.Items, s.acc.Copy(e))
	}
	return w, nil
}

func (s *Service[T]) matches(e *T, term string) bool {
	for _, text := range s.acc.Text(e) {
		lower := strings.ToLower(text)
		if strings.Contains(lower, term) {
			return true
		}
		if len(term) < fuzzyMinLen {
			continue
		}
		for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
			if levenshtein.ComputeDistance(word, term) <= 1 {
				return true
			}
		}
	}
	return false
}

func (s *Service[T]) GetByID(_ context.Context, id string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", page.ErrNotFound, id)
	}
	return s.acc.Copy(e), nil
}

// Save inserts entities without identity and updates the rest when their
// revision matches the stored one.
func (s *Service[T]) Save(_ context.Context, e *T) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.acc.Copy(e)
	id := s.acc.ID(e)
	if id == "" {
		id = uuid.NewString()
		s.acc.SetID(stored, id)
		s.acc.SetRevision(stored, 1)
		s.items[id] = stored
		s.order = append(s.order, id)
		return s.acc.Copy(stored), nil
	}
	cur, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", page.ErrNotFound, id)
	}
	if want, got := s.acc.Revision(e), s.acc.Revision(cur); want != got {
		return nil, &page.ConflictError{ID: id, Expected: want, Actual: got}
	}
	s.acc.SetRevision(stored, s.acc.Revision(cur)+1)
	s.items[id] = stored
	return s.acc.Copy(stored), nil
}

func (s *Service[T]) Delete(_ context.Context, e *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.acc.ID(e)
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", page.ErrNotFound, id)
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *Service[T]) NewEntity(name string) *T { return s.acc.New(name) }

func (s *Service[T]) OnBeforeSave(e *T) bool {
	return s.acc.BeforeSave == nil || s.acc.BeforeSave(e)
}

// Len reports how many entities are stored.
func (s *Service[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
