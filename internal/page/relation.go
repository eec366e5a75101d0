package page

import (
	"context"
	"fmt"
)

// RelationConfig wires a RelationPanel to a child collection of T.
type RelationConfig[T, C any] struct {
	Name  string
	Title string
	// Columns render the child grid.
	Columns []Column[C]
	// Get returns the parent's current children.
	Get func(*T) []C
	// Set replaces the parent's children wholesale.
	Set func(*T, []C)
	// BeforePersist is the business-rule veto for the parent; false aborts
	// the change silently. Nil allows every change.
	BeforePersist func(parent *T) bool
	// Persist writes the parent through the entity service and returns the
	// authoritative copy.
	Persist func(ctx context.Context, parent *T) (*T, error)
	// Key identifies a child within the collection.
	Key func(C) string
	// New returns a blank child for the add form.
	New func() C
	// Label names a child in prompts; defaults to Key.
	Label func(C) string
	Form  ChildForm[C]
}

// RelationPanel edits a one-to-many child collection of the current
// entity. Every change goes get, modify, set, persist, refresh, so the
// rows shown always come from the last persisted parent.
type RelationPanel[T, C any] struct {
	cfg RelationConfig[T, C]

	kind        *Kind[T]
	notifier    Notifier
	confirmer   Confirmer
	adopt       func(ctx context.Context, saved *T)
	initialized bool

	parent *T
	rows   []C
}

func NewRelationPanel[T, C any](cfg RelationConfig[T, C]) *RelationPanel[T, C] {
	if cfg.Label == nil {
		cfg.Label = cfg.Key
	}
	return &RelationPanel[T, C]{cfg: cfg}
}

func (p *RelationPanel[T, C]) Name() string { return p.cfg.Name }

func (p *RelationPanel[T, C]) Title() string { return p.cfg.Title }

func (p *RelationPanel[T, C]) Columns() []Column[C] { return p.cfg.Columns }

func (p *RelationPanel[T, C]) Init(sc SectionContext[T]) error {
	if p.cfg.Get == nil || p.cfg.Set == nil || p.cfg.Persist == nil || p.cfg.Key == nil {
		return fmt.Errorf("relation %s: get, set, persist and key are required", p.cfg.Name)
	}
	p.kind = sc.Kind
	p.notifier = sc.Notifier
	p.confirmer = sc.Confirmer
	p.adopt = sc.Adopt
	p.initialized = true
	return nil
}

func (p *RelationPanel[T, C]) Initialized() bool { return p.initialized }

// Populate rebuilds the child grid from parent; nil empties it.
func (p *RelationPanel[T, C]) Populate(parent *T) {
	p.parent = parent
	p.rows = nil
	if parent != nil {
		p.rows = append([]C(nil), p.cfg.Get(parent)...)
	}
}

// Rows are the children currently shown.
func (p *RelationPanel[T, C]) Rows() []C { return p.rows }

// Parent is the entity the panel is bound to.
func (p *RelationPanel[T, C]) Parent() *T { return p.parent }

// Add opens the child form for a new child and appends it on confirm.
func (p *RelationPanel[T, C]) Add(ctx context.Context) error {
	if err := p.editable(); err != nil {
		return err
	}
	if p.vetoed(p.parent) {
		return nil
	}
	var blank C
	if p.cfg.New != nil {
		blank = p.cfg.New()
	}
	p.cfg.Form.Open("Add "+p.cfg.Title, blank, func(c C) {
		_ = p.AddChild(ctx, c)
	})
	return nil
}

// Edit opens the child form for the child with key and replaces it on confirm.
func (p *RelationPanel[T, C]) Edit(ctx context.Context, key string) error {
	if err := p.editable(); err != nil {
		return err
	}
	if p.vetoed(p.parent) {
		return nil
	}
	i := p.indexOf(p.rows, key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrChildNotFound, key)
	}
	p.cfg.Form.Open("Edit "+p.cfg.Title, p.rows[i], func(c C) {
		_ = p.ReplaceChild(ctx, c)
	})
	return nil
}

// Delete asks for confirmation, then removes the child with key.
func (p *RelationPanel[T, C]) Delete(ctx context.Context, key string) error {
	if err := p.editable(); err != nil {
		return err
	}
	if p.vetoed(p.parent) {
		return nil
	}
	i := p.indexOf(p.rows, key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrChildNotFound, key)
	}
	prompt := fmt.Sprintf("Remove %s?", p.cfg.Label(p.rows[i]))
	p.confirmer.Confirm(prompt, func() { _ = p.RemoveChild(ctx, key) }, nil)
	return nil
}

// AddChild appends c and persists the parent.
func (p *RelationPanel[T, C]) AddChild(ctx context.Context, c C) error {
	return p.commit(ctx, func(children []C) ([]C, error) {
		return append(children, c), nil
	})
}

// ReplaceChild swaps the child with c's key for c and persists the parent.
func (p *RelationPanel[T, C]) ReplaceChild(ctx context.Context, c C) error {
	key := p.cfg.Key(c)
	return p.commit(ctx, func(children []C) ([]C, error) {
		i := p.indexOf(children, key)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrChildNotFound, key)
		}
		children[i] = c
		return children, nil
	})
}

// RemoveChild drops the child with key and persists the parent.
func (p *RelationPanel[T, C]) RemoveChild(ctx context.Context, key string) error {
	return p.commit(ctx, func(children []C) ([]C, error) {
		i := p.indexOf(children, key)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrChildNotFound, key)
		}
		return append(children[:i], children[i+1:]...), nil
	})
}

func (p *RelationPanel[T, C]) commit(ctx context.Context, modify func([]C) ([]C, error)) error {
	if err := p.editable(); err != nil {
		return err
	}
	if p.vetoed(p.parent) {
		return nil
	}
	work := p.kind.Copy(p.parent)
	children, err := modify(append([]C(nil), p.cfg.Get(work)...))
	if err != nil {
		p.notifier.Notify(Notice{Level: LevelError, Title: "Could not update " + p.cfg.Title, Message: err.Error(), Blocking: true})
		return err
	}
	p.cfg.Set(work, children)
	saved, err := p.cfg.Persist(ctx, work)
	if err != nil {
		se := classifySaveError(err)
		p.notifier.Notify(noticeFor(se, p.kind.Name))
		return se
	}
	if p.adopt != nil {
		p.adopt(ctx, saved)
	}
	// adopt normally repopulates this panel; do it here for hosts without one
	if p.parent != saved {
		p.Populate(saved)
	}
	return nil
}

func (p *RelationPanel[T, C]) editable() error {
	if !p.initialized {
		return fmt.Errorf("%w: %s", ErrSectionNotInitialized, p.cfg.Name)
	}
	if p.parent == nil {
		return ErrNoSelection
	}
	if p.kind.idOf(p.parent) == "" {
		p.notifier.Notify(Notice{Level: LevelInfo, Title: "Save first", Message: "Save this " + p.kind.Name + " before editing " + p.cfg.Title + "."})
		return ErrNotPersisted
	}
	return nil
}

func (p *RelationPanel[T, C]) vetoed(parent *T) bool {
	return p.cfg.BeforePersist != nil && !p.cfg.BeforePersist(parent)
}

func (p *RelationPanel[T, C]) indexOf(children []C, key string) int {
	for i, c := range children {
		if p.cfg.Key(c) == key {
			return i
		}
	}
	return -1
}
