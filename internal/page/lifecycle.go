package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of the current entity.
type State int

const (
	StateUnbound State = iota
	StateNew
	StateSaved
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateSaved:
		return "saved"
	case StateDirty:
		return "dirty"
	default:
		return "unbound"
	}
}

// Outcome is the result of a save attempt.
type Outcome int

const (
	OutcomeSaved Outcome = iota
	OutcomeVetoed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeVetoed:
		return "vetoed"
	default:
		return "failed"
	}
}

// Hooks are the overridable page hooks. Nil fields use the defaults:
// OnBeforeSave allows, OnClonedItem loads the clone as a new entity,
// ValidateEntityForSave finds nothing.
type Hooks[T any] struct {
	OnBeforeSave          func(e *T) bool
	OnClonedItem          func(ctx context.Context, clone *T)
	ValidateEntityForSave func(e *T) []FieldError
}

// Lifecycle owns create, save, delete, clone and cancel for the current entity.
type Lifecycle[T any] struct {
	kind      *Kind[T]
	svc       EntityService[T]
	sel       *Selection[T]
	registry  *Registry[T]
	notifier  Notifier
	confirmer Confirmer
	sink      EventSink
	hooks     Hooks[T]
	refresh   func(ctx context.Context) error
	grid      *Grid[T]
	log       zerolog.Logger

	state State
}

func (l *Lifecycle[T]) track() {
	l.sel.Subscribe(func(ev SelectionEvent[T]) {
		switch {
		case ev.Entity == nil:
			l.state = StateUnbound
		case ev.ID == "":
			l.state = StateNew
		default:
			l.state = StateSaved
		}
	})
}

// State reports the lifecycle state.
func (l *Lifecycle[T]) State() State { return l.state }

// MarkDirty records an edit to a bound field of a saved entity.
func (l *Lifecycle[T]) MarkDirty() {
	if l.state == StateSaved {
		l.state = StateDirty
	}
}

// Create replaces the current entity with a fresh unsaved one and binds the form to it.
func (l *Lifecycle[T]) Create(_ context.Context, name string) (*T, error) {
	e := l.svc.NewEntity(name)
	if err := l.LoadNew(e); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadNew binds an unsaved entity, such as a clone, as the current one.
func (l *Lifecycle[T]) LoadNew(e *T) error {
	return l.sel.bindUnsaved(e)
}

// Save validates and persists the current entity. A veto returns
// OutcomeVetoed with no notice. Every failure is notified and returned as
// a *SaveError, and leaves the form and the current entity as they were.
func (l *Lifecycle[T]) Save(ctx context.Context) (Outcome, error) {
	if l.sel.Current() == nil {
		if _, err := l.Create(ctx, ""); err != nil {
			return OutcomeFailed, err
		}
	}
	cur := l.sel.Current()
	if !l.svc.OnBeforeSave(cur) || (l.hooks.OnBeforeSave != nil && !l.hooks.OnBeforeSave(cur)) {
		l.log.Debug().Str("kind", l.kind.Name).Str("id", l.kind.idOf(cur)).Msg("save vetoed")
		return OutcomeVetoed, nil
	}

	work := l.kind.Copy(cur)
	if err := l.validate(work); err != nil {
		return l.saveFailed(err)
	}
	saved, err := l.svc.Save(ctx, work)
	if err != nil {
		return l.saveFailed(err)
	}

	id := l.kind.idOf(saved)
	if err := l.refresh(ctx); err != nil {
		l.log.Error().Err(err).Str("kind", l.kind.Name).Msg("refresh after save")
	}
	if i := l.grid.IndexOf(id); i >= 0 {
		saved = l.grid.Rows[i]
	}
	if err := l.sel.Select(ctx, saved); err != nil {
		return OutcomeFailed, err
	}
	l.emit(ctx, ActionSaved, id)
	l.notifier.Notify(Notice{Level: LevelSuccess, Title: "Saved " + l.kind.labelOf(saved)})
	l.log.Info().Str("kind", l.kind.Name).Str("id", id).Msg("saved")
	return OutcomeSaved, nil
}

func (l *Lifecycle[T]) validate(work *T) error {
	if err := l.registry.WriteBack(work); err != nil {
		return err
	}
	if l.hooks.ValidateEntityForSave != nil {
		if errs := l.hooks.ValidateEntityForSave(work); len(errs) > 0 {
			return &ValidationError{Fields: errs}
		}
	}
	return nil
}

func (l *Lifecycle[T]) saveFailed(err error) (Outcome, error) {
	se := classifySaveError(err)
	l.log.Warn().Err(err).Str("kind", l.kind.Name).Stringer("failure", se.Kind).Msg("save failed")
	l.notifier.Notify(noticeFor(se, l.kind.Name))
	return OutcomeFailed, se
}

// Delete asks for confirmation and, once confirmed, deletes the current
// entity and falls back to the first remaining row. The deletion itself
// may run after Delete returns, whenever the Confirmer calls back.
func (l *Lifecycle[T]) Delete(ctx context.Context) error {
	cur := l.sel.Current()
	if cur == nil {
		return ErrNoSelection
	}
	if l.kind.idOf(cur) == "" {
		l.notifier.Notify(Notice{Level: LevelInfo, Title: "Nothing to delete", Message: "This " + l.kind.Name + " has not been saved."})
		return ErrNotPersisted
	}
	prompt := fmt.Sprintf("Delete %s?", l.kind.labelOf(cur))
	l.confirmer.Confirm(prompt, func() { l.deleteConfirmed(ctx, cur) }, nil)
	return nil
}

func (l *Lifecycle[T]) deleteConfirmed(ctx context.Context, e *T) {
	id := l.kind.idOf(e)
	err := l.svc.Delete(ctx, e)
	if err != nil && !errors.Is(err, ErrNotFound) {
		l.log.Error().Err(err).Str("kind", l.kind.Name).Str("id", id).Msg("delete failed")
		l.notifier.Notify(Notice{
			Level:    LevelError,
			Title:    "Could not delete " + l.kind.labelOf(e),
			Message:  err.Error(),
			Blocking: true,
		})
		return
	}
	if err := l.sel.Select(ctx, nil); err != nil {
		l.log.Error().Err(err).Msg("clear selection after delete")
	}
	if err := l.refresh(ctx); err != nil {
		l.log.Error().Err(err).Str("kind", l.kind.Name).Msg("refresh after delete")
	}
	if err := l.sel.SelectLastOrFirst(ctx, nil); err != nil {
		l.log.Error().Err(err).Msg("select after delete")
	}
	l.emit(ctx, ActionDeleted, id)
	l.notifier.Notify(Notice{Level: LevelSuccess, Title: "Deleted " + l.kind.labelOf(e)})
	l.log.Info().Str("kind", l.kind.Name).Str("id", id).Msg("deleted")
}

// Cancel discards in-memory edits by restoring the last persisted selection.
func (l *Lifecycle[T]) Cancel(ctx context.Context) error {
	return l.sel.Restore(ctx)
}

// Clone copies the current entity's selected groups into a fresh unsaved
// instance and hands it to OnClonedItem. It neither persists nor selects
// the clone itself.
func (l *Lifecycle[T]) Clone(ctx context.Context, opts CloneOptions) error {
	cur := l.sel.Current()
	if cur == nil {
		return ErrNoSelection
	}
	clone, err := Clone(l.kind, l.svc.NewEntity(""), cur, opts)
	if err != nil {
		l.notifier.Notify(Notice{Level: LevelError, Title: "Could not clone " + l.kind.labelOf(cur), Message: err.Error(), Blocking: true})
		return err
	}
	if l.hooks.OnClonedItem != nil {
		l.hooks.OnClonedItem(ctx, clone)
		return nil
	}
	return l.LoadNew(clone)
}

func (l *Lifecycle[T]) emit(ctx context.Context, action Action, id string) {
	ev := ChangeEvent{Kind: l.kind.Name, ID: id, Action: action}
	if err := l.sink.Emit(ctx, ev); err != nil {
		l.log.Warn().Err(err).Str("kind", ev.Kind).Str("action", string(action)).Msg("emit change")
	}
}
