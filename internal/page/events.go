package page

import "context"

// SelectionEvent is fired whenever the current entity changes.
type SelectionEvent[T any] struct {
	Entity *T
	ID     string
}

// Action is what happened to an entity in a ChangeEvent.
type Action string

const (
	ActionSaved   Action = "saved"
	ActionDeleted Action = "deleted"
)

// ChangeEvent is emitted after a successful save or delete so other page
// instances of the same kind can refresh.
type ChangeEvent struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Action Action `json:"action"`
	Origin string `json:"origin,omitempty"`
}

// EventSink receives change events.
type EventSink interface {
	Emit(ctx context.Context, ev ChangeEvent) error
}

type nopSink struct{}

func (nopSink) Emit(context.Context, ChangeEvent) error { return nil }

// listeners is an ordered subscription list owned by one component.
type listeners[E any] struct {
	next int
	subs []subscriber[E]
}

type subscriber[E any] struct {
	id int
	fn func(E)
}

// subscribe registers fn and returns the matching unsubscribe func.
func (l *listeners[E]) subscribe(fn func(E)) func() {
	l.next++
	id := l.next
	l.subs = append(l.subs, subscriber[E]{id: id, fn: fn})
	return func() {
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners[E]) fire(e E) {
	// copy so a listener may unsubscribe while being called
	subs := append([]subscriber[E](nil), l.subs...)
	for _, s := range subs {
		s.fn(e)
	}
}

func (l *listeners[E]) len() int { return len(l.subs) }
