package page

import (
	"context"
	"fmt"
)

// Commands are the page actions a section may trigger.
type Commands struct {
	Save   func()
	Cancel func()
	Delete func()
}

// SectionContext is handed to each section once, at Init.
type SectionContext[T any] struct {
	Kind      *Kind[T]
	Commands  Commands
	Notifier  Notifier
	Confirmer Confirmer
	// Adopt replaces the current entity with a copy the section persisted itself.
	Adopt func(ctx context.Context, saved *T)
}

// DetailSection is one panel of the detail view. Init builds the panel from
// type metadata and runs once; Populate rebinds it to an entity, or clears
// it for nil, and may run any number of times.
type DetailSection[T any] interface {
	Name() string
	Init(sc SectionContext[T]) error
	Initialized() bool
	Populate(e *T)
}

// Binder is implemented by sections holding editable form values.
type Binder[T any] interface {
	WriteBack(e *T) []FieldError
}

// Rebinder is implemented by sections that can follow a new copy of the
// same entity without reloading their inputs.
type Rebinder[T any] interface {
	Rebind(e *T)
}

// Registry is the ordered set of detail sections bound to the current entity.
type Registry[T any] struct {
	sections []DetailSection[T]
	current  *T
}

func NewRegistry[T any](sections ...DetailSection[T]) *Registry[T] {
	return &Registry[T]{sections: append([]DetailSection[T](nil), sections...)}
}

// Add appends a section.
func (r *Registry[T]) Add(s DetailSection[T]) { r.sections = append(r.sections, s) }

func (r *Registry[T]) Sections() []DetailSection[T] { return r.sections }

// Section looks a section up by name.
func (r *Registry[T]) Section(name string) (DetailSection[T], bool) {
	for _, s := range r.sections {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Current is the entity every section is bound to.
func (r *Registry[T]) Current() *T { return r.current }

// Init initializes sections that have not been initialized yet.
func (r *Registry[T]) Init(sc SectionContext[T]) error {
	for _, s := range r.sections {
		if s.Initialized() {
			continue
		}
		if err := s.Init(sc); err != nil {
			return fmt.Errorf("init section %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Populate binds every section to e, or clears them all for nil. No
// section is touched unless all of them are initialized.
func (r *Registry[T]) Populate(e *T) error {
	for _, s := range r.sections {
		if !s.Initialized() {
			return fmt.Errorf("%w: %s", ErrSectionNotInitialized, s.Name())
		}
	}
	r.current = e
	for _, s := range r.sections {
		s.Populate(e)
	}
	return nil
}

// Rebind points every section at e, a newer copy of the current entity,
// keeping unsaved input values where sections support it.
func (r *Registry[T]) Rebind(e *T) {
	r.current = e
	for _, s := range r.sections {
		if rb, ok := s.(Rebinder[T]); ok {
			rb.Rebind(e)
			continue
		}
		s.Populate(e)
	}
}

// WriteBack writes every bound form value into e.
func (r *Registry[T]) WriteBack(e *T) error {
	var errs []FieldError
	for _, s := range r.sections {
		if b, ok := s.(Binder[T]); ok {
			errs = append(errs, b.WriteBack(e)...)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// SetValue edits one bound input.
func (r *Registry[T]) SetValue(section, field, value string) error {
	s, ok := r.Section(section)
	if !ok {
		return fmt.Errorf("no section %q", section)
	}
	fs, ok := s.(*FieldSection[T])
	if !ok {
		return fmt.Errorf("section %q has no form fields", section)
	}
	if !fs.SetValue(field, value) {
		return fmt.Errorf("section %q has no field %q", section, field)
	}
	return nil
}

// Snapshot returns every bound input value keyed "section.field".
func (r *Registry[T]) Snapshot() map[string]string {
	out := map[string]string{}
	for _, s := range r.sections {
		fs, ok := s.(*FieldSection[T])
		if !ok || !fs.Initialized() {
			continue
		}
		for k, v := range fs.form.Values() {
			out[s.Name()+"."+k] = v
		}
	}
	return out
}

// FieldSection is a form panel over a subset of the entity's fields.
type FieldSection[T any] struct {
	name   string
	Title  string
	fields []string

	form        *Form[T]
	entity      *T
	cmds        Commands
	initialized bool
}

// NewFieldSection declares a section; the form is built at Init.
func NewFieldSection[T any](name, title string, fields ...string) *FieldSection[T] {
	return &FieldSection[T]{name: name, Title: title, fields: fields}
}

func (s *FieldSection[T]) Name() string { return s.name }

func (s *FieldSection[T]) Init(sc SectionContext[T]) error {
	form, err := BuildForm(sc.Kind, s.fields...)
	if err != nil {
		return err
	}
	s.form = form
	s.cmds = sc.Commands
	s.initialized = true
	return nil
}

func (s *FieldSection[T]) Initialized() bool { return s.initialized }

func (s *FieldSection[T]) Populate(e *T) {
	if !s.initialized {
		return
	}
	s.entity = e
	s.form.Load(e)
}

func (s *FieldSection[T]) Rebind(e *T) { s.entity = e }

func (s *FieldSection[T]) WriteBack(e *T) []FieldError { return s.form.Apply(e) }

// Empty reports whether the section shows the empty state.
func (s *FieldSection[T]) Empty() bool { return s.entity == nil }

func (s *FieldSection[T]) Entity() *T { return s.entity }

func (s *FieldSection[T]) Form() *Form[T] { return s.form }

func (s *FieldSection[T]) Commands() Commands { return s.cmds }

func (s *FieldSection[T]) SetValue(field, value string) bool {
	if !s.initialized {
		return false
	}
	in, ok := s.form.Input(field)
	if !ok {
		return false
	}
	in.Value = value
	return true
}

func (s *FieldSection[T]) Value(field string) string {
	if !s.initialized {
		return ""
	}
	if in, ok := s.form.Input(field); ok {
		return in.Value
	}
	return ""
}
