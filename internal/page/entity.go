package page

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FieldKind selects how a field is edited and checked.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldInt
	FieldChoice
	FieldMultiline
)

// Constraints are the structural checks run before a save.
type Constraints struct {
	Required bool
	MaxLen   int
	// Min and Max bound FieldInt values when Bounded is set.
	Bounded  bool
	Min, Max int64
	Choices  []string
	Pattern  *regexp.Regexp
	// PatternHint is shown when Pattern does not match.
	PatternHint string
}

// Field is one row of an entity's field table.
type Field[T any] struct {
	Name        string
	Label       string
	Kind        FieldKind
	Constraints Constraints
	Get         func(*T) string
	Set         func(*T, string) error
}

// Check validates a raw form value against the field's constraints.
func (f Field[T]) Check(value string) error {
	c := f.Constraints
	v := strings.TrimSpace(value)
	if v == "" {
		if c.Required {
			return fmt.Errorf("%s is required", f.Label)
		}
		return nil
	}
	if c.MaxLen > 0 && utf8.RuneCountInString(v) > c.MaxLen {
		return fmt.Errorf("%s exceeds %d characters", f.Label, c.MaxLen)
	}
	switch f.Kind {
	case FieldInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be a whole number", f.Label)
		}
		if c.Bounded && (n < c.Min || n > c.Max) {
			return fmt.Errorf("%s must be between %d and %d", f.Label, c.Min, c.Max)
		}
	case FieldChoice:
		ok := false
		for _, choice := range c.Choices {
			if choice == v {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s must be one of %s", f.Label, strings.Join(c.Choices, ", "))
		}
	}
	if c.Pattern != nil && !c.Pattern.MatchString(v) {
		if c.PatternHint != "" {
			return fmt.Errorf("%s %s", f.Label, c.PatternHint)
		}
		return fmt.Errorf("%s has an invalid format", f.Label)
	}
	return nil
}

// RelationCopier deep-copies one child collection from src to dst.
type RelationCopier[T any] struct {
	Name string
	Copy func(dst, src *T)
}

// Kind describes an entity type to the page.
type Kind[T any] struct {
	// Name keys the session's active id.
	Name      string
	Fields    []Field[T]
	Relations []RelationCopier[T]
	// ID returns "" until the entity has been saved.
	ID func(*T) string
	// Label is used in notices; defaults to the id.
	Label func(*T) string
	// Copy returns a deep copy, identity and revision included.
	Copy func(*T) *T
}

// Field looks up a field by name.
func (k *Kind[T]) Field(name string) (Field[T], bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

func (k *Kind[T]) idOf(e *T) string {
	if e == nil {
		return ""
	}
	return k.ID(e)
}

func (k *Kind[T]) labelOf(e *T) string {
	if e == nil {
		return ""
	}
	if k.Label != nil {
		if l := k.Label(e); l != "" {
			return l
		}
	}
	if id := k.ID(e); id != "" {
		return id
	}
	return "new " + k.Name
}

// Column is one list column supplied by the host.
type Column[T any] struct {
	Key   string
	Title string
	Width int
	// SortField is the backend sort property; empty means not sortable.
	SortField string
	Value     func(*T) string
}

// CloneOptions selects which field groups a clone copies.
type CloneOptions struct {
	Fields    bool
	Relations bool
}

// Clone copies the groups selected by opts from src into fresh, which must
// be an unsaved instance from the service factory. Field setter failures
// are returned as a ValidationError alongside the partially copied entity.
func Clone[T any](k *Kind[T], fresh, src *T, opts CloneOptions) (*T, error) {
	var errs []FieldError
	if opts.Fields {
		for _, f := range k.Fields {
			if err := f.Set(fresh, f.Get(src)); err != nil {
				errs = append(errs, FieldError{Field: f.Name, Message: err.Error()})
			}
		}
	}
	if opts.Relations {
		for _, r := range k.Relations {
			r.Copy(fresh, src)
		}
	}
	if len(errs) > 0 {
		return fresh, &ValidationError{Fields: errs}
	}
	return fresh, nil
}
