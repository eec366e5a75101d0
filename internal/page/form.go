package page

import "fmt"

// Input is one bound form field.
type Input[T any] struct {
	Field Field[T]
	Value string
	Err   string
}

// Form is an ordered set of inputs built from a field table.
type Form[T any] struct {
	inputs []*Input[T]
}

// BuildForm builds a form for the named fields of k, or for all of them
// when names is empty.
func BuildForm[T any](k *Kind[T], names ...string) (*Form[T], error) {
	f := &Form[T]{}
	if len(names) == 0 {
		for _, fd := range k.Fields {
			f.inputs = append(f.inputs, &Input[T]{Field: fd})
		}
		return f, nil
	}
	for _, n := range names {
		fd, ok := k.Field(n)
		if !ok {
			return nil, fmt.Errorf("build form: %s has no field %q", k.Name, n)
		}
		f.inputs = append(f.inputs, &Input[T]{Field: fd})
	}
	return f, nil
}

func (f *Form[T]) Inputs() []*Input[T] { return f.inputs }

func (f *Form[T]) Input(name string) (*Input[T], bool) {
	for _, in := range f.inputs {
		if in.Field.Name == name {
			return in, true
		}
	}
	return nil, false
}

// Load binds the form to e's in-memory values. nil clears every input.
func (f *Form[T]) Load(e *T) {
	for _, in := range f.inputs {
		in.Err = ""
		if e == nil {
			in.Value = ""
			continue
		}
		in.Value = in.Field.Get(e)
	}
}

// Apply checks every input and writes the valid ones into e. Input values
// are never modified; failing inputs get their Err set.
func (f *Form[T]) Apply(e *T) []FieldError {
	var errs []FieldError
	for _, in := range f.inputs {
		in.Err = ""
		if err := in.Field.Check(in.Value); err != nil {
			in.Err = err.Error()
			errs = append(errs, FieldError{Field: in.Field.Name, Message: in.Err})
			continue
		}
		if err := in.Field.Set(e, in.Value); err != nil {
			in.Err = err.Error()
			errs = append(errs, FieldError{Field: in.Field.Name, Message: in.Err})
		}
	}
	return errs
}

// Values returns the raw input values keyed by field name.
func (f *Form[T]) Values() map[string]string {
	out := make(map[string]string, len(f.inputs))
	for _, in := range f.inputs {
		out[in.Field.Name] = in.Value
	}
	return out
}
