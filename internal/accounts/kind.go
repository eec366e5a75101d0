package accounts

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/entitypages/internal/page"
)

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// Kind returns the account field table.
func Kind() *page.Kind[Account] {
	return &page.Kind[Account]{
		Name: KindName,
		Fields: []page.Field[Account]{
			{
				Name: "name", Label: "Name", Kind: page.FieldText,
				Constraints: page.Constraints{Required: true, MaxLen: 80},
				Get:         func(a *Account) string { return a.Name },
				Set:         func(a *Account, v string) error { a.Name = strings.TrimSpace(v); return nil },
			},
			{
				Name: "institution", Label: "Institution", Kind: page.FieldText,
				Constraints: page.Constraints{MaxLen: 80},
				Get:         func(a *Account) string { return a.Institution },
				Set:         func(a *Account, v string) error { a.Institution = strings.TrimSpace(v); return nil },
			},
			{
				Name: "account_type", Label: "Type", Kind: page.FieldChoice,
				Constraints: page.Constraints{Required: true, Choices: Types},
				Get:         func(a *Account) string { return a.AccountType },
				Set:         func(a *Account, v string) error { a.AccountType = strings.TrimSpace(v); return nil },
			},
			{
				Name: "currency", Label: "Currency", Kind: page.FieldText,
				Constraints: page.Constraints{Required: true, Pattern: currencyPattern, PatternHint: "must be a 3 letter code"},
				Get:         func(a *Account) string { return a.Currency },
				Set: func(a *Account, v string) error {
					a.Currency = strings.ToUpper(strings.TrimSpace(v))
					return nil
				},
			},
			{
				Name: "opening", Label: "Opening balance (cents)", Kind: page.FieldInt,
				Constraints: page.Constraints{Bounded: true, Min: -MaxOpeningCents, Max: MaxOpeningCents},
				Get: func(a *Account) string { return strconv.FormatInt(a.OpeningCents, 10) },
				Set: func(a *Account, v string) error {
					v = strings.TrimSpace(v)
					if v == "" {
						a.OpeningCents = 0
						return nil
					}
					n, err := strconv.ParseInt(v, 10, 64)
					if err != nil {
						return fmt.Errorf("opening balance must be a whole number of cents")
					}
					a.OpeningCents = n
					return nil
				},
			},
			{
				Name: "notes", Label: "Notes", Kind: page.FieldMultiline,
				Constraints: page.Constraints{MaxLen: 500},
				Get:         func(a *Account) string { return a.Notes },
				Set:         func(a *Account, v string) error { a.Notes = v; return nil },
			},
		},
		Relations: []page.RelationCopier[Account]{
			{Name: "aliases", Copy: func(dst, src *Account) {
				dst.Aliases = dst.Aliases[:0]
				for _, al := range src.Aliases {
					dst.Aliases = append(dst.Aliases, Alias{ID: uuid.NewString(), Pattern: al.Pattern})
				}
			}},
		},
		ID:    func(a *Account) string { return a.ID },
		Label: func(a *Account) string { return a.Name },
		Copy:  Copy,
	}
}

// Columns are the account list columns.
func Columns() []page.Column[Account] {
	return []page.Column[Account]{
		{Key: "name", Title: "Name", Width: 24, SortField: "name", Value: func(a *Account) string { return a.Name }},
		{Key: "institution", Title: "Institution", Width: 18, SortField: "institution", Value: func(a *Account) string { return a.Institution }},
		{Key: "type", Title: "Type", Width: 10, SortField: "account_type", Value: func(a *Account) string { return a.AccountType }},
		{Key: "currency", Title: "Cur", Width: 4, SortField: "currency", Value: func(a *Account) string { return a.Currency }},
	}
}

// Validate runs the cross-field checks the field table cannot express.
func Validate(a *Account) []page.FieldError {
	var errs []page.FieldError
	if a.AccountType == TypeCredit && a.OpeningCents > 0 {
		errs = append(errs, page.FieldError{Field: "opening", Message: "credit accounts cannot open in credit"})
	}
	seen := map[string]bool{}
	for _, al := range a.Aliases {
		p := strings.ToLower(strings.TrimSpace(al.Pattern))
		if p == "" {
			errs = append(errs, page.FieldError{Field: "aliases", Message: "alias pattern is required"})
			continue
		}
		if seen[p] {
			errs = append(errs, page.FieldError{Field: "aliases", Message: fmt.Sprintf("duplicate alias %q", al.Pattern)})
		}
		seen[p] = true
	}
	return errs
}

// Hooks are the account page hooks.
func Hooks() page.Hooks[Account] {
	return page.Hooks[Account]{ValidateEntityForSave: Validate}
}

// Sections are the account detail panels.
type Sections struct {
	Details  *page.FieldSection[Account]
	Balances *page.FieldSection[Account]
	Aliases  *page.RelationPanel[Account, Alias]
}

// NewSections builds the detail panels. Alias edits are persisted through svc.
func NewSections(svc page.EntityService[Account], form page.ChildForm[Alias]) *Sections {
	return &Sections{
		Details:  page.NewFieldSection[Account]("details", "Details", "name", "institution", "account_type"),
		Balances: page.NewFieldSection[Account]("balances", "Balances", "currency", "opening", "notes"),
		Aliases: page.NewRelationPanel(page.RelationConfig[Account, Alias]{
			Name:  "aliases",
			Title: "Aliases",
			Columns: []page.Column[Alias]{
				{Key: "pattern", Title: "Pattern", Width: 30, Value: func(al *Alias) string { return al.Pattern }},
			},
			Get: func(a *Account) []Alias { return a.Aliases },
			Set: func(a *Account, al []Alias) { a.Aliases = al },
			BeforePersist: svc.OnBeforeSave,
			Persist: func(ctx context.Context, a *Account) (*Account, error) {
				if errs := Validate(a); len(errs) > 0 {
					return nil, &page.ValidationError{Fields: errs}
				}
				return svc.Save(ctx, a)
			},
			Key:   func(al Alias) string { return al.ID },
			New:   func() Alias { return Alias{ID: uuid.NewString()} },
			Label: func(al Alias) string { return al.Pattern },
			Form:  form,
		}),
	}
}

// All lists the panels in display order.
func (s *Sections) All() []page.DetailSection[Account] {
	return []page.DetailSection[Account]{s.Details, s.Balances, s.Aliases}
}
