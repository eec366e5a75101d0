package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/entitypages/internal/database/repository"
	"github.com/jask/entitypages/internal/page"
	"github.com/jask/entitypages/internal/store/memory"
)

// SQLService persists accounts in sqlite.
type SQLService struct {
	Accounts *repository.AccountRepo
	log      zerolog.Logger
}

func NewSQLService(db *sql.DB, log zerolog.Logger) *SQLService {
	return &SQLService{Accounts: repository.NewAccountRepo(db), log: log}
}

var _ page.EntityService[Account] = (*SQLService)(nil)

func (s *SQLService) List(ctx context.Context, q page.PageQuery, search string) (page.Window[Account], error) {
	rq := repository.AccountQuery{Search: search, Limit: q.Limit, Offset: q.Offset}
	for _, o := range q.Sort {
		rq.Sort = append(rq.Sort, repository.SortField{Column: o.Field, Desc: o.Direction == page.Descending})
	}
	rows, total, err := s.Accounts.List(ctx, rq)
	if err != nil {
		return page.Window[Account]{}, err
	}
	w := page.Window[Account]{Total: total, Items: make([]*Account, 0, len(rows))}
	for _, r := range rows {
		w.Items = append(w.Items, fromRow(r))
	}
	return w, nil
}

func (s *SQLService) GetByID(ctx context.Context, id string) (*Account, error) {
	r, err := s.Accounts.Get(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, id)
	}
	return fromRow(*r), nil
}

// Save inserts accounts without an id and updates the rest with a revision
// check. Aliases without an id get one.
func (s *SQLService) Save(ctx context.Context, a *Account) (*Account, error) {
	row := toRow(a)
	if row.ID == "" {
		row.ID = uuid.NewString()
		if err := s.Accounts.Insert(ctx, row); err != nil {
			return nil, err
		}
		s.log.Debug().Str("id", row.ID).Msg("account inserted")
	} else if err := s.Accounts.Update(ctx, row); err != nil {
		return nil, mapRepoErr(err, row.ID)
	}
	return s.GetByID(ctx, row.ID)
}

func (s *SQLService) Delete(ctx context.Context, a *Account) error {
	if err := s.Accounts.Delete(ctx, a.ID); err != nil {
		return mapRepoErr(err, a.ID)
	}
	return nil
}

func (s *SQLService) NewEntity(name string) *Account { return New(name) }

// OnBeforeSave refuses locked accounts.
func (s *SQLService) OnBeforeSave(a *Account) bool { return !a.Locked }

func mapRepoErr(err error, id string) error {
	var stale *repository.StaleRevisionError
	switch {
	case errors.As(err, &stale):
		return &page.ConflictError{ID: stale.ID, Expected: stale.Expected, Actual: stale.Actual}
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", page.ErrNotFound, id)
	}
	return err
}

func toRow(a *Account) repository.Account {
	row := repository.Account{
		ID:           a.ID,
		Name:         a.Name,
		Institution:  a.Institution,
		AccountType:  a.AccountType,
		Currency:     a.Currency,
		OpeningCents: a.OpeningCents,
		Notes:        a.Notes,
		Locked:       a.Locked,
		Revision:     a.Revision,
	}
	for i, al := range a.Aliases {
		id := al.ID
		if id == "" {
			id = uuid.NewString()
		}
		row.Aliases = append(row.Aliases, repository.Alias{ID: id, AccountID: a.ID, Pattern: al.Pattern, Position: i})
	}
	return row
}

func fromRow(r repository.Account) *Account {
	a := &Account{
		ID:           r.ID,
		Name:         r.Name,
		Institution:  r.Institution,
		AccountType:  r.AccountType,
		Currency:     r.Currency,
		OpeningCents: r.OpeningCents,
		Notes:        r.Notes,
		Locked:       r.Locked,
		Revision:     r.Revision,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, al := range r.Aliases {
		a.Aliases = append(a.Aliases, Alias{ID: al.ID, Pattern: al.Pattern})
	}
	return a
}

// NewMemoryService returns an in-memory account service.
func NewMemoryService() *memory.Service[Account] {
	return memory.New(memory.Accessors[Account]{
		ID:          func(a *Account) string { return a.ID },
		SetID:       func(a *Account, id string) { a.ID = id },
		Revision:    func(a *Account) int64 { return a.Revision },
		SetRevision: func(a *Account, r int64) { a.Revision = r },
		Copy:        Copy,
		New:         New,
		Text: func(a *Account) []string {
			out := []string{a.Name, a.Institution, a.Notes}
			for _, al := range a.Aliases {
				out = append(out, al.Pattern)
			}
			return out
		},
		Compare:    compare,
		BeforeSave: func(a *Account) bool { return !a.Locked },
	})
}

func compare(a, b *Account, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "institution":
		return strings.Compare(strings.ToLower(a.Institution), strings.ToLower(b.Institution))
	case "account_type":
		return strings.Compare(a.AccountType, b.AccountType)
	case "currency":
		return strings.Compare(a.Currency, b.Currency)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}
