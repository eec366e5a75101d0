package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jask/entitypages/internal/database"
)

// AccountQuery filters and orders an account listing.
type AccountQuery struct {
	Search string
	Sort   []SortField
	Limit  int
	Offset int
}

// SortField is one ORDER BY term, by logical column name.
type SortField struct {
	Column string
	Desc   bool
}

// accountSortColumns whitelists sortable columns.
var accountSortColumns = map[string]string{
	"name":         "name COLLATE NOCASE",
	"institution":  "institution COLLATE NOCASE",
	"account_type": "account_type",
	"currency":     "currency",
	"updated_at":   "updated_at",
}

const accountColumns = `id, name, institution, account_type, currency, opening_cents, notes, locked, revision, created_at, updated_at`

// AccountRepo handles accounts and their aliases.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// List returns one page of accounts and the total matching q.Search. Both
// queries share the WHERE clause and run in one transaction.
func (r *AccountRepo) List(ctx context.Context, q AccountQuery) ([]Account, int64, error) {
	where, args := accountWhere(q.Search)
	var (
		out   []Account
		total int64
	)
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts"+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		query := "SELECT " + accountColumns + " FROM accounts" + where + accountOrder(q.Sort) + " LIMIT ? OFFSET ?"
		rows, err := tx.QueryContext(ctx, query, append(args, max(q.Limit, 1), max(q.Offset, 0))...)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanAccount(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return loadAliases(ctx, tx, out)
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func accountWhere(search string) (string, []interface{}) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	like := "%" + search + "%"
	return ` WHERE (name LIKE ? OR institution LIKE ? OR notes LIKE ?
	 OR EXISTS (SELECT 1 FROM account_aliases al WHERE al.account_id = accounts.id AND al.pattern LIKE ?))`,
		[]interface{}{like, like, like, like}
}

func accountOrder(sort []SortField) string {
	var terms []string
	for _, s := range sort {
		col, ok := accountSortColumns[s.Column]
		if !ok {
			continue
		}
		if s.Desc {
			col += " DESC"
		}
		terms = append(terms, col)
	}
	// id keeps paging stable when sort values tie
	terms = append(terms, "id")
	return " ORDER BY " + strings.Join(terms, ", ")
}

// Get returns the account with id or ErrNotFound.
func (r *AccountRepo) Get(ctx context.Context, id string) (*Account, error) {
	var out *Account
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
		a, err := scanAccount(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		list := []Account{a}
		if err := loadAliases(ctx, tx, list); err != nil {
			return err
		}
		out = &list[0]
		return nil
	})
	return out, err
}

// Insert stores a new account at revision 1.
func (r *AccountRepo) Insert(ctx context.Context, a Account) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
	INSERT INTO accounts(id, name, institution, account_type, currency, opening_cents, notes, locked, revision, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, a.ID, a.Name, a.Institution, a.AccountType, a.Currency, a.OpeningCents, a.Notes, a.Locked)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return replaceAliases(ctx, tx, a.ID, a.Aliases)
	})
}

// Update writes a when a.Revision matches the stored revision and bumps it.
// It returns ErrNotFound or a *StaleRevisionError otherwise.
func (r *AccountRepo) Update(ctx context.Context, a Account) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
	UPDATE accounts SET
	 name=?, institution=?, account_type=?, currency=?, opening_cents=?, notes=?, locked=?,
	 revision=revision+1, updated_at=CURRENT_TIMESTAMP
	WHERE id = ? AND revision = ?
	`, a.Name, a.Institution, a.AccountType, a.Currency, a.OpeningCents, a.Notes, a.Locked, a.ID, a.Revision)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var stored int64
			err := tx.QueryRowContext(ctx, `SELECT revision FROM accounts WHERE id = ?`, a.ID).Scan(&stored)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			return &StaleRevisionError{ID: a.ID, Expected: a.Revision, Actual: stored}
		}
		return replaceAliases(ctx, tx, a.ID, a.Aliases)
	})
}

// Delete removes the account and, by cascade, its aliases.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(s scanner) (Account, error) {
	var a Account
	err := s.Scan(&a.ID, &a.Name, &a.Institution, &a.AccountType, &a.Currency, &a.OpeningCents,
		&a.Notes, &a.Locked, &a.Revision, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func loadAliases(ctx context.Context, tx *sql.Tx, accounts []Account) error {
	if len(accounts) == 0 {
		return nil
	}
	index := make(map[string]int, len(accounts))
	marks := make([]string, 0, len(accounts))
	args := make([]interface{}, 0, len(accounts))
	for i, a := range accounts {
		index[a.ID] = i
		marks = append(marks, "?")
		args = append(args, a.ID)
	}
	rows, err := tx.QueryContext(ctx, `SELECT id, account_id, pattern, position FROM account_aliases
	WHERE account_id IN (`+strings.Join(marks, ",")+`) ORDER BY account_id, position`, args...)
	if err != nil {
		return fmt.Errorf("load aliases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var al Alias
		if err := rows.Scan(&al.ID, &al.AccountID, &al.Pattern, &al.Position); err != nil {
			return err
		}
		i := index[al.AccountID]
		accounts[i].Aliases = append(accounts[i].Aliases, al)
	}
	return rows.Err()
}

func replaceAliases(ctx context.Context, tx *sql.Tx, accountID string, aliases []Alias) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM account_aliases WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("clear aliases: %w", err)
	}
	for i, al := range aliases {
		if _, err := tx.ExecContext(ctx, `INSERT INTO account_aliases(id, account_id, pattern, position) VALUES (?, ?, ?, ?)`,
			al.ID, accountID, al.Pattern, i); err != nil {
			return fmt.Errorf("insert alias: %w", err)
		}
	}
	return nil
}
