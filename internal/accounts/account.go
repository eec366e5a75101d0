// Package accounts is the account entity: its field table, list columns,
// detail sections and the services that persist it.
package accounts

import (
	"strconv"
	"strings"
	"time"
)

// KindName keys the session's active account.
const KindName = "account"

// DefaultCurrency is used for new accounts.
const DefaultCurrency = "AUD"

// MaxOpeningCents bounds the opening balance either side of zero.
const MaxOpeningCents int64 = 100_000_000_000

// Account types.
const (
	TypeChecking = "checking"
	TypeSavings  = "savings"
	TypeCredit   = "credit"
	TypeCash     = "cash"
)

var Types = []string{TypeChecking, TypeSavings, TypeCredit, TypeCash}

// Account is a money account shown on the accounts page.
type Account struct {
	ID           string
	Name         string
	Institution  string
	AccountType  string
	Currency     string
	OpeningCents int64
	Notes        string
	// Locked accounts refuse edits.
	Locked    bool
	Revision  int64
	Aliases   []Alias
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Alias is an alternate name that identifies the account in imports.
type Alias struct {
	ID      string
	Pattern string
}

// New returns an unsaved account.
func New(name string) *Account {
	return &Account{Name: name, AccountType: TypeChecking, Currency: DefaultCurrency}
}

// Copy returns a deep copy of a.
func Copy(a *Account) *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Aliases = append([]Alias(nil), a.Aliases...)
	return &out
}

// FormatCents renders cents as a decimal amount with symbol.
func FormatCents(cents int64, symbol string) string {
	sign := ""
	abs := uint64(cents)
	if cents < 0 {
		sign = "-"
		abs = -abs
	}
	return sign + symbol + strconv.FormatUint(abs/100, 10) + "." + pad2(abs%100)
}

func pad2(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) < 2 {
		s = strings.Repeat("0", 2-len(s)) + s
	}
	return s
}
