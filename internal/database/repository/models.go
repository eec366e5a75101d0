package repository

import "time"

// Account represents an account row with its aliases.
type Account struct {
	ID           string
	Name         string
	Institution  string
	AccountType  string
	Currency     string
	OpeningCents int64
	Notes        string
	Locked       bool
	Revision     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Aliases      []Alias
}

// Alias is an alternate name used to match imported rows to an account.
type Alias struct {
	ID        string
	AccountID string
	Pattern   string
	Position  int
}

// ActiveID is the last selected entity id for one entity kind.
type ActiveID struct {
	Kind      string
	EntityID  *string
	UpdatedAt time.Time
}
