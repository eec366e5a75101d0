package repository

import (
	"context"
	"database/sql"
	"errors"
)

// SessionRepo stores the active id per entity kind.
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Get returns the stored id for kind, or "" when none is stored.
func (r *SessionRepo) Get(ctx context.Context, kind string) (string, error) {
	var id sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT entity_id FROM active_ids WHERE kind = ?`, kind).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id.String, nil
}

// Set stores id for kind; an empty id is stored as NULL.
func (r *SessionRepo) Set(ctx context.Context, kind, id string) error {
	var v *string
	if id != "" {
		v = &id
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO active_ids(kind, entity_id, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(kind) DO UPDATE SET entity_id=excluded.entity_id, updated_at=CURRENT_TIMESTAMP;
	`, kind, v)
	return err
}
