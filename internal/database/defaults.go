package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SeedDefaults creates the locked Cash account on an empty database.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		if n > 0 {
			return nil
		}
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("account:cash")).String()
		_, err := tx.ExecContext(ctx, `
	INSERT INTO accounts(id, name, institution, account_type, currency, opening_cents, notes, locked, revision, created_at, updated_at)
	VALUES (?, 'Cash', '', 'cash', 'AUD', 0, 'Wallet and petty cash.', 1, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, id)
		if err != nil {
			return fmt.Errorf("seed cash account: %w", err)
		}
		return nil
	})
}
