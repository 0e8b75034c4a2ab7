package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const accountColumns = `id, external_id, display_name, employee_id, roles, permissions,
	password_digest, active, last_logged_on, created_at, updated_at`

// Repository handles personnel account data operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new account repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// FindByExternalID finds an active account by its external identifier.
// A missing account is (nil, nil).
func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*Account, error) {
	var account Account
	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE external_id = $1 AND active = TRUE`

	err := r.db.GetContext(ctx, &account, query, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by external id: %w", err)
	}

	return &account, nil
}

// UpdateLastLoggedOn updates the last_logged_on timestamp
func (r *Repository) UpdateLastLoggedOn(ctx context.Context, id string) error {
	query := `UPDATE accounts SET last_logged_on = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update last logged on: %w", err)
	}
	return nil
}

// RecordLoginAttempt stores a login attempt for auditing
func (r *Repository) RecordLoginAttempt(ctx context.Context, externalID, ipAddress string, success bool) error {
	query := `INSERT INTO login_attempts (external_id, ip_address, success, attempted_at)
			  VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, externalID, ipAddress, success, time.Now()); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}
