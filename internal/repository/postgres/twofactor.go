package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/salesdesk/internal/model"
)

var _ model.TwoFactorStore = (*TwoFactorRepository)(nil)

// TwoFactorRepository stores two-factor state, one row per enrolled user.
type TwoFactorRepository struct {
	db *Connection
}

func NewTwoFactorRepository(db *Connection) *TwoFactorRepository {
	return &TwoFactorRepository{db: db}
}

func (r *TwoFactorRepository) Get(ctx context.Context, userID uuid.UUID) (model.TwoFactorState, error) {
	const query = `
        SELECT t.enabled, t.secret, t.backup_codes, t.pending_secret, t.pending_backup_codes, t.enabled_at, t.updated_at
        FROM users u
        LEFT JOIN two_factor t ON t.user_id = u.id
        WHERE u.id = $1 AND u.deleted_at IS NULL
    `

	var (
		enabled       *bool
		secret        *string
		pendingSecret *string
		updatedAt     *time.Time
		state         = model.TwoFactorState{UserID: userID}
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&enabled,
		&secret,
		&state.BackupCodes,
		&pendingSecret,
		&state.PendingBackupCodes,
		&state.EnabledAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TwoFactorState{}, model.ErrNotFound
		}
		return model.TwoFactorState{}, fmt.Errorf("failed to get two-factor state: %w", err)
	}

	if enabled != nil {
		state.Enabled = *enabled
	}
	if secret != nil {
		state.Secret = *secret
	}
	if pendingSecret != nil {
		state.PendingSecret = *pendingSecret
	}
	if updatedAt != nil {
		state.UpdatedAt = *updatedAt
	}
	return state, nil
}

// Update locks the user row for the whole read-modify-write, so concurrent
// updates of one user apply one after another.
func (r *TwoFactorRepository) Update(ctx context.Context, userID uuid.UUID, fn func(*model.TwoFactorState) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, userID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to lock user: %w", err)
	}

	current, err := loadTwoFactor(ctx, tx, userID)
	if err != nil {
		return err
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if next.Equal(current) {
		return tx.Commit(ctx)
	}

	if next.IsZero() {
		if _, err := tx.Exec(ctx, `DELETE FROM two_factor WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to delete two-factor state: %w", err)
		}
		return tx.Commit(ctx)
	}

	const upsert = `
        INSERT INTO two_factor (user_id, enabled, secret, backup_codes, pending_secret, pending_backup_codes, enabled_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, now())
        ON CONFLICT (user_id) DO UPDATE SET
            enabled = EXCLUDED.enabled,
            secret = EXCLUDED.secret,
            backup_codes = EXCLUDED.backup_codes,
            pending_secret = EXCLUDED.pending_secret,
            pending_backup_codes = EXCLUDED.pending_backup_codes,
            enabled_at = EXCLUDED.enabled_at,
            updated_at = EXCLUDED.updated_at
    `
	if _, err := tx.Exec(ctx, upsert,
		userID,
		next.Enabled,
		next.Secret,
		nonNil(next.BackupCodes),
		next.PendingSecret,
		nonNil(next.PendingBackupCodes),
		next.EnabledAt,
	); err != nil {
		return fmt.Errorf("failed to save two-factor state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit two-factor state: %w", err)
	}
	return nil
}

func loadTwoFactor(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (model.TwoFactorState, error) {
	const query = `
        SELECT enabled, secret, backup_codes, pending_secret, pending_backup_codes, enabled_at, updated_at
        FROM two_factor
        WHERE user_id = $1
    `

	state := model.TwoFactorState{UserID: userID}
	err := tx.QueryRow(ctx, query, userID).Scan(
		&state.Enabled,
		&state.Secret,
		&state.BackupCodes,
		&state.PendingSecret,
		&state.PendingBackupCodes,
		&state.EnabledAt,
		&state.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TwoFactorState{UserID: userID}, nil
	}
	if err != nil {
		return model.TwoFactorState{}, fmt.Errorf("failed to load two-factor state: %w", err)
	}
	return state, nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
