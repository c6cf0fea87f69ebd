// Package repository contains the sqlx data-access layer for the settlement
// ledgers.  Repositories are the sole writers of their record kinds.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sendarcade/squadgames/internal/domain"
)

// pqUniqueViolation is the PostgreSQL error code for unique-constraint
// violations.
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// DepositRepository handles all database operations for DepositRecords.
type DepositRepository struct {
	db *sqlx.DB
}

// NewDepositRepository creates a new DepositRepository.
func NewDepositRepository(db *sqlx.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create inserts a verified deposit.  A unique-constraint violation on
// (address, game) is reported as domain.ErrDuplicateDeposit so callers can
// treat webhook re-delivery as a no-op.  The constraint — not application
// logic — is the synchronization point for concurrent duplicate deliveries.
func (r *DepositRepository) Create(ctx context.Context, d *domain.DepositRecord) error {
	query := `
		INSERT INTO txs
			(id, address, game, amount, handle, signature, description, webhook_timestamp, created_at)
		VALUES
			(:id, :address, :game, :amount, :handle, :signature, :description, :webhook_timestamp, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateDeposit
		}
		return fmt.Errorf("deposit_repo.Create: %w", err)
	}
	return nil
}

// ListByGame returns every deposit recorded for a game, oldest first.
func (r *DepositRepository) ListByGame(ctx context.Context, game int64) ([]*domain.DepositRecord, error) {
	var deposits []*domain.DepositRecord
	err := r.db.SelectContext(ctx, &deposits,
		`SELECT * FROM txs WHERE game = $1 ORDER BY created_at ASC`, game)
	if err != nil {
		return nil, fmt.Errorf("deposit_repo.ListByGame: %w", err)
	}
	return deposits, nil
}

// Exists reports whether a deposit is already recorded for (address, game).
func (r *DepositRepository) Exists(ctx context.Context, address string, game int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM txs WHERE address = $1 AND game = $2)`, address, game)
	if err != nil {
		return false, fmt.Errorf("deposit_repo.Exists: %w", err)
	}
	return exists, nil
}
