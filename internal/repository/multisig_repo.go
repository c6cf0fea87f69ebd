package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sendarcade/squadgames/internal/domain"
)

// MultisigRepository handles all database operations for MultisigRecords.
type MultisigRepository struct {
	db *sqlx.DB
}

// NewMultisigRepository creates a new MultisigRepository.
func NewMultisigRepository(db *sqlx.DB) *MultisigRepository {
	return &MultisigRepository{db: db}
}

// Create inserts the record of a provisioned vault.  UNIQUE(game) makes the
// insert conditional: a second settlement attempt racing past the
// orchestrator's lock fails here with domain.ErrAlreadySettled instead of
// recording a duplicate vault.
func (r *MultisigRepository) Create(ctx context.Context, m *domain.MultisigRecord) error {
	query := `
		INSERT INTO multisigs
			(id, game, creator, create_key, multisig_pda, vault_pda, program_config_pda, config_treasury, signature, created_at)
		VALUES
			(:id, :game, :creator, :create_key, :multisig_pda, :vault_pda, :program_config_pda, :config_treasury, :signature, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySettled
		}
		return fmt.Errorf("multisig_repo.Create: %w", err)
	}
	return nil
}

// GetByGame fetches the vault record for a game.
func (r *MultisigRepository) GetByGame(ctx context.Context, game int64) (*domain.MultisigRecord, error) {
	var m domain.MultisigRecord
	err := r.db.GetContext(ctx, &m, `SELECT * FROM multisigs WHERE game = $1`, game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMultisigNotFound
		}
		return nil, fmt.Errorf("multisig_repo.GetByGame: %w", err)
	}
	return &m, nil
}
