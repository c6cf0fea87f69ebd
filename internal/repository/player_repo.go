package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sendarcade/squadgames/internal/domain"
)

// PlayerRepository handles all database operations for PlayerEntries.
type PlayerRepository struct {
	db *sqlx.DB
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create records a player's intent to join.  Duplicates are allowed — the
// entry is informational and settlement never reads it.
func (r *PlayerRepository) Create(ctx context.Context, p *domain.PlayerEntry) error {
	query := `
		INSERT INTO players (id, address, handle, game, round, created_at)
		VALUES (:id, :address, :handle, :game, :round, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("player_repo.Create: %w", err)
	}
	return nil
}
