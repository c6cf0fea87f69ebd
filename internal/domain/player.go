package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerEntry records a player's intent to join a game, captured when the
// deposit action is requested.  Informational only: settlement correctness
// depends solely on DepositRecords.
type PlayerEntry struct {
	ID        uuid.UUID `json:"id"         db:"id"`
	Address   string    `json:"address"    db:"address"`
	Handle    string    `json:"handle"     db:"handle"`
	Game      int64     `json:"game"       db:"game"`
	Round     int64     `json:"round"      db:"round"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
