package domain

import (
	"time"

	"github.com/google/uuid"
)

// MultisigRecord is the durable record of a provisioned game vault.  Written
// exactly once per settled game, after chain confirmation; immutable
// thereafter.  The multisigs table enforces UNIQUE(game).
type MultisigRecord struct {
	ID               uuid.UUID `json:"id"                 db:"id"`
	Game             int64     `json:"game"               db:"game"`
	Creator          string    `json:"creator"            db:"creator"`
	CreateKey        string    `json:"create_key"         db:"create_key"`
	MultisigPDA      string    `json:"multisig_pda"       db:"multisig_pda"`
	VaultPDA         string    `json:"vault_pda"          db:"vault_pda"`
	ProgramConfigPDA string    `json:"program_config_pda" db:"program_config_pda"`
	ConfigTreasury   string    `json:"config_treasury"    db:"config_treasury"`
	Signature        string    `json:"signature"          db:"signature"`
	CreatedAt        time.Time `json:"created_at"         db:"created_at"`
}
