package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the native currency's base denomination.
const LamportsPerSOL = 1_000_000_000

// SOLPrecision is the number of fractional digits carried by SOL amounts.
const SOLPrecision = 9

// ──────────────────────────────────────────────────────────────────────────────
// DepositRecord
// ──────────────────────────────────────────────────────────────────────────────

// DepositRecord is a verified on-chain deposit credited to a player for one
// game.  At most one record exists per (Address, Game) — the txs table enforces
// this with a unique constraint, which makes webhook re-delivery a no-op.
// Records are immutable once written and are never deleted (audit trail).
type DepositRecord struct {
	ID               uuid.UUID       `json:"id"                db:"id"`
	Address          string          `json:"address"           db:"address"`
	Game             int64           `json:"game"              db:"game"`
	Amount           decimal.Decimal `json:"amount"            db:"amount"`
	Handle           string          `json:"handle"            db:"handle"`
	Signature        string          `json:"signature"         db:"signature"`
	Description      string          `json:"description"       db:"description"`
	WebhookTimestamp *time.Time      `json:"webhook_timestamp" db:"webhook_timestamp"`
	CreatedAt        time.Time       `json:"created_at"        db:"created_at"`
}

// SOLFromLamports converts a lamport amount to a SOL decimal, rounded to the
// native 9-digit precision.
func SOLFromLamports(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-SOLPrecision).Round(SOLPrecision)
}

// LamportsFromSOL converts a SOL decimal to lamports, flooring any sub-lamport
// remainder.  Flooring never credits more than the ledger holds.
func LamportsFromSOL(amount decimal.Decimal) uint64 {
	return uint64(amount.Shift(SOLPrecision).IntPart())
}

// ──────────────────────────────────────────────────────────────────────────────
// Pot
// ──────────────────────────────────────────────────────────────────────────────

// Pot is the aggregation of all verified deposits for one game: the total
// stake, the distinct depositor addresses in first-seen order, and the signer
// quorum threshold for the vault about to be provisioned.
type Pot struct {
	Game         int64
	Total        decimal.Decimal
	Participants []string
	Threshold    int
}

// QuorumThreshold derives the vault signer threshold from the participant
// count: floor((n + 2) / 2).  The operator joins the signer set as an implicit
// extra member, which accounts for the +2 rather than +1.
func QuorumThreshold(participants int) int {
	return (participants + 2) / 2
}
