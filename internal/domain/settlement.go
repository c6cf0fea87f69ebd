package domain

import "github.com/shopspring/decimal"

// ──────────────────────────────────────────────────────────────────────────────
// Settlement state machine
// ──────────────────────────────────────────────────────────────────────────────

// SettlementState tracks a settlement attempt through its strictly sequential
// steps.  Failed is terminal and reachable from any step; completed artifacts
// (a provisioned vault, a converted amount) are left in place for operator
// inspection — there is no rollback.
type SettlementState string

const (
	StateAggregating  SettlementState = "aggregating"
	StateProvisioning SettlementState = "provisioning"
	StateConverting   SettlementState = "converting"
	StateDisbursing   SettlementState = "disbursing"
	StateSettled      SettlementState = "settled"
	StateFailed       SettlementState = "failed"
)

// SettlementStep identifies which pipeline step a failure occurred in.
type SettlementStep string

const (
	StepAggregate SettlementStep = "aggregate"
	StepProvision SettlementStep = "provision"
	StepConvert   SettlementStep = "convert"
	StepDisburse  SettlementStep = "disburse"
)

// SettlementResult is the outcome of one settlement attempt.  On failure it
// still carries every artifact produced before the failing step, so an
// operator can resume by hand without guessing prior progress.
type SettlementResult struct {
	Game         int64           `json:"game"`
	State        SettlementState `json:"state"`
	FailedStep   SettlementStep  `json:"failed_step,omitempty"`
	Pot          decimal.Decimal `json:"pot"`
	Threshold    int             `json:"threshold"`
	VaultAddress string          `json:"vault_address,omitempty"`
	PayoutAmount uint64          `json:"payout_amount"` // reward token, smallest units
}

// ──────────────────────────────────────────────────────────────────────────────
// Action response
// ──────────────────────────────────────────────────────────────────────────────

// ActionResponse is the payload returned to a wallet client from the deposit
// action endpoint: an unsigned, base64-encoded transaction for the client to
// sign and submit.
type ActionResponse struct {
	Transaction string `json:"transaction"`
	Message     string `json:"message"`
}
