package domain

// Wire types for chain-transaction-event notifications delivered by the
// webhook provider.  Field names follow the provider's enhanced-transaction
// JSON; only the fields the ingestor reads are modelled.

// TransactionEvent is one notification in a webhook batch.
type TransactionEvent struct {
	Signature       string             `json:"signature"`
	Type            string             `json:"type"`
	Description     string             `json:"description"`
	Timestamp       int64              `json:"timestamp"` // unix seconds, webhook-observed
	Instructions    []InstructionEvent `json:"instructions"`
	NativeTransfers []NativeTransfer   `json:"nativeTransfers"`
}

// InstructionEvent is a top-level instruction within a transaction event.
// Data is base58-encoded.
type InstructionEvent struct {
	ProgramID string `json:"programId"`
	Data      string `json:"data"`
}

// NativeTransfer is a native-currency movement within a transaction event.
// Amount is in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          uint64 `json:"amount"`
}
