// Package service implements the settlement pipeline: webhook ingestion,
// pot aggregation, vault provisioning, currency conversion, payout transfer,
// and the orchestrator that sequences them per game.
package service

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/sendarcade/squadgames/internal/solana/jupiter"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Storage contracts
// ──────────────────────────────────────────────────────────────────────────────

// DepositStore is the slice of the deposit ledger the pipeline reads/writes.
type DepositStore interface {
	Create(ctx context.Context, d *domain.DepositRecord) error
	ListByGame(ctx context.Context, game int64) ([]*domain.DepositRecord, error)
	Exists(ctx context.Context, address string, game int64) (bool, error)
}

// MultisigStore is the slice of the multisig ledger the pipeline reads/writes.
type MultisigStore interface {
	Create(ctx context.Context, m *domain.MultisigRecord) error
	GetByGame(ctx context.Context, game int64) (*domain.MultisigRecord, error)
}

// PlayerStore records join intents.
type PlayerStore interface {
	Create(ctx context.Context, p *domain.PlayerEntry) error
}

// ──────────────────────────────────────────────────────────────────────────────
// External collaborators
// ──────────────────────────────────────────────────────────────────────────────

// ChainClient is the chain RPC surface the pipeline depends on.  The process
// holds a single implementation, initialized at startup and injected here.
type ChainClient interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	AccountExists(ctx context.Context, address solana.PublicKey) (bool, error)
	AccountData(ctx context.Context, address solana.PublicKey) ([]byte, error)
	TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error)
	LookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error)
}

// SwapVenue is the liquidity venue's quote/build surface.
type SwapVenue interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error)
	SwapInstructions(ctx context.Context, quote *jupiter.Quote, user solana.PublicKey) (*jupiter.SwapInstructions, error)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pipeline step contracts (consumed by the orchestrator)
// ──────────────────────────────────────────────────────────────────────────────

// Aggregator sums a game's verified deposits.
type Aggregator interface {
	Aggregate(ctx context.Context, game int64) (*domain.Pot, error)
}

// Provisioner creates the game vault on chain and records it.
type Provisioner interface {
	Provision(ctx context.Context, game int64, participants []string, threshold int) (*domain.MultisigRecord, error)
}

// Converter swaps a native-currency amount into reward-token units.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal) (uint64, error)
}

// Disburser moves converted reward tokens into the vault's token account.
type Disburser interface {
	Disburse(ctx context.Context, amount uint64, vaultAddress string) (solana.Signature, error)
}
