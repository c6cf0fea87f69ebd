package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/sendarcade/squadgames/internal/config"
	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/sendarcade/squadgames/internal/retry"
	"github.com/sendarcade/squadgames/internal/solana/jupiter"
	"github.com/shopspring/decimal"
)

// maxOutputRatio caps how far above the quoted output a measured delta may
// land before it is treated as a measurement or venue error.
var maxOutputRatio = decimal.NewFromFloat(1.05)

// errOutOfBounds marks a received amount outside the slippage envelope.
// It is terminal for the conversion: retrying would re-swap funds that
// already moved.
var errOutOfBounds = errors.New("received amount outside slippage envelope")

// ──────────────────────────────────────────────────────────────────────────────
// SwapService — CurrencyConverter
// ──────────────────────────────────────────────────────────────────────────────

// SwapService converts an aggregated native-currency amount into the reward
// token through the liquidity venue: quote, build instructions, submit a
// single versioned transaction, then verify the actually-received delta
// against the slippage envelope.  The whole sequence retries as a unit.
type SwapService struct {
	chain    ChainClient
	venue    SwapVenue
	operator solana.PrivateKey
	cfg      *config.SwapConfig
	policy   retry.Policy
	log      *slog.Logger

	inputMint  solana.PublicKey
	outputMint solana.PublicKey
}

// NewSwapService creates a SwapService.  The retry budget comes from config;
// envelope violations are not retried (the attempt already consumed funds
// or proved the measurement wrong).
func NewSwapService(chain ChainClient, venue SwapVenue, operator solana.PrivateKey, cfg *config.SwapConfig, log *slog.Logger) *SwapService {
	return &SwapService{
		chain:    chain,
		venue:    venue,
		operator: operator,
		cfg:      cfg,
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Retryable: func(err error) bool {
				return !errors.Is(err, errOutOfBounds)
			},
		},
		log:        log,
		inputMint:  solana.MustPublicKeyFromBase58(cfg.InputMint),
		outputMint: solana.MustPublicKeyFromBase58(cfg.OutputMint),
	}
}

// Convert swaps amount (in SOL) into reward-token smallest units and returns
// the amount actually received.  On exhausted retries or an envelope
// violation it reports domain.ErrConversionFailed with a zero amount.
func (s *SwapService) Convert(ctx context.Context, amount decimal.Decimal) (uint64, error) {
	lamports := domain.LamportsFromSOL(amount)
	if lamports == 0 {
		return 0, fmt.Errorf("%w: amount %s rounds to zero lamports", domain.ErrConversionFailed, amount)
	}

	received, err := retry.Do(ctx, s.policy, func(ctx context.Context) (uint64, error) {
		return s.attempt(ctx, lamports)
	})
	if err != nil {
		s.log.Error("conversion failed", "amount_sol", amount, "err", err)
		return 0, fmt.Errorf("%w: %w", domain.ErrConversionFailed, err)
	}

	s.log.Info("conversion complete", "amount_sol", amount, "received", received)
	return received, nil
}

// attempt runs one full quote→swap→verify sequence.
func (s *SwapService) attempt(ctx context.Context, lamports uint64) (uint64, error) {
	operator := s.operator.PublicKey()

	wrappedATA, _, err := solana.FindAssociatedTokenAddress(operator, s.inputMint)
	if err != nil {
		return 0, fmt.Errorf("derive wrapped account: %w", err)
	}
	rewardATA, _, err := solana.FindAssociatedTokenAddress(operator, s.outputMint)
	if err != nil {
		return 0, fmt.Errorf("derive reward account: %w", err)
	}

	// Destination balance before submission; the post-confirmation delta is
	// the amount actually received.
	initialBalance, err := s.chain.TokenBalance(ctx, rewardATA)
	if err != nil {
		return 0, err
	}

	quote, err := s.venue.Quote(ctx, jupiter.QuoteRequest{
		InputMint:   s.cfg.InputMint,
		OutputMint:  s.cfg.OutputMint,
		Amount:      lamports,
		SlippageBps: s.cfg.SlippageBps,
	})
	if err != nil {
		return 0, err
	}

	venueIxs, err := s.venue.SwapInstructions(ctx, quote, operator)
	if err != nil {
		return 0, err
	}

	swapIx, err := venueIxs.SwapInstruction.Build()
	if err != nil {
		return 0, err
	}

	tableKeys, err := venueIxs.LookupTableKeys()
	if err != nil {
		return 0, err
	}
	tables, err := s.chain.LookupTables(ctx, tableKeys)
	if err != nil {
		return 0, err
	}

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(s.cfg.ComputeUnitLimit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(s.cfg.ComputeUnitPrice).Build(),
	}

	wrappedExists, err := s.chain.AccountExists(ctx, wrappedATA)
	if err != nil {
		return 0, err
	}
	if !wrappedExists {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(operator, operator, s.inputMint).Build())
	}

	// Fund the wrapped account and reconcile its balance, then swap.
	instructions = append(instructions,
		system.NewTransferInstruction(lamports, operator, wrappedATA).Build(),
		token.NewSyncNativeInstruction(wrappedATA).Build(),
		swapIx,
	)

	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(operator),
		solana.TransactionAddressTables(tables),
	)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key == operator {
			return &s.operator
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("sign swap transaction: %w", err)
	}

	sig, err := s.chain.SendAndConfirm(ctx, tx)
	if err != nil {
		return 0, err
	}

	finalBalance, err := s.chain.TokenBalance(ctx, rewardATA)
	if err != nil {
		return 0, err
	}
	if finalBalance < initialBalance {
		return 0, fmt.Errorf("reward balance decreased during swap %s", sig)
	}
	received := finalBalance - initialBalance

	if received == 0 {
		return 0, fmt.Errorf("received amount is zero, swap %s may have failed", sig)
	}
	if err := validateEnvelope(received, quote.OtherAmountThreshold, quote.OutAmount); err != nil {
		s.log.Error("swap envelope violated",
			"received", received,
			"min", quote.OtherAmountThreshold,
			"quoted", quote.OutAmount,
			"signature", sig,
		)
		return 0, err
	}

	s.log.Info("swap confirmed", "signature", sig, "received", received, "quoted", quote.OutAmount)
	return received, nil
}

// validateEnvelope checks a measured delta against the quote's slippage
// envelope: at least the minimum-acceptable output, at most 105% of the
// expected output (anomalously large deltas indicate a measurement or venue
// error).
func validateEnvelope(received, minOut, quotedOut uint64) error {
	if received < minOut {
		return fmt.Errorf("%w: received %d below minimum %d", errOutOfBounds, received, minOut)
	}
	ceiling := decimal.NewFromUint64(quotedOut).Mul(maxOutputRatio)
	if decimal.NewFromUint64(received).GreaterThan(ceiling) {
		return fmt.Errorf("%w: received %d exceeds %s (quoted %d)", errOutOfBounds, received, ceiling, quotedOut)
	}
	return nil
}
