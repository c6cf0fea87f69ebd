package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/sendarcade/squadgames/internal/config"
	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/sendarcade/squadgames/internal/retry"
)

// ──────────────────────────────────────────────────────────────────────────────
// TransferService — PayoutDisburser
// ──────────────────────────────────────────────────────────────────────────────

// TransferService moves the converted reward-token amount from the operator's
// token account into the vault's associated token account, creating the
// destination account first when it does not yet exist on chain.
type TransferService struct {
	chain    ChainClient
	operator solana.PrivateKey
	cfg      *config.SwapConfig
	policy   retry.Policy
	log      *slog.Logger

	mint solana.PublicKey
}

// NewTransferService creates a TransferService.
func NewTransferService(chain ChainClient, operator solana.PrivateKey, cfg *config.SwapConfig, log *slog.Logger) *TransferService {
	return &TransferService{
		chain:    chain,
		operator: operator,
		cfg:      cfg,
		policy:   retry.Policy{MaxAttempts: cfg.MaxAttempts},
		log:      log,
		mint:     solana.MustPublicKeyFromBase58(cfg.OutputMint),
	}
}

// Disburse transfers exactly amount reward-token smallest units to the
// vault's token account.  Exhausting retries reports domain.ErrTransferFailed.
func (s *TransferService) Disburse(ctx context.Context, amount uint64, vaultAddress string) (solana.Signature, error) {
	if amount == 0 {
		return solana.Signature{}, fmt.Errorf("%w: zero amount", domain.ErrTransferFailed)
	}
	vault, err := solana.PublicKeyFromBase58(vaultAddress)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: vault address %q: %w", domain.ErrTransferFailed, vaultAddress, err)
	}

	sig, err := retry.Do(ctx, s.policy, func(ctx context.Context) (solana.Signature, error) {
		return s.attempt(ctx, amount, vault)
	})
	if err != nil {
		s.log.Error("payout transfer failed", "vault", vaultAddress, "amount", amount, "err", err)
		return solana.Signature{}, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}

	s.log.Info("payout transferred", "vault", vaultAddress, "amount", amount, "signature", sig)
	return sig, nil
}

// attempt runs one full transfer sequence: blockhash, destination existence
// check, conditional account creation, transfer, confirm.
func (s *TransferService) attempt(ctx context.Context, amount uint64, vault solana.PublicKey) (solana.Signature, error) {
	operator := s.operator.PublicKey()

	sourceATA, _, err := solana.FindAssociatedTokenAddress(operator, s.mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("derive source account: %w", err)
	}
	// The vault is a program-derived (off-curve) owner; ATA derivation is
	// the same either way.
	destATA, _, err := solana.FindAssociatedTokenAddress(vault, s.mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("derive destination account: %w", err)
	}

	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitPriceInstruction(s.cfg.ComputeUnitPrice).Build(),
	}

	destExists, err := s.chain.AccountExists(ctx, destATA)
	if err != nil {
		return solana.Signature{}, err
	}
	if !destExists {
		s.log.Info("destination token account missing, creating", "vault", vault, "account", destATA)
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(operator, vault, s.mint).Build())
	}

	instructions = append(instructions,
		token.NewTransferInstruction(amount, sourceATA, destATA, operator, nil).Build())

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(operator))
	if err != nil {
		return solana.Signature{}, err
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key == operator {
			return &s.operator
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transfer transaction: %w", err)
	}

	return s.chain.SendAndConfirm(ctx, tx)
}
