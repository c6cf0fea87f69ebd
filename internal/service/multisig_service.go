package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/google/uuid"
	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/sendarcade/squadgames/internal/retry"
	"github.com/sendarcade/squadgames/internal/solana/squads"
)

// formationPriorityFee is the per-CU price attached to the vault formation
// transaction, in µlamports.
const formationPriorityFee = 100_000

// ──────────────────────────────────────────────────────────────────────────────
// MultisigService — TreasuryMultisigFactory
// ──────────────────────────────────────────────────────────────────────────────

// MultisigService provisions the shared multi-signer vault for a game's
// winners: every participant gets a voting-only seat, the operator a full
// administrative seat, with the aggregated quorum threshold and no time-lock.
type MultisigService struct {
	chain     ChainClient
	multisigs MultisigStore
	operator  solana.PrivateKey
	policy    retry.Policy
	log       *slog.Logger
}

// NewMultisigService creates a MultisigService.
func NewMultisigService(chain ChainClient, multisigs MultisigStore, operator solana.PrivateKey, policy retry.Policy, log *slog.Logger) *MultisigService {
	return &MultisigService{
		chain:     chain,
		multisigs: multisigs,
		operator:  operator,
		policy:    policy,
		log:       log,
	}
}

// Provision creates the vault on chain and records it.  Each attempt
// generates a fresh one-time creation key, so a retried attempt derives a new
// vault address rather than colliding with a possibly half-landed one.
// Exhausting retries reports domain.ErrFormationFailed; no partial vault is
// left usable.
func (s *MultisigService) Provision(ctx context.Context, game int64, participants []string, threshold int) (*domain.MultisigRecord, error) {
	keys := make([]solana.PublicKey, 0, len(participants))
	for _, addr := range participants {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("participant address %q: %w", addr, err)
		}
		keys = append(keys, key)
	}

	record, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*domain.MultisigRecord, error) {
		return s.attempt(ctx, game, keys, threshold)
	})
	if err != nil {
		s.log.Error("vault formation failed", "game", game, "err", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrFormationFailed, err)
	}

	if err := s.multisigs.Create(ctx, record); err != nil {
		// The vault exists on chain but the record insert lost a race or
		// failed; surface it so the operator can reconcile.
		return nil, err
	}

	s.log.Info("vault provisioned",
		"game", game,
		"multisig", record.MultisigPDA,
		"vault", record.VaultPDA,
		"members", len(keys)+1,
		"threshold", threshold,
		"signature", record.Signature,
	)
	return record, nil
}

// attempt runs one full formation sequence: derive addresses, read program
// config, submit the atomically-signed formation transaction, and wait for
// confirmation.
func (s *MultisigService) attempt(ctx context.Context, game int64, participants []solana.PublicKey, threshold int) (*domain.MultisigRecord, error) {
	createKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate create key: %w", err)
	}

	multisigPDA, err := squads.MultisigPDA(createKey.PublicKey())
	if err != nil {
		return nil, err
	}
	vaultPDA, err := squads.VaultPDA(multisigPDA, 0)
	if err != nil {
		return nil, err
	}
	programConfigPDA, err := squads.ProgramConfigPDA()
	if err != nil {
		return nil, err
	}

	configData, err := s.chain.AccountData(ctx, programConfigPDA)
	if err != nil {
		return nil, fmt.Errorf("fetch program config: %w", err)
	}
	programConfig, err := squads.DecodeProgramConfig(configData)
	if err != nil {
		return nil, err
	}

	operator := s.operator.PublicKey()
	createIx, err := squads.NewMultisigCreateV2Instruction(squads.CreateV2Params{
		ProgramConfig:   programConfigPDA,
		Treasury:        programConfig.Treasury,
		Multisig:        multisigPDA,
		CreateKey:       createKey.PublicKey(),
		Creator:         operator,
		ConfigAuthority: operator,
		Threshold:       uint16(threshold),
		Members:         squads.Members(operator, participants),
		TimeLock:        0,
	})
	if err != nil {
		return nil, err
	}

	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			computebudget.NewSetComputeUnitPriceInstruction(formationPriorityFee).Build(),
			createIx,
		},
		blockhash,
		solana.TransactionPayer(operator),
	)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		switch key {
		case operator:
			return &s.operator
		case createKey.PublicKey():
			return &createKey
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign formation transaction: %w", err)
	}

	sig, err := s.chain.SendAndConfirm(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &domain.MultisigRecord{
		ID:               uuid.New(),
		Game:             game,
		Creator:          operator.String(),
		CreateKey:        createKey.PublicKey().String(),
		MultisigPDA:      multisigPDA.String(),
		VaultPDA:         vaultPDA.String(),
		ProgramConfigPDA: programConfigPDA.String(),
		ConfigTreasury:   programConfig.Treasury.String(),
		Signature:        sig.String(),
		CreatedAt:        time.Now().UTC(),
	}, nil
}
