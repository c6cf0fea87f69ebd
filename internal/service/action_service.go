package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/google/uuid"
	"github.com/sendarcade/squadgames/internal/config"
	"github.com/sendarcade/squadgames/internal/domain"
)

// handlePlaceholder is the literal template value wallet clients send before
// the user has filled in their handle.  No PlayerEntry is recorded for it.
const handlePlaceholder = "{x}"

// ──────────────────────────────────────────────────────────────────────────────
// ActionService — deposit action endpoint backing
// ──────────────────────────────────────────────────────────────────────────────

// ActionService builds the unsigned deposit transaction a player signs to
// join the current game: a priority-fee directive, a fixed native-currency
// stake to the collection address, and a memo tagging (game, handle).
type ActionService struct {
	deposits DepositStore
	players  PlayerStore
	chain    ChainClient
	cfg      *config.GameConfig
	log      *slog.Logger

	collection solana.PublicKey
	memoProgID solana.PublicKey
}

// NewActionService creates an ActionService.  Panics if the configured
// collection address is malformed — that is a boot-time misconfiguration.
func NewActionService(deposits DepositStore, players PlayerStore, chain ChainClient, cfg *config.GameConfig, log *slog.Logger) *ActionService {
	return &ActionService{
		deposits:   deposits,
		players:    players,
		chain:      chain,
		cfg:        cfg,
		log:        log,
		collection: solana.MustPublicKeyFromBase58(cfg.CollectionAddress),
		memoProgID: solana.MustPublicKeyFromBase58(domain.MemoProgramID),
	}
}

// Join validates the request, rejects players already in the game, records a
// join intent, and returns the constructed-but-unsigned transaction payload.
func (s *ActionService) Join(ctx context.Context, account, handle string) (*domain.ActionResponse, error) {
	player, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return nil, domain.ErrInvalidAccount
	}
	if handle == "" {
		return nil, domain.ErrMissingHandle
	}

	exists, err := s.deposits.Exists(ctx, player.String(), s.cfg.GameID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateDeposit
	}

	// Join intent is informational; failing to record it must not block the
	// deposit flow.
	if handle != handlePlaceholder {
		entry := &domain.PlayerEntry{
			ID:        uuid.New(),
			Address:   player.String(),
			Handle:    handle,
			Game:      s.cfg.GameID,
			Round:     0,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.players.Create(ctx, entry); err != nil {
			s.log.Warn("failed to record player entry", "address", player, "err", err)
		}
	}

	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	memo := domain.FormatMemo(s.cfg.GameID, handle)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			computebudget.NewSetComputeUnitPriceInstruction(s.cfg.ActionPriorityFee).Build(),
			system.NewTransferInstruction(s.cfg.StakeLamports, player, s.collection).Build(),
			solana.NewInstruction(s.memoProgID, solana.AccountMetaSlice{}, []byte(memo)),
		},
		blockhash,
		solana.TransactionPayer(player),
	)
	if err != nil {
		return nil, err
	}

	encoded, err := tx.ToBase64()
	if err != nil {
		return nil, err
	}

	s.log.Info("deposit action built", "address", player, "game", s.cfg.GameID, "handle", handle)
	return &domain.ActionResponse{
		Transaction: encoded,
		Message:     "Welcome to the game—your life depends on every move. Do not let it be your last.",
	}, nil
}
