package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sendarcade/squadgames/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// SettlementService — SettlementOrchestrator
// ──────────────────────────────────────────────────────────────────────────────

// SettlementService sequences the settlement pipeline for one game:
// aggregate → provision → convert → disburse.  Steps are strictly sequential;
// any failure transitions to the terminal Failed state and aborts the rest.
// Artifacts produced before the failure (a provisioned vault, a converted
// amount) are left in place for operator inspection — never rolled back.
type SettlementService struct {
	aggregator Aggregator
	provision  Provisioner
	converter  Converter
	disburser  Disburser
	multisigs  MultisigStore
	log        *slog.Logger

	// Games with a settlement currently running: two concurrent triggers for
	// the same game must not both provision a vault.  Entries are removed when
	// the attempt finishes, so the set only ever holds in-flight games.  The
	// MultisigLedger's UNIQUE(game) constraint is the cross-process backstop.
	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(aggregator Aggregator, provision Provisioner, converter Converter, disburser Disburser, multisigs MultisigStore, log *slog.Logger) *SettlementService {
	return &SettlementService{
		aggregator: aggregator,
		provision:  provision,
		converter:  converter,
		disburser:  disburser,
		multisigs:  multisigs,
		log:        log,
		inFlight:   make(map[int64]struct{}),
	}
}

// acquire claims the settlement slot for a game.  Returns false when another
// attempt for the same game is already running.
func (s *SettlementService) acquire(game int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[game]; busy {
		return false
	}
	s.inFlight[game] = struct{}{}
	return true
}

// release frees the settlement slot for a game.
func (s *SettlementService) release(game int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, game)
}

// Settle runs the settlement pipeline for a game and returns the final vault
// address and payout amount, or a Failed result identifying the step that
// broke and whatever artifacts already exist.
func (s *SettlementService) Settle(ctx context.Context, game int64) (*domain.SettlementResult, error) {
	if !s.acquire(game) {
		return nil, domain.ErrSettlementInProgress
	}
	defer s.release(game)

	result := &domain.SettlementResult{Game: game, State: domain.StateAggregating}

	// A vault on record means this game is settled (or partially settled and
	// awaiting manual resumption); never provision a second one.
	if existing, err := s.multisigs.GetByGame(ctx, game); err == nil {
		result.State = domain.StateFailed
		result.VaultAddress = existing.VaultPDA
		return result, domain.ErrAlreadySettled
	} else if !errors.Is(err, domain.ErrMultisigNotFound) {
		result.State = domain.StateFailed
		result.FailedStep = domain.StepAggregate
		return result, err
	}

	s.log.Info("settlement started", "game", game)

	// ── Aggregate ────────────────────────────────────────────────────────────
	pot, err := s.aggregator.Aggregate(ctx, game)
	if err != nil {
		return s.fail(result, domain.StepAggregate, err)
	}
	result.Pot = pot.Total
	result.Threshold = pot.Threshold
	result.State = domain.StateProvisioning

	// ── Provision ────────────────────────────────────────────────────────────
	record, err := s.provision.Provision(ctx, game, pot.Participants, pot.Threshold)
	if err != nil {
		return s.fail(result, domain.StepProvision, err)
	}
	result.VaultAddress = record.VaultPDA
	result.State = domain.StateConverting

	// ── Convert ──────────────────────────────────────────────────────────────
	payout, err := s.converter.Convert(ctx, pot.Total)
	if err != nil {
		return s.fail(result, domain.StepConvert, err)
	}
	result.PayoutAmount = payout
	result.State = domain.StateDisbursing

	// ── Disburse ─────────────────────────────────────────────────────────────
	if _, err := s.disburser.Disburse(ctx, payout, record.VaultPDA); err != nil {
		return s.fail(result, domain.StepDisburse, err)
	}

	result.State = domain.StateSettled
	s.log.Info("settlement complete",
		"game", game,
		"vault", result.VaultAddress,
		"pot_sol", result.Pot,
		"payout", result.PayoutAmount,
	)
	return result, nil
}

// fail marks the result terminal, preserving artifacts from completed steps.
func (s *SettlementService) fail(result *domain.SettlementResult, step domain.SettlementStep, err error) (*domain.SettlementResult, error) {
	result.State = domain.StateFailed
	result.FailedStep = step
	s.log.Error("settlement failed",
		"game", result.Game,
		"step", step,
		"vault", result.VaultAddress,
		"err", err,
	)
	return result, err
}
