package service

import (
	"context"
	"log/slog"

	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// PotService — PotAggregator
// ──────────────────────────────────────────────────────────────────────────────

// PotService aggregates a game's verified deposits into a pot and derives the
// vault signer threshold.  Pure read path: amounts it computes are ephemeral
// and passed forward through the orchestration chain, never persisted.
type PotService struct {
	deposits DepositStore
	log      *slog.Logger
}

// NewPotService creates a PotService.
func NewPotService(deposits DepositStore, log *slog.Logger) *PotService {
	return &PotService{deposits: deposits, log: log}
}

// Aggregate sums all deposits for the game, rounded to the native 9-digit
// precision, and computes the quorum threshold over distinct depositor
// addresses.  Returns domain.ErrEmptyPot when the game has no deposits —
// settlement must not proceed on an empty pot.
func (s *PotService) Aggregate(ctx context.Context, game int64) (*domain.Pot, error) {
	deposits, err := s.deposits.ListByGame(ctx, game)
	if err != nil {
		return nil, err
	}
	if len(deposits) == 0 {
		return nil, domain.ErrEmptyPot
	}

	total := decimal.Zero
	seen := make(map[string]struct{}, len(deposits))
	participants := make([]string, 0, len(deposits))

	for _, d := range deposits {
		total = total.Add(d.Amount)
		if _, dup := seen[d.Address]; dup {
			continue
		}
		seen[d.Address] = struct{}{}
		participants = append(participants, d.Address)
	}
	total = total.Round(domain.SOLPrecision)

	pot := &domain.Pot{
		Game:         game,
		Total:        total,
		Participants: participants,
		Threshold:    domain.QuorumThreshold(len(participants)),
	}

	s.log.Info("pot aggregated",
		"game", game,
		"total_sol", pot.Total,
		"participants", len(pot.Participants),
		"threshold", pot.Threshold,
	)
	return pot, nil
}
