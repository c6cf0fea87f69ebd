package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/sendarcade/squadgames/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// IngestService — WebhookIngestor
// ──────────────────────────────────────────────────────────────────────────────

// IngestService consumes webhook batches of chain-transaction events and
// records verified deposits.  Events are processed independently and
// concurrently; a failure on one never aborts the others.  Idempotency under
// at-least-once delivery comes from the deposit ledger's unique constraint,
// not from application-level bookkeeping.
type IngestService struct {
	deposits DepositStore
	log      *slog.Logger
}

// NewIngestService creates an IngestService.
func NewIngestService(deposits DepositStore, log *slog.Logger) *IngestService {
	return &IngestService{deposits: deposits, log: log}
}

// BatchSummary classifies a processed batch, for logging and metrics only.
type BatchSummary struct {
	Saved      int
	Skipped    int
	Duplicates int
	Errors     int
}

// ProcessBatch handles one webhook delivery.  Ordering between events is not
// guaranteed.
func (s *IngestService) ProcessBatch(ctx context.Context, events []domain.TransactionEvent) BatchSummary {
	var (
		mu      sync.Mutex
		summary BatchSummary
		wg      sync.WaitGroup
	)

	for _, ev := range events {
		wg.Add(1)
		go func(ev domain.TransactionEvent) {
			defer wg.Done()
			outcome := s.processEvent(ctx, ev)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSaved:
				summary.Saved++
			case outcomeSkipped:
				summary.Skipped++
			case outcomeDuplicate:
				summary.Duplicates++
			case outcomeError:
				summary.Errors++
			}
		}(ev)
	}
	wg.Wait()

	s.log.Info("webhook batch processed",
		"events", len(events),
		"saved", summary.Saved,
		"skipped", summary.Skipped,
		"duplicates", summary.Duplicates,
		"errors", summary.Errors,
	)
	return summary
}

type eventOutcome int

const (
	outcomeSaved eventOutcome = iota
	outcomeSkipped
	outcomeDuplicate
	outcomeError
)

// processEvent verifies a single transaction event and records the deposit.
// "No match" conditions (no memo instruction, undecodable payload, wrong tag
// format, no native transfer) skip the event silently.
func (s *IngestService) processEvent(ctx context.Context, ev domain.TransactionEvent) eventOutcome {
	memo, ok := s.extractMemo(ev)
	if !ok {
		return outcomeSkipped
	}

	game, handle, ok := domain.ParseMemo(memo)
	if !ok {
		s.log.Debug("memo does not match deposit tag, skipping", "signature", ev.Signature, "memo", memo)
		return outcomeSkipped
	}

	if len(ev.NativeTransfers) == 0 {
		s.log.Info("no native transfers in event, skipping", "signature", ev.Signature, "game", game)
		return outcomeSkipped
	}

	transfer := ev.NativeTransfers[0]
	record := &domain.DepositRecord{
		ID:          uuid.New(),
		Address:     transfer.FromUserAccount,
		Game:        game,
		Amount:      domain.SOLFromLamports(transfer.Amount),
		Handle:      handle,
		Signature:   ev.Signature,
		Description: ev.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if ev.Timestamp > 0 {
		ts := time.Unix(ev.Timestamp, 0).UTC()
		record.WebhookTimestamp = &ts
	}

	if err := s.deposits.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrDuplicateDeposit) {
			// Re-delivery of an already-credited deposit; the ledger
			// constraint makes this a no-op.
			s.log.Info("duplicate deposit delivery ignored",
				"signature", ev.Signature, "address", record.Address, "game", game)
			return outcomeDuplicate
		}
		s.log.Error("failed to save deposit",
			"signature", ev.Signature, "address", record.Address, "game", game, "err", err)
		return outcomeError
	}

	s.log.Info("deposit recorded",
		"signature", ev.Signature,
		"address", record.Address,
		"game", game,
		"handle", handle,
		"amount", record.Amount,
	)
	return outcomeSaved
}

// extractMemo locates the memo-program instruction in the event and decodes
// its base58 payload to UTF-8.  Decoding failures are logged and treated as
// "no match".
func (s *IngestService) extractMemo(ev domain.TransactionEvent) (string, bool) {
	for _, ix := range ev.Instructions {
		if ix.ProgramID != domain.MemoProgramID {
			continue
		}
		raw, err := base58.Decode(ix.Data)
		if err != nil {
			s.log.Warn("failed to decode memo payload", "signature", ev.Signature, "err", err)
			continue
		}
		if !utf8.Valid(raw) {
			s.log.Warn("memo payload is not valid UTF-8", "signature", ev.Signature)
			continue
		}
		return string(raw), true
	}
	return "", false
}
