package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Validation errors
var (
	// ErrInvalidAccount is returned when a request carries a malformed
	// base58 address.
	ErrInvalidAccount = errors.New("invalid account provided")

	// ErrMissingHandle is returned when the deposit action is requested
	// without the player handle parameter.
	ErrMissingHandle = errors.New("missing required handle parameter")
)

// Ledger errors
var (
	// ErrDuplicateDeposit is returned when a DepositRecord already exists for
	// the (address, game) pair.  The webhook ingestor swallows it (idempotent
	// re-delivery); the action endpoint surfaces it as a rejection.
	ErrDuplicateDeposit = errors.New("deposit already recorded for this address and game")

	// ErrMultisigNotFound is returned when no vault has been provisioned for
	// the requested game.
	ErrMultisigNotFound = errors.New("no multisig recorded for this game")
)

// Settlement errors
var (
	// ErrEmptyPot is returned when settlement is triggered for a game with no
	// verified deposits.  Fatal for the attempt; nothing to aggregate.
	ErrEmptyPot = errors.New("no deposits recorded for this game")

	// ErrFormationFailed is returned when the vault-formation transaction is
	// rejected or its confirmation times out, after exhausting retries.
	ErrFormationFailed = errors.New("multisig formation failed")

	// ErrConversionFailed is returned when the stake-to-reward-token swap
	// could not be completed within the retry budget, or the received amount
	// fell outside the slippage envelope.
	ErrConversionFailed = errors.New("currency conversion failed")

	// ErrTransferFailed is returned when the payout transfer into the vault
	// could not be confirmed within the retry budget.
	ErrTransferFailed = errors.New("payout transfer failed")

	// ErrAlreadySettled is returned when a vault already exists for the game.
	ErrAlreadySettled = errors.New("game is already settled")

	// ErrSettlementInProgress is returned when another settlement attempt for
	// the same game currently holds the in-flight slot.
	ErrSettlementInProgress = errors.New("settlement already in progress for this game")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// IsValidation returns true for request-shape errors that translate to
// HTTP 400 — non-retryable, surfaced to the caller immediately.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrInvalidAccount,
		ErrMissingHandle,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict (a
// duplicate join, a second settlement for the same game).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrDuplicateDeposit,
		ErrAlreadySettled,
		ErrSettlementInProgress,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
