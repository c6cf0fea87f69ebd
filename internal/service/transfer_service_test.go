package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/sendarcade/squadgames/internal/service"
)

// TestDisburse_Success: existing destination account, two instructions
// (priority fee + token transfer).
func TestDisburse_Success(t *testing.T) {
	chain := &fakeChain{}
	svc := service.NewTransferService(chain, testKey(t), testSwapConfig(), testLogger())

	sig, err := svc.Disburse(context.Background(), 500, testAddress(t))
	if err != nil {
		t.Fatalf("Disburse: %v", err)
	}
	if sig.IsZero() {
		t.Error("expected a non-zero signature")
	}
	if chain.sentCount() != 1 {
		t.Fatalf("transactions sent = %d, want 1", chain.sentCount())
	}
	if got := len(chain.sent[0].Message.Instructions); got != 2 {
		t.Errorf("instructions = %d, want 2 (priority fee + transfer)", got)
	}
}

// TestDisburse_CreatesMissingDestination: when the vault's token account does
// not exist on chain an account-creation instruction is prepended.
func TestDisburse_CreatesMissingDestination(t *testing.T) {
	chain := &fakeChain{
		accountExists: func(solana.PublicKey) (bool, error) { return false, nil },
	}
	svc := service.NewTransferService(chain, testKey(t), testSwapConfig(), testLogger())

	if _, err := svc.Disburse(context.Background(), 500, testAddress(t)); err != nil {
		t.Fatalf("Disburse: %v", err)
	}
	if got := len(chain.sent[0].Message.Instructions); got != 3 {
		t.Errorf("instructions = %d, want 3 (priority fee + create + transfer)", got)
	}
}

// TestDisburse_RetriesThenSucceeds: one send failure consumes one attempt.
func TestDisburse_RetriesThenSucceeds(t *testing.T) {
	chain := &fakeChain{sendErrs: []error{errors.New("blockhash expired"), nil}}
	svc := service.NewTransferService(chain, testKey(t), testSwapConfig(), testLogger())

	if _, err := svc.Disburse(context.Background(), 500, testAddress(t)); err != nil {
		t.Fatalf("Disburse should succeed on retry, got %v", err)
	}
	if chain.sendCalls != 2 {
		t.Errorf("send calls = %d, want 2", chain.sendCalls)
	}
}

// TestDisburse_ExhaustsRetries: three failures exhaust the budget and report
// ErrTransferFailed.
func TestDisburse_ExhaustsRetries(t *testing.T) {
	boom := errors.New("node unreachable")
	chain := &fakeChain{sendErrs: []error{boom, boom, boom}}
	svc := service.NewTransferService(chain, testKey(t), testSwapConfig(), testLogger())

	_, err := svc.Disburse(context.Background(), 500, testAddress(t))
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if chain.sendCalls != 3 {
		t.Errorf("send calls = %d, want 3", chain.sendCalls)
	}
}

// TestDisburse_ZeroAmount is rejected before any chain interaction.
func TestDisburse_ZeroAmount(t *testing.T) {
	chain := &fakeChain{}
	svc := service.NewTransferService(chain, testKey(t), testSwapConfig(), testLogger())

	_, err := svc.Disburse(context.Background(), 0, testAddress(t))
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if chain.sendCalls != 0 {
		t.Errorf("send calls = %d, want 0", chain.sendCalls)
	}
}

// TestDisburse_BadVaultAddress is rejected before any chain interaction.
func TestDisburse_BadVaultAddress(t *testing.T) {
	chain := &fakeChain{}
	svc := service.NewTransferService(chain, testKey(t), testSwapConfig(), testLogger())

	_, err := svc.Disburse(context.Background(), 500, "not-an-address")
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if chain.sendCalls != 0 {
		t.Errorf("send calls = %d, want 0", chain.sendCalls)
	}
}
