// Package solana wraps the chain RPC connection used by the settlement
// pipeline.  A single Client is created at startup and injected into every
// service; it is read-only after construction and safe for concurrent use.
package solana

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sendarcade/squadgames/internal/config"
)

// rpcInvalidParams is the JSON-RPC error code nodes return for
// getTokenAccountBalance on an account that does not exist ("Invalid param:
// could not find account").
const rpcInvalidParams = -32602

// ErrConfirmationTimeout is returned when a submitted transaction does not
// reach confirmed commitment within the configured window.
var ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

// Client is a thin wrapper over the JSON-RPC client with the send-and-confirm
// sequence the pipeline relies on.
type Client struct {
	rpc            *rpc.Client
	confirmTimeout time.Duration
	pollInterval   time.Duration
	sendMaxRetries uint
}

// NewClient connects to the configured RPC endpoint.
func NewClient(cfg *config.SolanaConfig) *Client {
	return &Client{
		rpc:            rpc.New(cfg.RPCURL),
		confirmTimeout: cfg.ConfirmTimeout,
		pollInterval:   cfg.ConfirmPollInterval,
		sendMaxRetries: cfg.SendMaxRetries,
	}
}

// LatestBlockhash fetches a recent blockhash at confirmed commitment.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("solana.LatestBlockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

// SendAndConfirm submits a signed transaction (skipping preflight, with a
// small RPC-side resend budget) and polls signature status until the
// transaction reaches confirmed commitment or the confirmation window closes.
func (c *Client) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := c.sendMaxRetries
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
		MaxRetries:    &maxRetries,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("solana.SendAndConfirm: send: %w", err)
	}

	deadline := time.Now().Add(c.confirmTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return sig, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			// Transient status-poll failures do not fail the wait.
			continue
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}
		status := out.Value[0]
		if status.Err != nil {
			return sig, fmt.Errorf("solana.SendAndConfirm: transaction %s failed on chain: %v", sig, status.Err)
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return sig, nil
		}
	}
	return sig, fmt.Errorf("solana.SendAndConfirm: %s: %w", sig, ErrConfirmationTimeout)
}

// AccountExists reports whether an account is present on chain.
func (c *Client) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("solana.AccountExists: %w", err)
	}
	return true, nil
}

// AccountData fetches the raw data of an on-chain account.
func (c *Client) AccountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	out, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("solana.AccountData: %s: %w", address, err)
	}
	return out.Value.Data.GetBinary(), nil
}

// TokenBalance returns the raw smallest-unit balance of a token account.
// A missing account reads as zero — the account may simply not exist yet.
// Nodes report that case as an invalid-param RPC error rather than a null
// result, so the error code is the signal here.
func (c *Client) TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentConfirmed)
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == rpcInvalidParams {
			return 0, nil
		}
		return 0, fmt.Errorf("solana.TokenBalance: %s: %w", tokenAccount, err)
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("solana.TokenBalance: parse %q: %w", out.Value.Amount, err)
	}
	return amount, nil
}

// LookupTables resolves address lookup tables for versioned transaction
// assembly.  Tables that cannot be found are skipped, matching the venue's
// best-effort contract.
func (c *Client) LookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(addresses))
	if len(addresses) == 0 {
		return tables, nil
	}

	out, err := c.rpc.GetMultipleAccounts(ctx, addresses...)
	if err != nil {
		return nil, fmt.Errorf("solana.LookupTables: %w", err)
	}
	for i, acc := range out.Value {
		if acc == nil {
			continue
		}
		state, err := addresslookuptable.DecodeAddressLookupTableState(acc.Data.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("solana.LookupTables: decode %s: %w", addresses[i], err)
		}
		tables[addresses[i]] = state.Addresses
	}
	return tables, nil
}
