// Package jupiter is the HTTP client for the Jupiter v6 liquidity venue:
// a quote-retrieval call and a swap-instruction-build call.  Both are
// idempotent and side-effect-free — nothing moves until the caller submits
// the assembled chain transaction itself.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Client talks to the Jupiter quote API.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient constructs a Client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Quote
// ──────────────────────────────────────────────────────────────────────────────

// QuoteRequest are the parameters of a quote call.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64 // input, smallest units
	SlippageBps int
}

// Quote is a priced swap route.  OutAmount is the expected output and
// OtherAmountThreshold the minimum acceptable output under the requested
// slippage.  Raw preserves the venue's full response for the follow-up
// swap-instructions call, which requires it verbatim.
type Quote struct {
	InAmount             uint64
	OutAmount            uint64
	OtherAmountThreshold uint64
	Raw                  json.RawMessage
}

// Quote requests a price quote for swapping Amount of InputMint into
// OutputMint within the slippage tolerance.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))
	q.Set("slippageBps", strconv.Itoa(req.SlippageBps))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("jupiter.Quote: %w", err)
	}

	body, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("jupiter.Quote: %w", err)
	}

	var parsed struct {
		OutAmount            string `json:"outAmount"`
		InAmount             string `json:"inAmount"`
		OtherAmountThreshold string `json:"otherAmountThreshold"`
		Error                string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("jupiter.Quote: decode: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("jupiter.Quote: venue error: %s", parsed.Error)
	}

	out, err := strconv.ParseUint(parsed.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("jupiter.Quote: parse outAmount %q: %w", parsed.OutAmount, err)
	}
	in, err := strconv.ParseUint(parsed.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("jupiter.Quote: parse inAmount %q: %w", parsed.InAmount, err)
	}
	threshold, err := strconv.ParseUint(parsed.OtherAmountThreshold, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("jupiter.Quote: parse otherAmountThreshold %q: %w", parsed.OtherAmountThreshold, err)
	}

	return &Quote{
		InAmount:             in,
		OutAmount:            out,
		OtherAmountThreshold: threshold,
		Raw:                  json.RawMessage(body),
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Swap instructions
// ──────────────────────────────────────────────────────────────────────────────

// Instruction is a venue-serialized chain instruction: base58 program id,
// ordered account metas, base64 data.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"`
}

// AccountMeta is one account reference inside a venue-serialized instruction.
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Build converts a venue-serialized instruction into a signable one.
func (ix Instruction) Build() (solana.Instruction, error) {
	programID, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("jupiter: instruction program id %q: %w", ix.ProgramID, err)
	}
	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, fmt.Errorf("jupiter: instruction data: %w", err)
	}
	accounts := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, a := range ix.Accounts {
		pubkey, err := solana.PublicKeyFromBase58(a.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("jupiter: instruction account %q: %w", a.Pubkey, err)
		}
		accounts = append(accounts, solana.NewAccountMeta(pubkey, a.IsWritable, a.IsSigner))
	}
	return solana.NewInstruction(programID, accounts, data), nil
}

// SwapInstructions is the venue-prepared instruction set for executing a
// quoted swap.
type SwapInstructions struct {
	SetupInstructions           []Instruction `json:"setupInstructions"`
	SwapInstruction             Instruction   `json:"swapInstruction"`
	CleanupInstruction          *Instruction  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string      `json:"addressLookupTableAddresses"`
	Error                       string        `json:"error"`
}

// LookupTableKeys parses the venue's lookup table addresses.
func (si *SwapInstructions) LookupTableKeys() ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(si.AddressLookupTableAddresses))
	for _, addr := range si.AddressLookupTableAddresses {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("jupiter: lookup table address %q: %w", addr, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// SwapInstructions requests venue-prepared instructions for executing quote
// against the given user's holding account.
func (c *Client) SwapInstructions(ctx context.Context, quote *Quote, user solana.PublicKey) (*SwapInstructions, error) {
	payload, err := json.Marshal(map[string]any{
		"quoteResponse":           quote.Raw,
		"userPublicKey":           user.String(),
		"dynamicComputeUnitLimit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("jupiter.SwapInstructions: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap-instructions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("jupiter.SwapInstructions: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("jupiter.SwapInstructions: %w", err)
	}

	var out SwapInstructions
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("jupiter.SwapInstructions: decode: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("jupiter.SwapInstructions: venue error: %s", out.Error)
	}
	return &out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// HTTP plumbing
// ──────────────────────────────────────────────────────────────────────────────

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
