package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/sendarcade/squadgames/internal/solana/jupiter"
	"github.com/shopspring/decimal"
)

// ── Shared helpers ────────────────────────────────────────────────────────────

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func testAddress(t *testing.T) string {
	t.Helper()
	return testKey(t).PublicKey().String()
}

// ── In-memory stores ──────────────────────────────────────────────────────────

// fakeDepositStore mimics the txs table's UNIQUE(address, game) constraint.
type fakeDepositStore struct {
	mu      sync.Mutex
	records []*domain.DepositRecord
	listErr error
	saveErr error
}

func (f *fakeDepositStore) Create(ctx context.Context, d *domain.DepositRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, r := range f.records {
		if r.Address == d.Address && r.Game == d.Game {
			return domain.ErrDuplicateDeposit
		}
	}
	f.records = append(f.records, d)
	return nil
}

func (f *fakeDepositStore) ListByGame(ctx context.Context, game int64) ([]*domain.DepositRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.DepositRecord
	for _, r := range f.records {
		if r.Game == game {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDepositStore) Exists(ctx context.Context, address string, game int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Address == address && r.Game == game {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDepositStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeMultisigStore mimics the multisigs table's UNIQUE(game) constraint.
type fakeMultisigStore struct {
	mu      sync.Mutex
	records map[int64]*domain.MultisigRecord
}

func newFakeMultisigStore() *fakeMultisigStore {
	return &fakeMultisigStore{records: make(map[int64]*domain.MultisigRecord)}
}

func (f *fakeMultisigStore) Create(ctx context.Context, m *domain.MultisigRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[m.Game]; ok {
		return domain.ErrAlreadySettled
	}
	f.records[m.Game] = m
	return nil
}

func (f *fakeMultisigStore) GetByGame(ctx context.Context, game int64) (*domain.MultisigRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.records[game]; ok {
		return m, nil
	}
	return nil, domain.ErrMultisigNotFound
}

type fakePlayerStore struct {
	mu      sync.Mutex
	entries []*domain.PlayerEntry
	saveErr error
}

func (f *fakePlayerStore) Create(ctx context.Context, p *domain.PlayerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = append(f.entries, p)
	return nil
}

// ── Chain client fake ─────────────────────────────────────────────────────────

// fakeChain implements service.ChainClient.  Every method has a sane default;
// override via the func fields.  sent collects every submitted transaction.
type fakeChain struct {
	mu   sync.Mutex
	sent []*solana.Transaction

	sendErrs      []error // consumed per call; nil entry = success
	sendCalls     int
	balances      []uint64 // consumed per TokenBalance call; last repeats
	balanceCalls  int
	accountExists func(solana.PublicKey) (bool, error)
	accountData   func(solana.PublicKey) ([]byte, error)
	blockhashErr  error
}

func (f *fakeChain) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if f.blockhashErr != nil {
		return solana.Hash{}, f.blockhashErr
	}
	return solana.Hash{1}, nil
}

func (f *fakeChain) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.sendCalls
	f.sendCalls++
	if call < len(f.sendErrs) && f.sendErrs[call] != nil {
		return solana.Signature{}, f.sendErrs[call]
	}
	f.sent = append(f.sent, tx)
	return solana.Signature{byte(call + 1)}, nil
}

func (f *fakeChain) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	if f.accountExists != nil {
		return f.accountExists(address)
	}
	return true, nil
}

func (f *fakeChain) AccountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	if f.accountData != nil {
		return f.accountData(address)
	}
	return nil, domain.ErrMultisigNotFound
}

func (f *fakeChain) TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.balances) == 0 {
		return 0, nil
	}
	i := f.balanceCalls
	f.balanceCalls++
	if i >= len(f.balances) {
		i = len(f.balances) - 1
	}
	return f.balances[i], nil
}

func (f *fakeChain) LookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	return map[solana.PublicKey]solana.PublicKeySlice{}, nil
}

func (f *fakeChain) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// ── Swap venue fake ───────────────────────────────────────────────────────────

type fakeVenue struct {
	mu         sync.Mutex
	quoteCalls int
	quote      *jupiter.Quote
	quoteErr   error
	swapErr    error
}

func (f *fakeVenue) Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error) {
	f.mu.Lock()
	f.quoteCalls++
	f.mu.Unlock()
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeVenue) SwapInstructions(ctx context.Context, quote *jupiter.Quote, user solana.PublicKey) (*jupiter.SwapInstructions, error) {
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return &jupiter.SwapInstructions{
		SwapInstruction: jupiter.Instruction{
			ProgramID: "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4",
			Accounts: []jupiter.AccountMeta{
				{Pubkey: user.String(), IsSigner: false, IsWritable: true},
			},
			Data: "AQID",
		},
	}, nil
}

// ── Pipeline step fakes (orchestrator tests) ──────────────────────────────────

type fakeAggregator struct {
	pot *domain.Pot
	err error
}

func (f *fakeAggregator) Aggregate(ctx context.Context, game int64) (*domain.Pot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pot, nil
}

type fakeProvisioner struct {
	record    *domain.MultisigRecord
	err       error
	started   chan struct{} // closed once on first call, when non-nil
	release   chan struct{} // blocks the call until closed, when non-nil
	blockGame int64         // when non-zero, only calls for this game block
	once      sync.Once
}

func (f *fakeProvisioner) Provision(ctx context.Context, game int64, participants []string, threshold int) (*domain.MultisigRecord, error) {
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release != nil && (f.blockGame == 0 || game == f.blockGame) {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeConverter struct {
	amount uint64
	err    error
}

func (f *fakeConverter) Convert(ctx context.Context, amount decimal.Decimal) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.amount, nil
}

type fakeDisburser struct {
	mu     sync.Mutex
	calls  int
	lastTo string
	err    error
}

func (f *fakeDisburser) Disburse(ctx context.Context, amount uint64, vaultAddress string) (solana.Signature, error) {
	f.mu.Lock()
	f.calls++
	f.lastTo = vaultAddress
	f.mu.Unlock()
	if f.err != nil {
		return solana.Signature{}, f.err
	}
	return solana.Signature{9}, nil
}
