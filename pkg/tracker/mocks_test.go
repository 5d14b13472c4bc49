package tracker

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/pkg/bridge"
	"github.com/magnetchain/bridge-tracker/pkg/config"
	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
	"github.com/magnetchain/bridge-tracker/pkg/ledger"
)

// mockChain implements Chain with overridable behavior per test.
// Unset functions return zero values.
type mockChain struct {
	chainID                   int64
	AccountFunc               func() (common.Address, bool)
	BlockNumberFunc           func(ctx context.Context) (uint64, error)
	BalanceAtFunc             func(ctx context.Context, account common.Address) (*big.Int, error)
	ReceiptFunc               func(ctx context.Context, txHash common.Hash) (*ethereum.Receipt, error)
	FilterExecutionEventsFunc func(ctx context.Context, multisig common.Address, block uint64) ([]ethereum.ExecutionEvent, error)
	SendNativeTransferFunc    func(ctx context.Context, to common.Address, amountWei *big.Int) (common.Hash, error)
	WithdrawFunc              func(ctx context.Context, bridgeAddr common.Address, magnetAddress string, amountWei *big.Int, gasLimit uint64) (common.Hash, error)
}

func (m *mockChain) ChainID() int64 { return m.chainID }

func (m *mockChain) Account() (common.Address, bool) {
	if m.AccountFunc == nil {
		return common.HexToAddress(testSigner), true
	}
	return m.AccountFunc()
}

func (m *mockChain) BlockNumber(ctx context.Context) (uint64, error) {
	if m.BlockNumberFunc == nil {
		return 0, nil
	}
	return m.BlockNumberFunc(ctx)
}

func (m *mockChain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	if m.BalanceAtFunc == nil {
		return new(big.Int), nil
	}
	return m.BalanceAtFunc(ctx, account)
}

func (m *mockChain) Receipt(ctx context.Context, txHash common.Hash) (*ethereum.Receipt, error) {
	if m.ReceiptFunc == nil {
		return nil, nil
	}
	return m.ReceiptFunc(ctx, txHash)
}

func (m *mockChain) FilterExecutionEvents(ctx context.Context, multisig common.Address, block uint64) ([]ethereum.ExecutionEvent, error) {
	if m.FilterExecutionEventsFunc == nil {
		return nil, nil
	}
	return m.FilterExecutionEventsFunc(ctx, multisig, block)
}

func (m *mockChain) SendNativeTransfer(ctx context.Context, to common.Address, amountWei *big.Int) (common.Hash, error) {
	if m.SendNativeTransferFunc == nil {
		return common.Hash{}, nil
	}
	return m.SendNativeTransferFunc(ctx, to, amountWei)
}

func (m *mockChain) Withdraw(ctx context.Context, bridgeAddr common.Address, magnetAddress string, amountWei *big.Int, gasLimit uint64) (common.Hash, error) {
	if m.WithdrawFunc == nil {
		return common.Hash{}, nil
	}
	return m.WithdrawFunc(ctx, bridgeAddr, magnetAddress, amountWei, gasLimit)
}

// memLedger is an in-memory Ledger sharing the merge semantics of the
// real store.
type memLedger struct {
	mu      sync.Mutex
	records map[string]*ledger.Record
	upserts int
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]*ledger.Record)}
}

func memKey(account, txHash string) string {
	return strings.ToLower(account) + "|" + txHash
}

func (m *memLedger) Upsert(_ context.Context, account string, p ledger.Patch) (*ledger.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++

	now := time.Now().UTC()
	key := memKey(account, p.TxHash)
	if existing, ok := m.records[key]; ok {
		merged := ledger.Merge(*existing, p, now)
		m.records[key] = &merged
		return &merged, true
	}
	rec := ledger.NewRecord(p, now)
	m.records[key] = rec
	return rec, true
}

func (m *memLedger) Get(_ context.Context, account, txHash string) (*ledger.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[memKey(account, txHash)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memLedger) List(_ context.Context, account string) ([]*ledger.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.ToLower(account) + "|"
	var out []*ledger.Record
	for key, rec := range m.records {
		if strings.HasPrefix(key, prefix) {
			copied := *rec
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *memLedger) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// failLedger simulates a dead persistence layer: every write is
// rejected the way the real ledger reports a swallowed store error,
// every read misses.
type failLedger struct {
	mu      sync.Mutex
	upserts int
}

func (f *failLedger) Upsert(context.Context, string, ledger.Patch) (*ledger.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	return nil, false
}

func (f *failLedger) Get(context.Context, string, string) (*ledger.Record, error) {
	return nil, ledger.ErrNotFound
}

func (f *failLedger) List(context.Context, string) ([]*ledger.Record, error) {
	return nil, nil
}

func (f *failLedger) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

// mockParams serves a fixed snapshot.
type mockParams struct {
	snapshot *bridge.Parameters
	fetchErr error
}

func (m *mockParams) Fetch(context.Context) (*bridge.Parameters, error) {
	if m.fetchErr != nil {
		return m.snapshot, m.fetchErr
	}
	return m.snapshot, nil
}

func (m *mockParams) Snapshot() *bridge.Parameters { return m.snapshot }

const (
	testSigner   = "0x5A5a5a5A5a5A5a5a5A5a5a5a5A5a5A5a5A5a5a5A"
	testBridge   = "0x00000000000000000000000000000000000000bb"
	testMultisig = "0x00000000000000000000000000000000000000cc"
	testTxHash   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func testBridgeConfig() *config.BridgeConfig {
	return &config.BridgeConfig{
		BSCBridgeContract:     testBridge,
		MagnetMultisig:        testMultisig,
		ActiveChainID:         114514,
		DepositFloor:          "10000",
		DepositConfirmations:  12,
		WithdrawConfirmations: 2,
		WithdrawGasLimit:      300000,
		PollInterval:          time.Millisecond,
		PollAttempts:          20,
		ManualPollAttempts:    50,
		FallbackFeeRatio:      "0.005",
	}
}

// newTestTracker builds a tracker over the given mocks with instant
// sleeps.
func newTestTracker(cfg *config.BridgeConfig, magnet, bsc *mockChain, l Ledger, params ParameterSource) *Tracker {
	if cfg == nil {
		cfg = testBridgeConfig()
	}
	if params == nil {
		params = &mockParams{}
	}
	trk, err := New(cfg, magnet, bsc, l, params, zap.NewNop())
	if err != nil {
		panic(err)
	}
	return trk.WithSleeper(func(context.Context, time.Duration) error { return nil })
}
