// Package tracker owns the bridge transaction lifecycle: submitting
// deposits and withdrawals, polling chain state to classify them, and
// answering status queries from the ledger.
package tracker

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/pkg/bridge"
	"github.com/magnetchain/bridge-tracker/pkg/config"
	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
	"github.com/magnetchain/bridge-tracker/pkg/ledger"
)

// Chain is the slice of chain client the tracker uses. One value per
// chain; switching chains means handing the tracker different values.
type Chain interface {
	ChainID() int64
	Account() (common.Address, bool)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	Receipt(ctx context.Context, txHash common.Hash) (*ethereum.Receipt, error)
	FilterExecutionEvents(ctx context.Context, multisig common.Address, block uint64) ([]ethereum.ExecutionEvent, error)
	SendNativeTransfer(ctx context.Context, to common.Address, amountWei *big.Int) (common.Hash, error)
	Withdraw(ctx context.Context, bridge common.Address, magnetAddress string, amountWei *big.Int, gasLimit uint64) (common.Hash, error)
}

// Ledger is the persistence surface the tracker writes through.
// Upsert's flag reports whether the write stuck; the tracker never
// treats a failed write as an operation failure.
type Ledger interface {
	Upsert(ctx context.Context, account string, p ledger.Patch) (*ledger.Record, bool)
	Get(ctx context.Context, account, txHash string) (*ledger.Record, error)
	List(ctx context.Context, account string) ([]*ledger.Record, error)
}

// ParameterSource provides bridge contract parameters.
type ParameterSource interface {
	Fetch(ctx context.Context) (*bridge.Parameters, error)
	Snapshot() *bridge.Parameters
}

// Sleeper pauses between poll attempts. Tests inject a no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tracker coordinates submissions, lifecycle polling and status reads.
type Tracker struct {
	cfg    *config.BridgeConfig
	magnet Chain
	bsc    Chain
	ledger Ledger
	params ParameterSource
	sleep  Sleeper
	logger *zap.Logger

	activeChainID int64
	bridgeAddr    common.Address
	multisigAddr  common.Address
	depositFloor  decimal.Decimal
	fallbackFee   decimal.Decimal
}

// New creates a Tracker wired to the two chain clients and the ledger.
func New(cfg *config.BridgeConfig, magnet, bsc Chain, l Ledger, params ParameterSource, logger *zap.Logger) (*Tracker, error) {
	if !common.IsHexAddress(cfg.BSCBridgeContract) {
		return nil, fmt.Errorf("invalid bridge contract address %q", cfg.BSCBridgeContract)
	}
	if !common.IsHexAddress(cfg.MagnetMultisig) {
		return nil, fmt.Errorf("invalid multisig address %q", cfg.MagnetMultisig)
	}
	depositFloor, err := decimal.NewFromString(cfg.DepositFloor)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit floor %q: %w", cfg.DepositFloor, err)
	}
	fallbackFee, err := decimal.NewFromString(cfg.FallbackFeeRatio)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback fee ratio %q: %w", cfg.FallbackFeeRatio, err)
	}

	active := cfg.ActiveChainID
	if active == 0 {
		active = magnet.ChainID()
	}

	return &Tracker{
		cfg:           cfg,
		magnet:        magnet,
		bsc:           bsc,
		ledger:        l,
		params:        params,
		sleep:         defaultSleeper,
		logger:        logger,
		activeChainID: active,
		bridgeAddr:    common.HexToAddress(cfg.BSCBridgeContract),
		multisigAddr:  common.HexToAddress(cfg.MagnetMultisig),
		depositFloor:  depositFloor,
		fallbackFee:   fallbackFee,
	}, nil
}

// WithSleeper replaces the inter-attempt sleeper. Intended for tests.
func (t *Tracker) WithSleeper(s Sleeper) *Tracker {
	t.sleep = s
	return t
}

// ActiveChainID returns the chain the operator's wallet is attached to.
func (t *Tracker) ActiveChainID() int64 {
	return t.activeChainID
}

// sourceChain returns the client for the chain a transaction type is
// submitted on.
func (t *Tracker) sourceChain(txType ledger.TxType) Chain {
	if txType == ledger.TypeDeposit {
		return t.magnet
	}
	return t.bsc
}

// requiredConfirmations returns the completion threshold for a type.
func (t *Tracker) requiredConfirmations(txType ledger.TxType) int {
	if txType == ledger.TypeDeposit {
		return t.cfg.DepositConfirmations
	}
	return t.cfg.WithdrawConfirmations
}

// feeRatio returns the live bridge fee ratio, or the configured
// fallback when no snapshot exists or the contract reports zero.
func (t *Tracker) feeRatio() decimal.Decimal {
	if snap := t.params.Snapshot(); snap != nil && snap.FeeRatio.IsPositive() {
		return snap.FeeRatio
	}
	return t.fallbackFee
}
