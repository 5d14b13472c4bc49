package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/magnetchain/bridge-tracker/pkg/app/errors"
	"github.com/magnetchain/bridge-tracker/pkg/bridge"
	"github.com/magnetchain/bridge-tracker/pkg/ledger"
)

// GetStatus returns the last known lifecycle state of a transaction. A
// ledger hit comes back immediately while one background poll pass
// refreshes it for the next caller; a miss synthesizes an unpersisted
// pending placeholder so callers always have something to render.
func (t *Tracker) GetStatus(ctx context.Context, account, txHash string, txType ledger.TxType) (*ledger.Record, error) {
	if !txType.Valid() {
		return nil, apperrors.ValidationError(nil, "type must be deposit or withdraw")
	}

	rec, err := t.ledger.Get(ctx, account, txHash)
	if err == nil {
		if !rec.Status.Terminal() {
			go t.backgroundPoll(account, txHash, txType)
		}
		return rec, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		t.logger.Warn("Ledger read failed, serving placeholder",
			zap.String("tx_hash", txHash), zap.Error(err))
	}

	now := time.Now().UTC()
	return &ledger.Record{
		TxHash:                txHash,
		ID:                    ledger.NewID(txType, now),
		Type:                  txType,
		FromChain:             txType.SourceChain(),
		ToChain:               txType.DestinationChain(),
		Status:                ledger.StatusPending,
		Confirmations:         0,
		RequiredConfirmations: t.requiredConfirmations(txType),
		Timestamp:             now,
		UpdatedAt:             now,
	}, nil
}

// backgroundPoll runs a single detached poll pass.
func (t *Tracker) backgroundPoll(account, txHash string, txType ledger.TxType) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := t.Poll(ctx, account, txHash, txType, 1); err != nil {
		t.logger.Debug("Background poll skipped",
			zap.String("tx_hash", txHash), zap.Error(err))
	}
}

// ListTransactions returns one account's ledger, newest first.
func (t *Tracker) ListTransactions(ctx context.Context, account string) ([]*ledger.Record, error) {
	records, err := t.ledger.List(ctx, account)
	if err != nil {
		return nil, apperrors.PersistenceError(err, "could not load transaction history")
	}
	return records, nil
}

// EstimateFee previews the bridge fee for an amount using the live fee
// ratio, or the configured fallback before the first parameter fetch.
func (t *Tracker) EstimateFee(amount string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil || !amt.IsPositive() {
		return decimal.Zero, apperrors.ValidationError(err, "amount must be a positive decimal number")
	}
	return amt.Mul(t.feeRatio()), nil
}

// BridgeParameters fetches a fresh parameter snapshot, falling back to
// the last good one when the chain is unreachable.
func (t *Tracker) BridgeParameters(ctx context.Context) (*bridge.Parameters, error) {
	params, err := t.params.Fetch(ctx)
	if err != nil {
		if params != nil {
			t.logger.Warn("Serving stale bridge parameters", zap.Error(err))
			return params, nil
		}
		return nil, apperrors.ConnectivityError(err, "bridge parameters are unavailable")
	}
	return params, nil
}
