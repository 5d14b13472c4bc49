// Package ledger persists the per-account history of bridge transactions
// and their last-known lifecycle status.
package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/internal/metrics"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Ledger wraps a Store with the degradation policy the tracker relies
// on: persistence failures are logged and swallowed, never propagated.
// The optional cache serves the status facade's hot path.
type Ledger struct {
	store  Store
	cache  *Cache
	logger *zap.Logger
}

// New creates a ledger. cache may be nil.
func New(store Store, cache *Cache, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, cache: cache, logger: logger}
}

// Upsert merges the patch into the account's ledger. The returned flag
// reports whether the write stuck; a false return means the status is
// visible this session only and callers may surface that, but must not
// treat it as an operation failure.
func (l *Ledger) Upsert(ctx context.Context, account string, p Patch) (*Record, bool) {
	rec, err := l.store.Upsert(ctx, account, p)
	if err != nil {
		l.logger.Error("Ledger write failed",
			zap.String("account", account),
			zap.String("tx_hash", p.TxHash),
			zap.Error(err))
		metrics.LedgerWriteFailures.Inc()
		return nil, false
	}

	if l.cache != nil {
		l.cache.Put(ctx, account, rec)
	}
	return rec, true
}

// Get looks up one record, consulting the cache first.
func (l *Ledger) Get(ctx context.Context, account, txHash string) (*Record, error) {
	if l.cache != nil {
		if rec, ok := l.cache.Get(ctx, account, txHash); ok {
			return rec, nil
		}
	}

	rec, err := l.store.Get(ctx, account, txHash)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		l.cache.Put(ctx, account, rec)
	}
	return rec, nil
}

// List returns the account's records, newest first.
func (l *Ledger) List(ctx context.Context, account string) ([]*Record, error) {
	return l.store.List(ctx, account)
}
