package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/internal/metrics"
	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
)

// parameterMethods are the bridge contract's view getters, read
// together in one batch so every snapshot is internally consistent.
var parameterMethods = []string{
	"paused",
	"feePercentage",
	"minTransactionAmount",
	"maxTransactionAmount",
	"dailyTransactionLimit",
}

// BatchCaller is the slice of chain client the reader needs.
type BatchCaller interface {
	BatchRead(ctx context.Context, contract common.Address, methods []string) ([]ethereum.CallResult, error)
}

// Reader fetches bridge parameters from the BSC contract and retains
// the last good snapshot. Consumers that can tolerate staleness read
// Snapshot; consumers that need freshness call Fetch and decide what a
// fetch error means for them.
type Reader struct {
	client   BatchCaller
	contract common.Address
	logger   *zap.Logger

	mu       sync.RWMutex
	snapshot *Parameters
}

// NewReader creates a parameter reader for the given bridge contract.
func NewReader(client BatchCaller, contract common.Address, logger *zap.Logger) *Reader {
	return &Reader{
		client:   client,
		contract: contract,
		logger:   logger,
	}
}

// Fetch reads all five parameters in one round trip and refreshes the
// retained snapshot. When the batch itself fails the previous snapshot
// is returned alongside the error, so callers keep working from
// stale-but-known values.
func (r *Reader) Fetch(ctx context.Context) (*Parameters, error) {
	results, err := r.client.BatchRead(ctx, r.contract, parameterMethods)
	if err != nil {
		metrics.ParameterFetches.WithLabelValues("failure").Inc()
		r.logger.Warn("Bridge parameter fetch failed", zap.Error(err))
		return r.Snapshot(), fmt.Errorf("failed to fetch bridge parameters: %w", err)
	}

	for i, res := range results {
		if !res.OK() {
			r.logger.Warn("Bridge parameter read failed",
				zap.String("method", parameterMethods[i]),
				zap.Error(res.Err))
		}
	}

	params := decodeParameters(results)
	r.mu.Lock()
	r.snapshot = &params
	r.mu.Unlock()

	metrics.ParameterFetches.WithLabelValues("success").Inc()
	return &params, nil
}

// Snapshot returns the last successfully decoded parameters, or nil if
// no fetch has succeeded yet.
func (r *Reader) Snapshot() *Parameters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snapshot == nil {
		return nil
	}
	copied := *r.snapshot
	return &copied
}
