package bridge

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
)

type mockBatchCaller struct {
	BatchReadFunc func(ctx context.Context, contract common.Address, methods []string) ([]ethereum.CallResult, error)
}

func (m *mockBatchCaller) BatchRead(ctx context.Context, contract common.Address, methods []string) ([]ethereum.CallResult, error) {
	return m.BatchReadFunc(ctx, contract, methods)
}

var testContract = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func TestReader_Fetch(t *testing.T) {
	client := &mockBatchCaller{
		BatchReadFunc: func(_ context.Context, contract common.Address, methods []string) ([]ethereum.CallResult, error) {
			assert.Equal(t, testContract, contract)
			assert.Equal(t, parameterMethods, methods)
			return okResults(), nil
		},
	}
	r := NewReader(client, testContract, zap.NewNop())

	require.Nil(t, r.Snapshot(), "no snapshot before the first fetch")

	params, err := r.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, params.FeeRatio.Equal(decimal.RequireFromString("0.005")))

	snap := r.Snapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.MinAmount.Equal(decimal.NewFromInt(10)))
}

func TestReader_FailedRefreshKeepsStaleSnapshot(t *testing.T) {
	healthy := true
	client := &mockBatchCaller{
		BatchReadFunc: func(context.Context, common.Address, []string) ([]ethereum.CallResult, error) {
			if !healthy {
				return nil, errors.New("connection refused")
			}
			results := okResults()
			results[1] = ethereum.CallResult{Value: big.NewInt(100)} // 1%
			return results, nil
		},
	}
	r := NewReader(client, testContract, zap.NewNop())

	_, err := r.Fetch(context.Background())
	require.NoError(t, err)

	healthy = false
	stale, err := r.Fetch(context.Background())
	require.Error(t, err)
	require.NotNil(t, stale, "a failed refresh must hand back the previous snapshot")
	assert.True(t, stale.FeeRatio.Equal(decimal.RequireFromString("0.01")))

	snap := r.Snapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.FeeRatio.Equal(decimal.RequireFromString("0.01")))
}

func TestReader_FailureBeforeFirstSnapshot(t *testing.T) {
	client := &mockBatchCaller{
		BatchReadFunc: func(context.Context, common.Address, []string) ([]ethereum.CallResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	r := NewReader(client, testContract, zap.NewNop())

	params, err := r.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, params)
}
