package bridge

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
)

// tokens converts a whole-token amount into its wei representation.
func tokens(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(n), wei)
}

func okResults() []ethereum.CallResult {
	return []ethereum.CallResult{
		{Value: false},                 // paused
		{Value: big.NewInt(50)},        // feePercentage, basis points
		{Value: tokens(10)},            // minTransactionAmount
		{Value: tokens(1_000_000)},     // maxTransactionAmount
		{Value: tokens(100_000_000)},   // dailyTransactionLimit
	}
}

func TestDecodeParameters(t *testing.T) {
	p := decodeParameters(okResults())

	assert.False(t, p.Paused)
	assert.True(t, p.FeeRatio.Equal(decimal.RequireFromString("0.005")),
		"50 bps must decode as ratio 0.005, got %s", p.FeeRatio)
	assert.True(t, p.MinAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.MaxAmount.Equal(decimal.NewFromInt(1_000_000)))
	assert.True(t, p.DailyLimit.Equal(decimal.NewFromInt(100_000_000)))
	assert.False(t, p.MaxUnlimited())
	assert.False(t, p.DailyUnlimited())
}

func TestDecodeParameters_UnlimitedSentinel(t *testing.T) {
	results := okResults()
	results[3] = ethereum.CallResult{Value: tokens(1_000_000_000_000)} // 1e12 tokens

	p := decodeParameters(results)
	assert.True(t, p.MaxUnlimited(), "1e12 tokens must read as unlimited")

	// the threshold itself is still a real limit
	results[3] = ethereum.CallResult{Value: tokens(100_000_000_000)} // exactly 1e11
	p = decodeParameters(results)
	assert.False(t, p.MaxUnlimited())
}

func TestDecodeParameters_PerFieldFallback(t *testing.T) {
	results := okResults()
	results[0] = ethereum.CallResult{Err: errors.New("execution reverted")}
	results[3] = ethereum.CallResult{Err: errors.New("execution reverted")}

	p := decodeParameters(results)

	// failed fields take safe defaults, the rest of the batch survives
	assert.False(t, p.Paused)
	assert.True(t, p.MaxAmount.IsZero())
	assert.True(t, p.FeeRatio.Equal(decimal.RequireFromString("0.005")))
	assert.True(t, p.MinAmount.Equal(decimal.NewFromInt(10)))
}

func TestDecodeParameters_ShortBatchFallsBackEntirely(t *testing.T) {
	for _, results := range [][]ethereum.CallResult{nil, okResults()[:3]} {
		p := decodeParameters(results)

		assert.False(t, p.Paused)
		assert.True(t, p.FeeRatio.IsZero())
		assert.True(t, p.MinAmount.IsZero())
		assert.True(t, p.MaxAmount.IsZero())
		assert.True(t, p.DailyLimit.IsZero())
	}
}
