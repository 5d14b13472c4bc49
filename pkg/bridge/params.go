// Package bridge reads and interprets the BSC bridge contract's
// operating parameters.
package bridge

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
)

// unlimitedThreshold marks the sentinel the contract uses for "no
// limit": any bound above 1e11 tokens is treated as unlimited.
var unlimitedThreshold = decimal.New(1, 11)

// feeRatioDivisor converts the contract's basis-point fee into a ratio.
var feeRatioDivisor = decimal.NewFromInt(10000)

// Parameters is a decoded snapshot of the bridge contract state.
type Parameters struct {
	Paused     bool            `json:"paused"`
	FeeRatio   decimal.Decimal `json:"feeRatio"`
	MinAmount  decimal.Decimal `json:"minAmount"`
	MaxAmount  decimal.Decimal `json:"maxAmount"`
	DailyLimit decimal.Decimal `json:"dailyLimit"`
}

// MaxUnlimited reports whether the per-transaction maximum is the
// contract's unlimited sentinel.
func (p Parameters) MaxUnlimited() bool {
	return isUnlimited(p.MaxAmount)
}

// DailyUnlimited reports whether the daily volume cap is the contract's
// unlimited sentinel.
func (p Parameters) DailyUnlimited() bool {
	return isUnlimited(p.DailyLimit)
}

func isUnlimited(amount decimal.Decimal) bool {
	return amount.GreaterThan(unlimitedThreshold)
}

// decodeParameters maps the five batched call results onto a snapshot,
// absorbing per-field failures: a failed read of a single parameter
// falls back to that field's safe default instead of discarding the
// rest of the batch.
func decodeParameters(results []ethereum.CallResult) Parameters {
	p := Parameters{}

	// A short batch is treated as five failed reads.
	if len(results) != len(parameterMethods) {
		p.MinAmount = decimal.Zero
		p.MaxAmount = decimal.Zero
		p.DailyLimit = decimal.Zero
		return p
	}

	if results[0].OK() {
		if paused, ok := results[0].Value.(bool); ok {
			p.Paused = paused
		}
	}
	if results[1].OK() {
		if bps, ok := results[1].Value.(*big.Int); ok {
			p.FeeRatio = decimal.NewFromBigInt(bps, 0).Div(feeRatioDivisor)
		}
	}
	p.MinAmount = weiField(results[2])
	p.MaxAmount = weiField(results[3])
	p.DailyLimit = weiField(results[4])

	return p
}

func weiField(r ethereum.CallResult) decimal.Decimal {
	if !r.OK() {
		return decimal.Zero
	}
	amount, err := ethereum.FromWeiValue(r.Value)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
