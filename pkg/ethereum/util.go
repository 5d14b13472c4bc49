package ethereum

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// nativeDecimals is the precision of both bridged chains' native tokens.
const nativeDecimals = 18

var weiPerToken = decimal.New(1, nativeDecimals)

// ToWei converts a token amount to its wei representation.
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Mul(weiPerToken).BigInt()
}

// FromWei converts a wei value back to a token amount.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Div(weiPerToken)
}

// FromWeiValue converts an untyped batch-read value known to be a
// uint256 into a token amount.
func FromWeiValue(v any) (decimal.Decimal, error) {
	wei, ok := v.(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("expected uint256, got %T", v)
	}
	return FromWei(wei), nil
}
