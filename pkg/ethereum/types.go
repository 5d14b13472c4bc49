package ethereum

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CallResult is the tagged outcome of one read in a batch. A batch can
// partially fail; callers must branch on Err rather than on zero values.
type CallResult struct {
	Value any
	Err   error
}

// OK reports whether the call produced a usable value.
func (r CallResult) OK() bool {
	return r.Err == nil
}

// Receipt is the subset of a transaction receipt the tracker consumes.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Succeeded   bool
}

// ExecutionEvent is one Execution log emitted by the Magnet multisig.
type ExecutionEvent struct {
	TransactionID *big.Int
	BlockNumber   uint64
	TxHash        common.Hash
}
