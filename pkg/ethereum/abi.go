package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI surface of the MAGBridge contract: the five parameter
// getters batched by the status reader plus the withdraw entry point.
const bridgeABIJSON = `[
	{"type":"function","name":"paused","inputs":[],"outputs":[{"type":"bool"}],"stateMutability":"view"},
	{"type":"function","name":"feePercentage","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"minTransactionAmount","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"maxTransactionAmount","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"dailyTransactionLimit","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"withdraw","inputs":[{"type":"string","name":"magnetAddress"},{"type":"uint256","name":"amount"}],"outputs":[{"type":"bool"}],"stateMutability":"nonpayable"}
]`

// Execution is emitted by the Magnet multisig when a queued transaction
// reaches quorum and runs.
const multisigABIJSON = `[
	{"type":"event","name":"Execution","inputs":[{"type":"uint256","name":"transactionId","indexed":true}]}
]`

var (
	// BridgeABI is the parsed MAGBridge contract interface
	BridgeABI abi.ABI
	// MultisigABI is the parsed Magnet multisig wallet interface
	MultisigABI abi.ABI
)

func init() {
	var err error
	BridgeABI, err = abi.JSON(strings.NewReader(bridgeABIJSON))
	if err != nil {
		panic("invalid bridge ABI: " + err.Error())
	}
	MultisigABI, err = abi.JSON(strings.NewReader(multisigABIJSON))
	if err != nil {
		panic("invalid multisig ABI: " + err.Error())
	}
}
