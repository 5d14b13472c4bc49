// Package ethereum implements the chain read and wallet capabilities
// the tracker is built against, over a single JSON-RPC endpoint.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	gethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/pkg/config"
)

// Client wraps one chain's RPC endpoint and, when a signer key is
// configured, the wallet capability for that chain. A chain switch is a
// matter of handing the tracker a different Client, never of mutating
// one in place.
type Client struct {
	config     *config.ChainConfig
	client     *ethclient.Client
	rpcClient  *rpc.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger
}

// NewClient connects to a chain RPC endpoint. The signer key is
// optional; without it the client is read-only.
func NewClient(cfg *config.ChainConfig, logger *zap.Logger) (*Client, error) {
	rpcClient, err := rpc.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}
	client := ethclient.NewClient(rpcClient)

	c := &Client{
		config:    cfg,
		client:    client,
		rpcClient: rpcClient,
		logger:    logger,
	}

	if cfg.SignerKey != "" {
		privateKey, err := crypto.HexToECDSA(cfg.SignerKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load signer key: %w", err)
		}
		c.privateKey = privateKey
		c.address = crypto.PubkeyToAddress(privateKey.PublicKey)
	}

	logger.Info("Connected to chain",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("signer", c.address.Hex()))

	return c, nil
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() int64 {
	return c.config.ChainID
}

// Account returns the signing account, if one is configured.
func (c *Client) Account() (common.Address, bool) {
	if c.privateKey == nil {
		return common.Address{}, false
	}
	return c.address, true
}

// BlockNumber returns the current chain head height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	height, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain head: %w", err)
	}
	return height, nil
}

// BalanceAt returns the native balance of an account at head.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Receipt returns the receipt for a hash, or (nil, nil) while the
// transaction is still unmined. Absence is not an error; the poller
// keeps waiting.
func (c *Client) Receipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, gethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		Succeeded:   receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

// BatchRead executes several view methods against one contract in a
// single JSON-RPC batch, mirroring a multicall: one round trip, all
// values read at approximately the same block. Failures are reported
// per call, never for the batch as a whole.
func (c *Client) BatchRead(ctx context.Context, contract common.Address, methods []string) ([]CallResult, error) {
	elems := make([]rpc.BatchElem, len(methods))
	outputs := make([]hexutil.Bytes, len(methods))
	for i, method := range methods {
		data, err := BridgeABI.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("failed to pack %s: %w", method, err)
		}
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []any{
				map[string]any{
					"to":   contract.Hex(),
					"data": hexutil.Encode(data),
				},
				"latest",
			},
			Result: &outputs[i],
		}
	}

	if err := c.rpcClient.BatchCallContext(ctx, elems); err != nil {
		return nil, fmt.Errorf("batch call failed: %w", err)
	}

	results := make([]CallResult, len(methods))
	for i, method := range methods {
		if elems[i].Error != nil {
			results[i] = CallResult{Err: elems[i].Error}
			continue
		}
		values, err := BridgeABI.Unpack(method, outputs[i])
		if err != nil {
			results[i] = CallResult{Err: fmt.Errorf("failed to unpack %s: %w", method, err)}
			continue
		}
		if len(values) != 1 {
			results[i] = CallResult{Err: fmt.Errorf("unexpected output arity for %s", method)}
			continue
		}
		results[i] = CallResult{Value: values[0]}
	}
	return results, nil
}

// FilterExecutionEvents queries the multisig's Execution logs within a
// single block. The window is deliberately one block wide: multisig
// execution is matched only in the block of the withdrawal receipt.
func (c *Client) FilterExecutionEvents(ctx context.Context, multisig common.Address, block uint64) ([]ExecutionEvent, error) {
	executionTopic := MultisigABI.Events["Execution"].ID

	blockNum := new(big.Int).SetUint64(block)
	logs, err := c.client.FilterLogs(ctx, gethereum.FilterQuery{
		FromBlock: blockNum,
		ToBlock:   blockNum,
		Addresses: []common.Address{multisig},
		Topics:    [][]common.Hash{{executionTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter execution events: %w", err)
	}

	events := make([]ExecutionEvent, 0, len(logs))
	for _, l := range logs {
		event := ExecutionEvent{
			BlockNumber: l.BlockNumber,
			TxHash:      l.TxHash,
		}
		if len(l.Topics) > 1 {
			event.TransactionID = new(big.Int).SetBytes(l.Topics[1].Bytes())
		}
		events = append(events, event)
	}
	return events, nil
}

// SendNativeTransfer signs and broadcasts a plain value transfer.
func (c *Client) SendNativeTransfer(ctx context.Context, to common.Address, amountWei *big.Int) (common.Hash, error) {
	if c.privateKey == nil {
		return common.Hash{}, fmt.Errorf("no signer configured for chain %d", c.config.ChainID)
	}

	tx, err := c.buildTx(ctx, to, amountWei, nil, c.config.GasLimit)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transfer: %w", err)
	}

	c.logger.Info("Native transfer submitted",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount_wei", amountWei.String()))

	return tx.Hash(), nil
}

// Withdraw invokes the bridge contract's withdraw entry point with an
// explicit gas limit; the worst-case contract branch outruns estimation.
func (c *Client) Withdraw(ctx context.Context, bridge common.Address, magnetAddress string, amountWei *big.Int, gasLimit uint64) (common.Hash, error) {
	if c.privateKey == nil {
		return common.Hash{}, fmt.Errorf("no signer configured for chain %d", c.config.ChainID)
	}

	data, err := BridgeABI.Pack("withdraw", magnetAddress, amountWei)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack withdraw call: %w", err)
	}

	tx, err := c.buildTx(ctx, bridge, big.NewInt(0), data, gasLimit)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send withdraw transaction: %w", err)
	}

	c.logger.Info("Withdraw transaction submitted",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("destination", magnetAddress),
		zap.String("amount_wei", amountWei.String()))

	return tx.Hash(), nil
}

// buildTx assembles and signs a legacy transaction from the configured key.
func (c *Client) buildTx(ctx context.Context, to common.Address, value *big.Int, data []byte, gasLimit uint64) (*types.Transaction, error) {
	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}
	if c.config.MaxGasPrice != "" {
		maxGasPrice, ok := new(big.Int).SetString(c.config.MaxGasPrice, 10)
		if ok && gasPrice.Cmp(maxGasPrice) > 0 {
			c.logger.Warn("Suggested gas price exceeds maximum",
				zap.String("suggested", gasPrice.String()),
				zap.String("max", maxGasPrice.String()))
			gasPrice = maxGasPrice
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signer := types.LatestSignerForChainID(big.NewInt(c.config.ChainID))
	signed, err := types.SignTx(tx, signer, c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
