package tracker

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/internal/metrics"
	apperrors "github.com/magnetchain/bridge-tracker/pkg/app/errors"
	"github.com/magnetchain/bridge-tracker/pkg/config"
	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
	"github.com/magnetchain/bridge-tracker/pkg/ledger"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// receiptWaitAttempts bounds the synchronous receipt check after a
// withdrawal broadcast. Anything slower is the poller's job.
const receiptWaitAttempts = 3

// SubmitDeposit sends MAG from the operator wallet to the bridge
// multisig on the Magnet chain and records the transaction as
// confirming. The amount is denominated in whole MAG tokens.
//
// A hash is returned only when the chain accepted the transaction; no
// ledger record is written without one. The submission itself is never
// retried.
func (t *Tracker) SubmitDeposit(ctx context.Context, amount string) (string, error) {
	if t.activeChainID != t.magnet.ChainID() {
		metrics.SubmissionsTotal.WithLabelValues("deposit", "rejected").Inc()
		return "", apperrors.WrongNetworkError(fmt.Sprintf(
			"deposits are sent on %s; the active chain is %s",
			config.NetworkName(t.magnet.ChainID()), config.NetworkName(t.activeChainID)))
	}

	from, ok := t.magnet.Account()
	if !ok {
		metrics.SubmissionsTotal.WithLabelValues("deposit", "rejected").Inc()
		return "", apperrors.SubmissionError(nil, "no signing account configured for the Magnet chain")
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil || !amt.IsPositive() {
		metrics.SubmissionsTotal.WithLabelValues("deposit", "rejected").Inc()
		return "", apperrors.ValidationError(err, "amount must be a positive decimal number")
	}
	if amt.LessThan(t.depositFloor) {
		metrics.SubmissionsTotal.WithLabelValues("deposit", "rejected").Inc()
		return "", apperrors.ValidationError(nil, fmt.Sprintf("minimum deposit is %s MAG", t.depositFloor))
	}

	amountWei := ethereum.ToWei(amt)
	balance, err := t.magnet.BalanceAt(ctx, from)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("deposit", "failure").Inc()
		return "", apperrors.ConnectivityError(err, "could not read wallet balance")
	}
	if balance.Cmp(amountWei) < 0 {
		metrics.SubmissionsTotal.WithLabelValues("deposit", "rejected").Inc()
		return "", apperrors.ValidationError(nil, "amount exceeds wallet balance")
	}

	txHash, err := t.magnet.SendNativeTransfer(ctx, t.multisigAddr, amountWei)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("deposit", "failure").Inc()
		return "", apperrors.SubmissionError(err, "deposit transaction was not accepted")
	}

	fee := amt.Mul(t.feeRatio())
	confirmations := 1
	required := t.cfg.DepositConfirmations
	t.ledger.Upsert(ctx, from.Hex(), ledger.Patch{
		TxHash:                txHash.Hex(),
		Type:                  ledger.TypeDeposit,
		FromAddress:           from.Hex(),
		ToAddress:             t.multisigAddr.Hex(),
		Amount:                &amt,
		Fee:                   &fee,
		Status:                ledger.StatusConfirming,
		Confirmations:         &confirmations,
		RequiredConfirmations: &required,
	})

	metrics.SubmissionsTotal.WithLabelValues("deposit", "success").Inc()
	t.logger.Info("Deposit submitted",
		zap.String("tx_hash", txHash.Hex()),
		zap.String("from", from.Hex()),
		zap.String("amount", amt.String()),
		zap.String("fee", fee.String()))

	return txHash.Hex(), nil
}

// SubmitWithdraw calls the BSC bridge contract's withdraw entry point,
// sending bridged MAG back to a Magnet address, and records the
// transaction as verifying. When a successful receipt shows up within
// the short synchronous wait the record is upgraded to executing;
// receipt errors at this stage never fail the submission.
func (t *Tracker) SubmitWithdraw(ctx context.Context, destination, amount string) (string, error) {
	if t.activeChainID != t.bsc.ChainID() {
		metrics.SubmissionsTotal.WithLabelValues("withdraw", "rejected").Inc()
		return "", apperrors.WrongNetworkError(fmt.Sprintf(
			"withdrawals are sent on %s; the active chain is %s",
			config.NetworkName(t.bsc.ChainID()), config.NetworkName(t.activeChainID)))
	}

	from, ok := t.bsc.Account()
	if !ok {
		metrics.SubmissionsTotal.WithLabelValues("withdraw", "rejected").Inc()
		return "", apperrors.SubmissionError(nil, "no signing account configured for the BSC chain")
	}

	if !addressPattern.MatchString(destination) {
		metrics.SubmissionsTotal.WithLabelValues("withdraw", "rejected").Inc()
		return "", apperrors.ValidationError(nil, "destination must be a 0x-prefixed 20-byte hex address")
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil || !amt.IsPositive() {
		metrics.SubmissionsTotal.WithLabelValues("withdraw", "rejected").Inc()
		return "", apperrors.ValidationError(err, "amount must be a positive decimal number")
	}
	if err := t.checkWithdrawLimits(amt); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("withdraw", "rejected").Inc()
		return "", err
	}

	txHash, err := t.bsc.Withdraw(ctx, t.bridgeAddr, destination, ethereum.ToWei(amt), t.cfg.WithdrawGasLimit)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("withdraw", "failure").Inc()
		return "", apperrors.SubmissionError(err, "withdraw transaction was not accepted")
	}

	fee := amt.Mul(t.feeRatio())
	confirmations := 0
	required := t.cfg.WithdrawConfirmations
	t.ledger.Upsert(ctx, from.Hex(), ledger.Patch{
		TxHash:                txHash.Hex(),
		Type:                  ledger.TypeWithdraw,
		FromAddress:           from.Hex(),
		ToAddress:             destination,
		Amount:                &amt,
		Fee:                   &fee,
		Status:                ledger.StatusVerifying,
		Confirmations:         &confirmations,
		RequiredConfirmations: &required,
	})

	metrics.SubmissionsTotal.WithLabelValues("withdraw", "success").Inc()
	t.logger.Info("Withdrawal submitted",
		zap.String("tx_hash", txHash.Hex()),
		zap.String("from", from.Hex()),
		zap.String("destination", destination),
		zap.String("amount", amt.String()))

	t.awaitWithdrawReceipt(ctx, from.Hex(), txHash)

	return txHash.Hex(), nil
}

// checkWithdrawLimits enforces the bridge contract's per-transaction
// bounds when a parameter snapshot is available. Without a snapshot the
// contract itself remains the arbiter.
func (t *Tracker) checkWithdrawLimits(amt decimal.Decimal) error {
	snap := t.params.Snapshot()
	if snap == nil {
		return nil
	}
	if snap.Paused {
		return apperrors.ValidationError(nil, "the bridge is paused")
	}
	if snap.MinAmount.IsPositive() && amt.LessThan(snap.MinAmount) {
		return apperrors.ValidationError(nil, fmt.Sprintf("minimum withdrawal is %s MAG", snap.MinAmount))
	}
	if !snap.MaxUnlimited() && snap.MaxAmount.IsPositive() && amt.GreaterThan(snap.MaxAmount) {
		return apperrors.ValidationError(nil, fmt.Sprintf("maximum withdrawal is %s MAG", snap.MaxAmount))
	}
	return nil
}

// awaitWithdrawReceipt makes a short synchronous attempt to observe the
// withdrawal receipt so the caller sees executing instead of verifying
// on fast chains. Errors and timeouts are logged and dropped.
func (t *Tracker) awaitWithdrawReceipt(ctx context.Context, account string, txHash common.Hash) {
	hash := txHash.Hex()
	for attempt := 0; attempt < receiptWaitAttempts; attempt++ {
		receipt, err := t.bsc.Receipt(ctx, txHash)
		if err != nil {
			t.logger.Warn("Withdraw receipt check failed",
				zap.String("tx_hash", hash), zap.Error(err))
			return
		}
		if receipt != nil {
			if receipt.Succeeded {
				confirmations := 1
				t.ledger.Upsert(ctx, account, ledger.Patch{
					TxHash:        hash,
					Status:        ledger.StatusExecuting,
					Confirmations: &confirmations,
				})
				metrics.StatusTransitions.WithLabelValues("withdraw", string(ledger.StatusExecuting)).Inc()
			} else {
				t.ledger.Upsert(ctx, account, ledger.Patch{
					TxHash: hash,
					Status: ledger.StatusFailed,
				})
				metrics.StatusTransitions.WithLabelValues("withdraw", string(ledger.StatusFailed)).Inc()
			}
			return
		}
		if err := t.sleep(ctx, time.Second); err != nil {
			return
		}
	}
}
