package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxType is the direction of a bridge transaction
type TxType string

const (
	TypeDeposit  TxType = "deposit"
	TypeWithdraw TxType = "withdraw"
)

// Valid reports whether the type is one of the two known directions.
func (t TxType) Valid() bool {
	return t == TypeDeposit || t == TypeWithdraw
}

// SourceChain returns the chain the transaction is submitted on.
func (t TxType) SourceChain() string {
	if t == TypeDeposit {
		return ChainMagnet
	}
	return ChainBSC
}

// DestinationChain returns the chain the bridged value arrives on.
func (t TxType) DestinationChain() string {
	if t == TypeDeposit {
		return ChainBSC
	}
	return ChainMagnet
}

// Chain keys, always an opposite pair per transaction.
const (
	ChainMagnet = "magnet"
	ChainBSC    = "bsc"
)

// Status represents the lifecycle stage of a bridge transaction
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirming Status = "confirming"
	StatusVerifying  Status = "verifying"
	StatusExecuting  Status = "executing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is one entry in an account's bridge transaction ledger.
type Record struct {
	TxHash                string          `json:"txHash"`
	ID                    string          `json:"id"`
	Type                  TxType          `json:"type"`
	FromChain             string          `json:"fromChain"`
	ToChain               string          `json:"toChain"`
	FromAddress           string          `json:"fromAddress"`
	ToAddress             string          `json:"toAddress"`
	Amount                decimal.Decimal `json:"amount"`
	Fee                   decimal.Decimal `json:"fee"`
	Status                Status          `json:"status"`
	Confirmations         int             `json:"confirmations"`
	RequiredConfirmations int             `json:"requiredConfirmations"`
	Timestamp             time.Time       `json:"timestamp"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// Patch is a partial record applied by Upsert. Zero-valued fields are
// left untouched on merge; pointer fields distinguish "unset" from zero.
type Patch struct {
	TxHash                string
	Type                  TxType
	FromChain             string
	ToChain               string
	FromAddress           string
	ToAddress             string
	Amount                *decimal.Decimal
	Fee                   *decimal.Decimal
	Status                Status
	Confirmations         *int
	RequiredConfirmations *int
}

// NewID derives the display-only secondary key for a fresh record.
// It orders UI lists and carries no correctness weight.
func NewID(t TxType, at time.Time) string {
	return fmt.Sprintf("%s-%d", t, at.UnixMilli())
}

// NewRecord materializes a Patch into a freshly inserted Record.
func NewRecord(p Patch, now time.Time) *Record {
	rec := &Record{
		TxHash:      p.TxHash,
		ID:          NewID(p.Type, now),
		Type:        p.Type,
		FromChain:   p.FromChain,
		ToChain:     p.ToChain,
		FromAddress: p.FromAddress,
		ToAddress:   p.ToAddress,
		Status:      p.Status,
		Timestamp:   now,
		UpdatedAt:   now,
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if rec.FromChain == "" && p.Type.Valid() {
		rec.FromChain = p.Type.SourceChain()
		rec.ToChain = p.Type.DestinationChain()
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Fee != nil {
		rec.Fee = *p.Fee
	}
	if p.Confirmations != nil {
		rec.Confirmations = *p.Confirmations
	}
	if p.RequiredConfirmations != nil {
		rec.RequiredConfirmations = *p.RequiredConfirmations
	}
	return rec
}

// Merge applies a Patch over an existing record and bumps UpdatedAt.
// A terminal status is never replaced by a non-terminal one; an
// out-of-order poll result arriving late must not resurrect a finished
// transaction.
func Merge(existing Record, p Patch, now time.Time) Record {
	merged := existing

	if p.Status != "" {
		if existing.Status.Terminal() && !p.Status.Terminal() {
			// keep terminal status and its confirmation count
		} else {
			merged.Status = p.Status
			if p.Confirmations != nil {
				merged.Confirmations = *p.Confirmations
			}
		}
	} else if p.Confirmations != nil && !existing.Status.Terminal() {
		merged.Confirmations = *p.Confirmations
	}

	if p.ToAddress != "" {
		merged.ToAddress = p.ToAddress
	}
	if p.FromAddress != "" {
		merged.FromAddress = p.FromAddress
	}
	if p.Amount != nil {
		merged.Amount = *p.Amount
	}
	if p.Fee != nil {
		merged.Fee = *p.Fee
	}
	if p.RequiredConfirmations != nil {
		merged.RequiredConfirmations = *p.RequiredConfirmations
	}
	merged.UpdatedAt = now
	return merged
}
