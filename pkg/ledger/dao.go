package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// RecordDao is a data access object that maps directly to the
// 'bridge_transactions' table in PostgreSQL.
type RecordDao struct {
	bun.BaseModel `bun:"table:bridge_transactions,alias:bt"`

	PK                    int64     `bun:"pk,pk,autoincrement"`
	AccountAddress        string    `bun:"account_address,notnull,type:varchar(42)"`
	TxHash                string    `bun:"tx_hash,notnull,type:varchar(66)"`
	LocalID               string    `bun:"local_id,notnull,type:varchar(64)"`
	Type                  string    `bun:"type,notnull,type:varchar(16)"`
	FromChain             string    `bun:"from_chain,notnull,type:varchar(16)"`
	ToChain               string    `bun:"to_chain,notnull,type:varchar(16)"`
	FromAddress           string    `bun:"from_address,notnull,type:varchar(42)"`
	ToAddress             string    `bun:"to_address,type:varchar(42)"`
	Amount                string    `bun:"amount,notnull,use_zero,type:numeric(38,18)"`
	Fee                   string    `bun:"fee,notnull,use_zero,type:numeric(38,18)"`
	Status                string    `bun:"status,notnull,type:varchar(16)"`
	Confirmations         int       `bun:"confirmations,notnull,use_zero"`
	RequiredConfirmations int       `bun:"required_confirmations,notnull,use_zero"`
	CreatedAt             time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt             time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toDao(account string, rec *Record) *RecordDao {
	return &RecordDao{
		AccountAddress:        account,
		TxHash:                rec.TxHash,
		LocalID:               rec.ID,
		Type:                  string(rec.Type),
		FromChain:             rec.FromChain,
		ToChain:               rec.ToChain,
		FromAddress:           rec.FromAddress,
		ToAddress:             rec.ToAddress,
		Amount:                rec.Amount.String(),
		Fee:                   rec.Fee.String(),
		Status:                string(rec.Status),
		Confirmations:         rec.Confirmations,
		RequiredConfirmations: rec.RequiredConfirmations,
		CreatedAt:             rec.Timestamp,
		UpdatedAt:             rec.UpdatedAt,
	}
}

func toRecord(dao *RecordDao) (*Record, error) {
	amount, err := decimal.NewFromString(dao.Amount)
	if err != nil {
		return nil, err
	}
	fee, err := decimal.NewFromString(dao.Fee)
	if err != nil {
		return nil, err
	}
	return &Record{
		TxHash:                dao.TxHash,
		ID:                    dao.LocalID,
		Type:                  TxType(dao.Type),
		FromChain:             dao.FromChain,
		ToChain:               dao.ToChain,
		FromAddress:           dao.FromAddress,
		ToAddress:             dao.ToAddress,
		Amount:                amount,
		Fee:                   fee,
		Status:                Status(dao.Status),
		Confirmations:         dao.Confirmations,
		RequiredConfirmations: dao.RequiredConfirmations,
		Timestamp:             dao.CreatedAt,
		UpdatedAt:             dao.UpdatedAt,
	}, nil
}
