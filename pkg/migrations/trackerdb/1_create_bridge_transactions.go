package trackerdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/magnetchain/bridge-tracker/pkg/ledger"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("creating bridge_transactions table...")
			if _, err := db.NewCreateTable().
				Model((*ledger.RecordDao)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			// One ledger entry per (account, hash); upserts merge into it.
			if _, err := db.NewCreateIndex().
				Model((*ledger.RecordDao)(nil)).
				Index("idx_bridge_transactions_account_hash").
				Unique().
				Column("account_address", "tx_hash").
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewCreateIndex().
				Model((*ledger.RecordDao)(nil)).
				Index("idx_bridge_transactions_account_created").
				Column("account_address", "created_at").
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("dropping bridge_transactions table...")
			_, err := db.NewDropTable().
				Model((*ledger.RecordDao)(nil)).
				IfExists().
				Exec(ctx)
			return err
		},
	)
}
