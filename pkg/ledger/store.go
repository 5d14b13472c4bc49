package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when no record exists for a (account, hash) pair.
var ErrNotFound = errors.New("transaction record not found")

// Store is the narrow persistence interface the tracker depends on.
// Defined here to keep callers decoupled from the bun implementation.
type Store interface {
	Upsert(ctx context.Context, account string, p Patch) (*Record, error)
	Get(ctx context.Context, account, txHash string) (*Record, error)
	List(ctx context.Context, account string) ([]*Record, error)
}

type pgStore struct {
	db *bun.DB
}

// NewStore creates a Postgres-backed ledger store.
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

// normalizeAccount lower-cases the partition key so that checksummed and
// plain spellings of the same address share one ledger.
func normalizeAccount(account string) string {
	return strings.ToLower(account)
}

// Upsert merges a patch into the account's ledger keyed by tx hash.
// A second write with the same hash updates the existing row instead of
// duplicating it; insertion stamps both timestamps and generates the
// display id.
func (s *pgStore) Upsert(ctx context.Context, account string, p Patch) (*Record, error) {
	if p.TxHash == "" {
		return nil, fmt.Errorf("upsert requires a tx hash")
	}
	account = normalizeAccount(account)
	now := nowUTC()

	var result *Record
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		dao := new(RecordDao)
		err := tx.NewSelect().
			Model(dao).
			Where("account_address = ?", account).
			Where("tx_hash = ?", p.TxHash).
			For("UPDATE").
			Scan(ctx)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			rec := NewRecord(p, now)
			ins := toDao(account, rec)
			if _, err := tx.NewInsert().Model(ins).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
			result = rec
			return nil
		case err != nil:
			return fmt.Errorf("failed to load record: %w", err)
		}

		existing, err := toRecord(dao)
		if err != nil {
			return fmt.Errorf("corrupt ledger row %s: %w", p.TxHash, err)
		}
		merged := Merge(*existing, p, now)
		upd := toDao(account, &merged)
		upd.PK = dao.PK
		if _, err := tx.NewUpdate().
			Model(upd).
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		result = &merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the record for one hash within the account's ledger.
func (s *pgStore) Get(ctx context.Context, account, txHash string) (*Record, error) {
	dao := new(RecordDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("account_address = ?", normalizeAccount(account)).
		Where("tx_hash = ?", txHash).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return toRecord(dao)
}

// List returns every record in the account's ledger, newest first.
// Records from other accounts are never visible here.
func (s *pgStore) List(ctx context.Context, account string) ([]*Record, error) {
	var daos []*RecordDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("account_address = ?", normalizeAccount(account)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]*Record, 0, len(daos))
	for _, dao := range daos {
		rec, err := toRecord(dao)
		if err != nil {
			return nil, fmt.Errorf("corrupt ledger row %s: %w", dao.TxHash, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
