package repository

import (
	"context"

	"github.com/jask/statements/internal/canonical"
)

// Store bundles the canonical tables over one Querier. Built on a *sql.Tx it
// makes a merge all-or-nothing.
type Store struct {
	Transactions *TransactionRepo
	Deposits     *DepositRepo
	Forex        *ForexRepo
	Imports      *ImportLogRepo
}

func NewStore(db Querier) *Store {
	return &Store{
		Transactions: NewTransactionRepo(db),
		Deposits:     NewDepositRepo(db),
		Forex:        NewForexRepo(db),
		Imports:      NewImportLogRepo(db),
	}
}

// Merge offers every record of b to its table. Records whose id is already
// stored are counted as duplicates and left untouched; stock splits are
// stored as SPLIT transactions.
func (s *Store) Merge(ctx context.Context, b canonical.Batch) (MergeResult, error) {
	var res MergeResult
	for _, t := range b.AllTransactions() {
		ok, err := s.Transactions.Upsert(ctx, t)
		if err != nil {
			return MergeResult{}, err
		}
		res.Transactions.add(ok)
	}
	for _, d := range b.Deposits {
		ok, err := s.Deposits.Upsert(ctx, d)
		if err != nil {
			return MergeResult{}, err
		}
		res.Deposits.add(ok)
	}
	for _, f := range b.Forex {
		ok, err := s.Forex.Upsert(ctx, f)
		if err != nil {
			return MergeResult{}, err
		}
		res.Forex.add(ok)
	}
	return res, nil
}
