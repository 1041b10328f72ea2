package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/statements/internal/database/repository"
)

// MaintenanceService houses read-only store reports surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// Summary is a snapshot of the store.
type Summary struct {
	Transactions int
	Deposits     int
	Forex        int
	Imports      []repository.ImportEntry
}

// Summary counts rows per table and lists the most recent imports.
func (s *MaintenanceService) Summary(ctx context.Context, recent int) (Summary, error) {
	if s.DB == nil {
		return Summary{}, fmt.Errorf("maintenance: db not configured")
	}
	store := repository.NewStore(s.DB)
	var (
		out Summary
		err error
	)
	if out.Transactions, err = store.Transactions.Count(ctx); err != nil {
		return Summary{}, fmt.Errorf("count transactions: %w", err)
	}
	if out.Deposits, err = store.Deposits.Count(ctx); err != nil {
		return Summary{}, fmt.Errorf("count deposits: %w", err)
	}
	if out.Forex, err = store.Forex.Count(ctx); err != nil {
		return Summary{}, fmt.Errorf("count forex: %w", err)
	}
	if out.Imports, err = store.Imports.List(ctx, recent); err != nil {
		return Summary{}, err
	}
	return out, nil
}
