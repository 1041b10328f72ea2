// Package export writes the canonical tables out as CSV files, one per table,
// in the column order the net-worth spreadsheet pastes them in.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/database/repository"
)

// ErrExists is returned when an output file is already present and overwrite
// was not requested.
var ErrExists = errors.New("export file already exists")

// Table names double as file names.
const (
	TransactionsTable = "transactions"
	DepositsTable     = "deposits_and_withdrawals"
	ForexTable        = "forex"
)

var (
	transactionHeader = []string{"Date", "Type", "Item", "Currency", "Units", "PPU", "Fees", "Taxes", "StockSplitRatio", "Remarks"}
	depositHeader     = []string{"Date", "Type", "Currency", "Amount", "Remarks"}
	forexHeader       = []string{"Date", "CurrencySold", "CurrencyBought", "CurrencyPairCode", "CurrencySoldUnits", "PPU", "Fees"}
)

// Tables writes every canonical table of store into dir, ordered by date and
// without the id column. With overwrite every existing CSV file in dir is
// removed first. It returns the written paths.
func Tables(ctx context.Context, store *repository.Store, dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	if overwrite {
		if err := removeCSV(dir); err != nil {
			return nil, err
		}
	}

	txs, err := store.Transactions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	deps, err := store.Deposits.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	fx, err := store.Forex.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list forex: %w", err)
	}

	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{TransactionsTable, transactionHeader, transactionRows(txs)},
		{DepositsTable, depositHeader, depositRows(deps)},
		{ForexTable, forexHeader, forexRows(fx)},
	}

	var written []string
	for _, t := range tables {
		path := filepath.Join(dir, t.name+".csv")
		if err := writeCSV(path, t.header, t.rows, overwrite); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func removeCSV(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", m, err)
		}
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string, overwrite bool) (err error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	fh, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(fh)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// number renders an amount without trailing zeros: "10", "125.07", "-0.5".
func number(d decimal.Decimal) string {
	return canonical.Round(d).String()
}

func transactionRows(txs []canonical.Transaction) [][]string {
	out := make([][]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, []string{
			canonical.FormatDate(t.Date), string(t.Type), t.Item, t.Currency,
			number(t.Units), number(t.PPU), number(t.Fees), number(t.Taxes), number(t.StockSplitRatio),
			t.Remarks,
		})
	}
	return out
}

func depositRows(deps []canonical.CashMovement) [][]string {
	out := make([][]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, []string{canonical.FormatDate(d.Date), string(d.Type), d.Currency, number(d.Amount), d.Remarks})
	}
	return out
}

func forexRows(fx []canonical.Forex) [][]string {
	out := make([][]string, 0, len(fx))
	for _, f := range fx {
		out = append(out, []string{
			canonical.FormatDate(f.Date), f.CurrencySold, f.CurrencyBought, f.CurrencyPairCode,
			number(f.CurrencySoldUnits), number(f.PPU), number(f.Fees),
		})
	}
	return out
}
