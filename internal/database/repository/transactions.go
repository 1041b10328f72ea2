package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
)

// TransactionRepo handles the transactions table.
type TransactionRepo struct {
	db Querier
}

func NewTransactionRepo(db Querier) *TransactionRepo { return &TransactionRepo{db: db} }

// Upsert stores t unless a row with its id already exists. Existing rows are
// never modified; the return value reports whether t was new.
func (r *TransactionRepo) Upsert(ctx context.Context, t canonical.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(id, Date, Type, Item, Currency, Units, PPU, Fees, Taxes, StockSplitRatio, Remarks)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING;
	`,
		t.ID, canonical.FormatDate(t.Date), string(t.Type), t.Item, t.Currency,
		toFloat(t.Units), toFloat(t.PPU), toFloat(t.Fees), toFloat(t.Taxes), toFloat(t.StockSplitRatio), t.Remarks)
	if err != nil {
		return false, fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return inserted(res)
}

const transactionColumns = "id, Date, Type, Item, Currency, Units, PPU, Fees, Taxes, StockSplitRatio, Remarks"

// List returns every stored transaction ordered by date.
func (r *TransactionRepo) List(ctx context.Context) ([]canonical.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+transactionColumns+" FROM transactions ORDER BY Date, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []canonical.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get returns the transaction with id, or nil.
func (r *TransactionRepo) Get(ctx context.Context, id string) (*canonical.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Count returns the number of stored transactions.
func (r *TransactionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

// DuplicateDividendSuspects finds dividends recorded more than once for the
// same date, item and rate. Nothing is changed; the caller decides.
func (r *TransactionRepo) DuplicateDividendSuspects(ctx context.Context) ([]Suspect, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT Date, Item, PPU, COUNT(*) AS n, GROUP_CONCAT(id, ',')
	FROM transactions
	WHERE Type = ?
	GROUP BY Date, Item, PPU
	HAVING COUNT(*) > 1
	ORDER BY Date, Item;
	`, string(canonical.Dividends))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Suspect
	for rows.Next() {
		var (
			s    Suspect
			date string
			ids  string
		)
		if err := rows.Scan(&date, &s.Item, &s.PPU, &s.Count, &ids); err != nil {
			return nil, err
		}
		if s.Date, err = parseDay(date); err != nil {
			return nil, fmt.Errorf("suspect date %q: %w", date, err)
		}
		s.PPU = canonical.Round(s.PPU)
		s.IDs = strings.Split(ids, ",")
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanTransaction(row scanner) (canonical.Transaction, error) {
	var (
		t         canonical.Transaction
		date, typ string
		nums      [5]decimal.Decimal
	)
	if err := row.Scan(&t.ID, &date, &typ, &t.Item, &t.Currency,
		&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &t.Remarks); err != nil {
		return canonical.Transaction{}, err
	}
	d, err := parseDay(date)
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
	}
	t.Date = d
	t.Type = canonical.TransactionType(typ)
	t.Units = canonical.Round(nums[0])
	t.PPU = canonical.Round(nums[1])
	t.Fees = canonical.Round(nums[2])
	t.Taxes = canonical.Round(nums[3])
	t.StockSplitRatio = canonical.Round(nums[4])
	return t, nil
}
