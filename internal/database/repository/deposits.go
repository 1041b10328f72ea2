package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
)

// DepositRepo handles the deposits_and_withdrawals table.
type DepositRepo struct {
	db Querier
}

func NewDepositRepo(db Querier) *DepositRepo { return &DepositRepo{db: db} }

// Upsert stores d unless its id is already present.
func (r *DepositRepo) Upsert(ctx context.Context, d canonical.CashMovement) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO deposits_and_withdrawals(id, Date, Type, Currency, Amount, Remarks)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING;
	`, d.ID, canonical.FormatDate(d.Date), string(d.Type), d.Currency, toFloat(d.Amount), d.Remarks)
	if err != nil {
		return false, fmt.Errorf("insert cash movement %s: %w", d.ID, err)
	}
	return inserted(res)
}

// List returns every cash movement ordered by date.
func (r *DepositRepo) List(ctx context.Context) ([]canonical.CashMovement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, Date, Type, Currency, Amount, Remarks FROM deposits_and_withdrawals ORDER BY Date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []canonical.CashMovement
	for rows.Next() {
		var (
			d         canonical.CashMovement
			date, typ string
			amount    decimal.Decimal
		)
		if err := rows.Scan(&d.ID, &date, &typ, &d.Currency, &amount, &d.Remarks); err != nil {
			return nil, err
		}
		if d.Date, err = parseDay(date); err != nil {
			return nil, fmt.Errorf("cash movement %s date %q: %w", d.ID, date, err)
		}
		d.Type = canonical.DepositType(typ)
		d.Amount = canonical.Round(amount)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the number of stored cash movements.
func (r *DepositRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deposits_and_withdrawals`).Scan(&n)
	return n, err
}
