package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
)

// ForexRepo handles the forex table.
type ForexRepo struct {
	db Querier
}

func NewForexRepo(db Querier) *ForexRepo { return &ForexRepo{db: db} }

// Upsert stores f unless its id is already present.
func (r *ForexRepo) Upsert(ctx context.Context, f canonical.Forex) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO forex(id, Date, CurrencySold, CurrencyBought, CurrencyPairCode, CurrencySoldUnits, PPU, Fees)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING;
	`, f.ID, canonical.FormatDate(f.Date), f.CurrencySold, f.CurrencyBought, f.CurrencyPairCode,
		toFloat(f.CurrencySoldUnits), toFloat(f.PPU), toFloat(f.Fees))
	if err != nil {
		return false, fmt.Errorf("insert forex %s: %w", f.ID, err)
	}
	return inserted(res)
}

// List returns every conversion ordered by date.
func (r *ForexRepo) List(ctx context.Context) ([]canonical.Forex, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, Date, CurrencySold, CurrencyBought, CurrencyPairCode, CurrencySoldUnits, PPU, Fees
	FROM forex ORDER BY Date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []canonical.Forex
	for rows.Next() {
		var (
			f              canonical.Forex
			date           string
			units, ppu, fx decimal.Decimal
		)
		if err := rows.Scan(&f.ID, &date, &f.CurrencySold, &f.CurrencyBought, &f.CurrencyPairCode, &units, &ppu, &fx); err != nil {
			return nil, err
		}
		if f.Date, err = parseDay(date); err != nil {
			return nil, fmt.Errorf("forex %s date %q: %w", f.ID, date, err)
		}
		f.CurrencySoldUnits = canonical.Round(units)
		f.PPU = canonical.Round(ppu)
		f.Fees = canonical.Round(fx)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of stored conversions.
func (r *ForexRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM forex`).Scan(&n)
	return n, err
}
