package ibkr

import (
	"context"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/reconcile"
	"github.com/jask/statements/internal/staging"
)

// dividendDesc reads "AAPL(US0378331005) Cash Dividend USD 0.24 per Share ...".
var dividendDesc = regexp.MustCompile(`(?i)^\s*([^\s(]+)\s*\([A-Z0-9]+\).*?(\d+(?:\.\d+)?)\s+per\s+share`)

// ParseDividendDescription extracts the ticker and per-share rate.
func ParseDividendDescription(desc string) (string, decimal.Decimal, bool) {
	m := dividendDesc.FindStringSubmatch(desc)
	if m == nil {
		return "", decimal.Zero, false
	}
	ppu, err := decimal.NewFromString(m[2])
	if err != nil {
		return "", decimal.Zero, false
	}
	return m[1], ppu, true
}

func dividendEntry(r staging.Row) (reconcile.Entry, error) {
	item, ppu, ok := ParseDividendDescription(r.Get("Description"))
	if !ok {
		return reconcile.Entry{}, fmt.Errorf("%w: dividend description %q", canonical.ErrValue, r.Get("Description"))
	}
	date, err := canonical.ParseDate(r.Get("Date"))
	if err != nil {
		return reconcile.Entry{}, fmt.Errorf("date: %w", err)
	}
	amount, err := canonical.ParseAmount(r.Get("Amount"))
	if err != nil {
		return reconcile.Entry{}, fmt.Errorf("amount: %w", err)
	}
	return reconcile.Entry{
		ID:          r.ID,
		Key:         reconcile.NewKey(r.Get("Currency"), date, item, ppu),
		Date:        date,
		PPU:         canonical.Round(ppu),
		Amount:      amount,
		Description: r.Get("Description"),
		File:        r.File,
		Line:        r.Line,
	}, nil
}

// dividends collapses dividend and withholding rows per (currency, date,
// item, rate) and emits one DIVIDENDS transaction per group. A group netting
// to a negative payment or a positive tax cannot be trusted and is reported
// instead of written.
func (a *Adapter) dividends(ctx context.Context, divRows, taxRows []staging.Row) canonical.Batch {
	var b canonical.Batch

	var divs []reconcile.Entry
	for _, r := range divRows {
		e, err := dividendEntry(r)
		if err != nil {
			b.Skip(r.File, r.Line, err)
			continue
		}
		divs = append(divs, e)
	}

	var taxes []reconcile.Entry
	for _, r := range taxRows {
		e, err := dividendEntry(r)
		if err != nil || e.PPU.IsZero() {
			// Interest on margin lent out is withheld too but carries no rate.
			a.log.Debug().Str("file", r.File).Int("line", r.Line).Msg("withholding row without dividend rate ignored")
			continue
		}
		taxes = append(taxes, e)
	}

	for _, p := range reconcile.PairDividends(reconcile.CollapseDividends(divs), reconcile.CollapseTaxes(taxes)) {
		d := p.Dividend
		first := d.Entries[0]
		switch {
		case d.Amount.IsNegative():
			b.Skip(first.File, first.Line, fmt.Errorf("%w: dividend %s on %s nets to %s", canonical.ErrValue, d.Key.Item, d.Key.Date, d.Amount))
			continue
		case p.Tax.IsPositive():
			b.Skip(first.File, first.Line, fmt.Errorf("%w: withholding tax for %s on %s nets to %s", canonical.ErrValue, d.Key.Item, d.Key.Date, p.Tax))
			continue
		case d.Amount.IsZero():
			a.log.Debug().Str("item", d.Key.Item).Str("date", d.Key.Date).Msg("dividend fully reversed")
			continue
		}
		b.Transactions = append(b.Transactions, canonical.Transaction{
			ID:              d.ID,
			Date:            d.Date,
			Type:            canonical.Dividends,
			Item:            a.resolve(ctx, d.Key.Item),
			Currency:        d.Key.Currency,
			Units:           p.Units(),
			PPU:             d.PPU,
			Fees:            decimal.Zero,
			Taxes:           p.Tax.Neg(),
			StockSplitRatio: decimal.NewFromInt(1),
			Remarks:         remarks,
		})
	}
	return b
}
