package ibkr

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/reconcile"
	"github.com/jask/statements/internal/staging"
)

// tradeRows are the discriminators that describe an execution; ClosedLot and
// similar rows restate positions and are dropped.
var tradeRows = map[string]bool{"": true, "Order": true, "Trade": true}

func (a *Adapter) trades(ctx context.Context, rows, feeRows []staging.Row) canonical.Batch {
	var b canonical.Batch
	fees := a.transactionFees(&b, feeRows)

	for _, r := range rows {
		if !tradeRows[r.Get("DataDiscriminator")] {
			continue
		}
		switch r.Get("Asset Category") {
		case "Stocks":
			tx, err := a.stockTrade(ctx, r, fees)
			if err != nil {
				b.Skip(r.File, r.Line, err)
				continue
			}
			b.Transactions = append(b.Transactions, tx)
		case "Forex":
			fx, err := forexTrade(r)
			if err != nil {
				b.Skip(r.File, r.Line, err)
				continue
			}
			b.Forex = append(b.Forex, fx)
		default:
			a.log.Debug().Str("file", r.File).Int("line", r.Line).
				Str("category", r.Get("Asset Category")).Msg("asset category not handled")
		}
	}
	return b
}

// transactionFees indexes the Transaction Fees report by the trade each fee
// belongs to.
func (a *Adapter) transactionFees(b *canonical.Batch, rows []staging.Row) reconcile.FeeIndex[reconcile.FeeKey] {
	ix := reconcile.FeeIndex[reconcile.FeeKey]{}
	for _, r := range rows {
		qty, err := canonical.ParseAmount(r.Get("Quantity"))
		if err != nil {
			b.Skip(r.File, r.Line, fmt.Errorf("transaction fee quantity: %w", err))
			continue
		}
		price, err := canonical.ParseAmount(r.Get("Trade Price"))
		if err != nil {
			b.Skip(r.File, r.Line, fmt.Errorf("transaction fee price: %w", err))
			continue
		}
		amount, err := canonical.ParseAmount(r.Get("Amount"))
		if err != nil {
			b.Skip(r.File, r.Line, fmt.Errorf("transaction fee amount: %w", err))
			continue
		}
		ix.Add(reconcile.NewFeeKey(r.Get("Symbol"), r.Get("Date/Time"), qty, price), amount)
	}
	return ix
}

func (a *Adapter) stockTrade(ctx context.Context, r staging.Row, fees reconcile.FeeIndex[reconcile.FeeKey]) (canonical.Transaction, error) {
	date, err := canonical.ParseDate(r.Get("Date/Time"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("date/time: %w", err)
	}
	qty, err := canonical.ParseAmount(r.Get("Quantity"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := canonical.ParseAmount(r.Get("T. Price"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("price: %w", err)
	}
	comm, err := canonical.ParseOptionalAmount(r.Get("Comm/Fee"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("commission: %w", err)
	}

	var typ canonical.TransactionType
	switch qty.Sign() {
	case 1:
		typ = canonical.Buy
	case -1:
		typ = canonical.Sell
	default:
		return canonical.Transaction{}, fmt.Errorf("%w: zero quantity", canonical.ErrValue)
	}

	return canonical.Transaction{
		ID:              r.ID,
		Date:            date,
		Type:            typ,
		Item:            a.resolve(ctx, r.Get("Symbol")),
		Currency:        r.Get("Currency"),
		Units:           qty.Abs(),
		PPU:             price,
		Fees:            comm.Neg(),
		Taxes:           fees.Cost(reconcile.NewFeeKey(r.Get("Symbol"), r.Get("Date/Time"), qty, price)),
		StockSplitRatio: decimal.NewFromInt(1),
		Remarks:         remarks,
	}, nil
}

// forexTrade reads a conversion quoted as BASE.QUOTE. A positive quantity
// buys the base currency, so the quote currency is what was sold.
func forexTrade(r staging.Row) (canonical.Forex, error) {
	pair := r.Get("Symbol")
	base, quote, ok := strings.Cut(pair, ".")
	if !ok || base == "" || quote == "" {
		return canonical.Forex{}, fmt.Errorf("%w: currency pair %q", canonical.ErrValue, pair)
	}
	date, err := canonical.ParseDate(r.Get("Date/Time"))
	if err != nil {
		return canonical.Forex{}, fmt.Errorf("date/time: %w", err)
	}
	qty, err := canonical.ParseAmount(r.Get("Quantity"))
	if err != nil {
		return canonical.Forex{}, fmt.Errorf("quantity: %w", err)
	}
	rate, err := canonical.ParseAmount(r.Get("T. Price"))
	if err != nil {
		return canonical.Forex{}, fmt.Errorf("price: %w", err)
	}
	if rate.IsZero() {
		return canonical.Forex{}, fmt.Errorf("%w: zero rate", canonical.ErrValue)
	}
	comm, err := canonical.ParseOptionalAmount(r.Get("Comm/Fee"))
	if err != nil {
		return canonical.Forex{}, fmt.Errorf("commission: %w", err)
	}

	fx := canonical.Forex{
		ID:               r.ID,
		Date:             date,
		CurrencyPairCode: pair,
		Fees:             comm.Neg(),
	}
	switch qty.Sign() {
	case -1:
		fx.CurrencySold, fx.CurrencyBought = base, quote
		fx.CurrencySoldUnits = qty.Abs()
		fx.PPU = rate
	case 1:
		fx.CurrencySold, fx.CurrencyBought = quote, base
		sold := qty.Mul(rate)
		if p := r.Get("Proceeds"); p != "" {
			if proceeds, err := canonical.ParseAmount(p); err == nil && !proceeds.IsZero() {
				sold = proceeds
			}
		}
		fx.CurrencySoldUnits = canonical.Round(sold.Abs())
		fx.PPU = canonical.Round(decimal.NewFromInt(1).Div(rate))
	default:
		return canonical.Forex{}, fmt.Errorf("%w: zero quantity", canonical.ErrValue)
	}
	return fx, nil
}
