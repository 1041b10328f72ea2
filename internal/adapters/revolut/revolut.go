// Package revolut normalizes Revolut stock trading statements.
package revolut

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/source"
	"github.com/jask/statements/internal/staging"
)

// Platform is the identifier this adapter is registered under.
const Platform = "revolut"

const (
	section = "statement"
	remarks = "Revolut"
)

// ErrNoDividendRate means a dividend could not be converted to units because
// no per-share rate is known for it.
var ErrNoDividendRate = errors.New("no dividend rate")

// Resolver qualifies tickers with their exchange.
type Resolver interface {
	Resolve(ctx context.Context, ticker string) string
}

// DividendRates looks up the declared dividend per share paid on a date.
type DividendRates interface {
	DividendPerShare(item string, paid time.Time) (decimal.Decimal, bool)
}

var layout = staging.Layout{
	Section: section,
	Columns: []staging.Column{
		{Name: "Date"},
		{Name: "Ticker"},
		{Name: "Type"},
		{Name: "Quantity"},
		{Name: "Price per share"},
		{Name: "Total Amount"},
		{Name: "Currency"},
		{Name: "FX Rate", Optional: true, Volatile: true},
	},
}

type kind int

const (
	unknown kind = iota
	buy
	sell
	dividend
	custodyFee
	split
	topUp
	withdrawal
	transfer
)

var labels = map[string]kind{
	"BUY - MARKET":    buy,
	"BUY - LIMIT":     buy,
	"BUY - STOP":      buy,
	"SELL - MARKET":   sell,
	"SELL - LIMIT":    sell,
	"SELL - STOP":     sell,
	"DIVIDEND":        dividend,
	"CUSTODY FEE":     custodyFee,
	"CUSTODY_FEE":     custodyFee,
	"STOCK SPLIT":     split,
	"CASH TOP-UP":     topUp,
	"CASH WITHDRAWAL": withdrawal,
}

func classify(label string) kind {
	label = strings.ToUpper(strings.TrimSpace(label))
	if k, ok := labels[label]; ok {
		return k
	}
	if strings.HasPrefix(label, "TRANSFER FROM") {
		return transfer
	}
	return unknown
}

// Adapter normalizes Revolut statements.
type Adapter struct {
	symbols Resolver
	rates   DividendRates
	log     zerolog.Logger
}

// New returns a Revolut adapter. symbols and rates may be nil; without rates
// every dividend is reported as an issue.
func New(symbols Resolver, rates DividendRates, log zerolog.Logger) *Adapter {
	return &Adapter{symbols: symbols, rates: rates, log: log.With().Str("component", "revolut").Logger()}
}

func (a *Adapter) Platform() string { return Platform }

// Stage checks the header and stages every row.
func (a *Adapter) Stage(area *staging.Area, f source.File) error {
	n, err := staging.LoadTable(area, layout, f, "", nil)
	if err != nil {
		return err
	}
	a.log.Info().Str("file", f.Name).Int("rows", n).Msg("statement staged")
	return nil
}

// Normalize maps each staged row by its type label. Internal transfers and
// unknown labels are dropped.
func (a *Adapter) Normalize(ctx context.Context, area *staging.Area) (canonical.Batch, error) {
	var b canonical.Batch
	for _, r := range area.Rows(section) {
		if err := ctx.Err(); err != nil {
			return canonical.Batch{}, err
		}
		k := classify(r.Get("Type"))
		switch k {
		case unknown:
			a.log.Debug().Str("file", r.File).Int("line", r.Line).Str("type", r.Get("Type")).Msg("unknown type filtered")
			continue
		case transfer:
			continue
		}
		if err := a.row(ctx, &b, k, r); err != nil {
			b.Skip(r.File, r.Line, err)
		}
	}
	return b, nil
}

func (a *Adapter) row(ctx context.Context, b *canonical.Batch, k kind, r staging.Row) error {
	date, err := canonical.ParseDate(r.Get("Date"))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	currency := r.Get("Currency")
	ticker := r.Get("Ticker")

	switch k {
	case topUp, withdrawal:
		amount, err := canonical.ParseAmount(r.Get("Total Amount"))
		if err != nil {
			return fmt.Errorf("total amount: %w", err)
		}
		typ, signed := canonical.Deposit, amount.Abs()
		if k == withdrawal {
			typ, signed = canonical.Withdrawal, signed.Neg()
		}
		b.Deposits = append(b.Deposits, canonical.CashMovement{
			ID: r.ID, Date: date, Type: typ, Currency: currency, Amount: signed, Remarks: remarks,
		})
		return nil

	case split:
		units, err := canonical.ParseAmount(r.Get("Quantity"))
		if err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		b.Splits = append(b.Splits, canonical.StockSplit{
			ID: r.ID, Date: date, Item: a.resolve(ctx, ticker), Currency: currency,
			UnitsAfterSplit: units.Abs(), Remarks: remarks,
		})
		return nil
	}

	tx := canonical.Transaction{
		ID:              r.ID,
		Date:            date,
		Item:            a.resolve(ctx, ticker),
		Currency:        currency,
		Units:           decimal.Zero,
		PPU:             decimal.Zero,
		Fees:            decimal.Zero,
		Taxes:           decimal.Zero,
		StockSplitRatio: decimal.NewFromInt(1),
		Remarks:         remarks,
	}
	switch k {
	case buy, sell:
		qty, err := canonical.ParseAmount(r.Get("Quantity"))
		if err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		price, err := canonical.ParseAmount(r.Get("Price per share"))
		if err != nil {
			return fmt.Errorf("price per share: %w", err)
		}
		tx.Type = canonical.Buy
		if k == sell {
			tx.Type = canonical.Sell
		}
		tx.Units, tx.PPU = qty.Abs(), price.Abs()

	case dividend:
		gross, err := canonical.ParseAmount(r.Get("Total Amount"))
		if err != nil {
			return fmt.Errorf("total amount: %w", err)
		}
		ppu, ok := a.dividendRate(ticker, date)
		if !ok {
			return fmt.Errorf("%w for %s paid %s", ErrNoDividendRate, ticker, canonical.FormatDate(date))
		}
		tx.Type = canonical.Dividends
		tx.PPU = ppu
		tx.Units = canonical.Round(gross.Div(ppu))

	case custodyFee:
		amount, err := canonical.ParseAmount(r.Get("Total Amount"))
		if err != nil {
			return fmt.Errorf("total amount: %w", err)
		}
		// Exports show the fee as "USD -0.12" or "USD 0.12"; either way it is a cost.
		tx.Type = canonical.Fees
		tx.Fees = amount.Abs()
		if tx.Item == "" {
			tx.Item = "CUSTODY FEE"
		}
	}
	b.Transactions = append(b.Transactions, tx)
	return nil
}

func (a *Adapter) dividendRate(ticker string, paid time.Time) (decimal.Decimal, bool) {
	if a.rates == nil {
		return decimal.Zero, false
	}
	return a.rates.DividendPerShare(ticker, paid)
}

func (a *Adapter) resolve(ctx context.Context, ticker string) string {
	if a.symbols == nil || ticker == "" {
		return ticker
	}
	return a.symbols.Resolve(ctx, ticker)
}
