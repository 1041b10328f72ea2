// Package coinbasepro normalizes Coinbase Pro account statements, where every
// trade is reported as two match legs plus a fee row.
package coinbasepro

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/reconcile"
	"github.com/jask/statements/internal/source"
	"github.com/jask/statements/internal/staging"
)

// Platform is the identifier this adapter is registered under.
const Platform = "coinbase_pro"

const (
	section = "account"
	remarks = "Coinbase Pro"
)

// ErrUnpairedMatch means a trade did not have exactly one fiat and one crypto
// leg.
var ErrUnpairedMatch = errors.New("unpaired match legs")

var layout = staging.Layout{
	Section: section,
	Columns: []staging.Column{
		{Name: "portfolio", Optional: true, Volatile: true},
		{Name: "type"},
		{Name: "time"},
		{Name: "amount"},
		{Name: "balance", Optional: true, Volatile: true},
		{Name: "amount/balance unit"},
		{Name: "transfer id"},
		{Name: "trade id"},
		{Name: "order id"},
	},
}

// matchKey joins the two legs of one trade.
type matchKey struct {
	time, trade, order string
}

// feeKey joins a fee row to the fiat leg it was charged in.
type feeKey struct {
	time, currency, trade, order string
}

// Adapter normalizes Coinbase Pro statements.
type Adapter struct {
	log zerolog.Logger
}

// New returns a Coinbase Pro adapter.
func New(log zerolog.Logger) *Adapter {
	return &Adapter{log: log.With().Str("component", "coinbasepro").Logger()}
}

func (a *Adapter) Platform() string { return Platform }

// Stage checks the header and stages every row. Portfolio and balance do not
// take part in the row identity.
func (a *Adapter) Stage(area *staging.Area, f source.File) error {
	n, err := staging.LoadTable(area, layout, f, "", nil)
	if err != nil {
		return err
	}
	a.log.Info().Str("file", f.Name).Int("rows", n).Msg("statement staged")
	return nil
}

// Normalize pairs match legs into trades, folds fee rows into them and keeps
// fiat deposits and withdrawals.
func (a *Adapter) Normalize(ctx context.Context, area *staging.Area) (canonical.Batch, error) {
	var b canonical.Batch
	fees := reconcile.FeeIndex[feeKey]{}
	legs := map[matchKey][]staging.Row{}
	var order []matchKey

	for _, r := range area.Rows(section) {
		if err := ctx.Err(); err != nil {
			return canonical.Batch{}, err
		}
		switch strings.ToLower(r.Get("type")) {
		case "match":
			k := matchKey{time: r.Get("time"), trade: r.Get("trade id"), order: r.Get("order id")}
			if _, ok := legs[k]; !ok {
				order = append(order, k)
			}
			legs[k] = append(legs[k], r)
		case "fee":
			amount, err := canonical.ParseAmount(r.Get("amount"))
			if err != nil {
				b.Skip(r.File, r.Line, fmt.Errorf("fee amount: %w", err))
				continue
			}
			fees.Add(feeKey{
				time:     r.Get("time"),
				currency: strings.ToUpper(r.Get("amount/balance unit")),
				trade:    r.Get("trade id"),
				order:    r.Get("order id"),
			}, amount)
		case "deposit", "withdrawal":
			if err := a.cashMovement(&b, r); err != nil {
				b.Skip(r.File, r.Line, err)
			}
		default:
			a.log.Debug().Str("file", r.File).Int("line", r.Line).Str("type", r.Get("type")).Msg("unknown type filtered")
		}
	}

	for _, k := range order {
		tx, err := trade(k, legs[k], fees)
		if err != nil {
			first := legs[k][0]
			b.Skip(first.File, first.Line, err)
			continue
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return b, nil
}

func trade(k matchKey, legs []staging.Row, fees reconcile.FeeIndex[feeKey]) (canonical.Transaction, error) {
	var fiat, crypto []staging.Row
	for _, r := range legs {
		if canonical.IsFiat(r.Get("amount/balance unit")) {
			fiat = append(fiat, r)
		} else {
			crypto = append(crypto, r)
		}
	}
	if len(fiat) != 1 || len(crypto) != 1 {
		return canonical.Transaction{}, fmt.Errorf("%w: trade %s at %s has %d fiat and %d crypto legs",
			ErrUnpairedMatch, k.trade, k.time, len(fiat), len(crypto))
	}

	date, err := canonical.ParseDate(k.time)
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("time: %w", err)
	}
	units, err := canonical.ParseAmount(crypto[0].Get("amount"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("crypto amount: %w", err)
	}
	if units.IsZero() {
		return canonical.Transaction{}, fmt.Errorf("%w: zero crypto amount in trade %s", canonical.ErrValue, k.trade)
	}
	paid, err := canonical.ParseAmount(fiat[0].Get("amount"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("fiat amount: %w", err)
	}

	typ := canonical.Buy
	if units.IsNegative() {
		typ = canonical.Sell
	}
	currency := strings.ToUpper(fiat[0].Get("amount/balance unit"))
	return canonical.Transaction{
		ID:       crypto[0].ID,
		Date:     date,
		Type:     typ,
		Item:     strings.ToUpper(crypto[0].Get("amount/balance unit")),
		Currency: currency,
		Units:    units.Abs(),
		PPU:      canonical.Round(paid.Abs().Div(units.Abs())),
		Fees: fees.Cost(feeKey{
			time: k.time, currency: currency, trade: k.trade, order: k.order,
		}),
		Taxes:           decimal.Zero,
		StockSplitRatio: decimal.NewFromInt(1),
		Remarks:         remarks,
	}, nil
}

// cashMovement keeps fiat transfers only; crypto sent in or out is neither a
// deposit nor a trade.
func (a *Adapter) cashMovement(b *canonical.Batch, r staging.Row) error {
	unit := strings.ToUpper(r.Get("amount/balance unit"))
	if !canonical.IsFiat(unit) {
		a.log.Debug().Str("file", r.File).Int("line", r.Line).Str("unit", unit).Msg("crypto transfer filtered")
		return nil
	}
	date, err := canonical.ParseDate(r.Get("time"))
	if err != nil {
		return fmt.Errorf("time: %w", err)
	}
	amount, err := canonical.ParseAmount(r.Get("amount"))
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	typ, signed := canonical.Deposit, amount.Abs()
	if strings.EqualFold(r.Get("type"), "withdrawal") {
		typ, signed = canonical.Withdrawal, signed.Neg()
	}
	b.Deposits = append(b.Deposits, canonical.CashMovement{
		ID:       r.ID,
		Date:     date,
		Type:     typ,
		Currency: unit,
		Amount:   signed,
		Remarks:  remarks,
	})
	return nil
}
