// Package coinbase normalizes Coinbase transaction history reports.
package coinbase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/source"
	"github.com/jask/statements/internal/staging"
)

// Platform is the identifier this adapter is registered under.
const Platform = "coinbase"

// DefaultCurrency prices rows whose spot price currency is blank.
const DefaultCurrency = "GBP"

const section = "history"

var layout = staging.Layout{
	Section: section,
	Columns: []staging.Column{
		{Name: "Timestamp"},
		{Name: "Transaction Type"},
		{Name: "Asset"},
		{Name: "Quantity Transacted"},
		{Name: "Spot Price Currency", Aliases: []string{"Price Currency"}},
		{Name: "Spot Price at Transaction", Aliases: []string{"Price at Transaction"}},
		{Name: "Subtotal", Optional: true},
		{Name: "Total (inclusive of fees and/or spread)", Optional: true},
		{Name: "Fees", Aliases: []string{"Fees and/or Spread"}, Optional: true},
		{Name: "Notes", Optional: true},
	},
}

var labels = map[string]canonical.TransactionType{
	"buy":                 canonical.Buy,
	"advanced trade buy":  canonical.Buy,
	"rewards income":      canonical.Buy,
	"coinbase earn":       canonical.Buy,
	"learning reward":     canonical.Buy,
	"sell":                canonical.Sell,
	"advanced trade sell": canonical.Sell,
}

// dataRow matches the leading date every transaction row carries.
var dataRow = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Adapter normalizes Coinbase reports.
type Adapter struct {
	currency string
	log      zerolog.Logger
}

// New returns a Coinbase adapter. An empty currency falls back to
// DefaultCurrency.
func New(currency string, log zerolog.Logger) *Adapter {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Adapter{currency: strings.ToUpper(currency), log: log.With().Str("component", "coinbase").Logger()}
}

func (a *Adapter) Platform() string { return Platform }

// Stage skips the report preamble up to the Timestamp header and stages every
// row that starts with a date. Repeated headers and footers are ignored.
func (a *Adapter) Stage(area *staging.Area, f source.File) error {
	n, err := staging.LoadTable(area, layout, f, "Timestamp", func(b *staging.Binding, rec source.Record) bool {
		return dataRow.MatchString(strings.TrimSpace(b.Cell(rec, "Timestamp")))
	})
	if err != nil {
		return err
	}
	a.log.Info().Str("file", f.Name).Int("rows", n).Msg("report staged")
	return nil
}

// Normalize maps buys, sells and rewards. Sends, receives and conversions are
// filtered.
func (a *Adapter) Normalize(ctx context.Context, area *staging.Area) (canonical.Batch, error) {
	var b canonical.Batch
	for _, r := range area.Rows(section) {
		if err := ctx.Err(); err != nil {
			return canonical.Batch{}, err
		}
		typ, ok := labels[strings.ToLower(strings.TrimSpace(r.Get("Transaction Type")))]
		if !ok {
			a.log.Debug().Str("file", r.File).Int("line", r.Line).Str("type", r.Get("Transaction Type")).Msg("unknown type filtered")
			continue
		}
		tx, err := a.transaction(typ, r)
		if err != nil {
			b.Skip(r.File, r.Line, err)
			continue
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return b, nil
}

func (a *Adapter) transaction(typ canonical.TransactionType, r staging.Row) (canonical.Transaction, error) {
	date, err := canonical.ParseDate(r.Get("Timestamp"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("timestamp: %w", err)
	}
	units, err := canonical.ParseAmount(r.Get("Quantity Transacted"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("quantity transacted: %w", err)
	}
	ppu, err := canonical.ParseAmount(r.Get("Spot Price at Transaction"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("spot price: %w", err)
	}
	fees, err := canonical.ParseOptionalAmount(r.Get("Fees"))
	if err != nil {
		return canonical.Transaction{}, fmt.Errorf("fees: %w", err)
	}
	currency := strings.ToUpper(r.Get("Spot Price Currency"))
	if currency == "" {
		currency = a.currency
	}
	return canonical.Transaction{
		ID:              r.ID,
		Date:            date,
		Type:            typ,
		Item:            r.Get("Asset"),
		Currency:        currency,
		Units:           units.Abs(),
		PPU:             ppu.Abs(),
		Fees:            fees.Abs(),
		Taxes:           decimal.Zero,
		StockSplitRatio: decimal.NewFromInt(1),
		Remarks:         r.Get("Notes"),
	}, nil
}
