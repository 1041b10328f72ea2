// Package ibkr normalizes Interactive Brokers activity statements. One CSV
// file holds many sections, each opened by its own Header line, and a run may
// combine statements covering overlapping periods.
package ibkr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/source"
	"github.com/jask/statements/internal/staging"
)

// Platform is the identifier this adapter is registered under.
const Platform = "ibkr"

const remarks = "IBKR"

// Resolver qualifies tickers with their exchange.
type Resolver interface {
	Resolve(ctx context.Context, ticker string) string
}

// Adapter normalizes activity statements.
type Adapter struct {
	symbols Resolver
	log     zerolog.Logger
}

// New returns an IBKR adapter. symbols may be nil.
func New(symbols Resolver, log zerolog.Logger) *Adapter {
	return &Adapter{symbols: symbols, log: log.With().Str("component", "ibkr").Logger()}
}

func (a *Adapter) Platform() string { return Platform }

// Stage splits f into its sections and stages the data lines of those this
// adapter consumes. Subtotal and total lines are dropped. A consumed section
// whose header lacks an expected column rejects the whole file.
func (a *Adapter) Stage(area *staging.Area, f source.File) error {
	scratch := staging.NewArea()
	bindings := make(map[string]*staging.Binding)
	skipped := make(map[string]bool)
	sawHeader := false

	for _, rec := range f.Records {
		if len(rec.Fields) < 2 {
			continue
		}
		section := strings.TrimSpace(rec.Fields[0])
		if alias, ok := sectionAliases[section]; ok {
			section = alias
		}
		kind := strings.TrimSpace(rec.Fields[1])
		layout, consumed := layouts[section]

		if kind == "Header" {
			sawHeader = true
			if !consumed {
				skipped[section] = true
				continue
			}
			b, err := layout.Bind(f.Name, rec.Fields[2:])
			if err != nil {
				return err
			}
			bindings[section] = b
			continue
		}
		if !consumed || kind != "Data" || isTotal(rec.Fields) {
			continue
		}
		b, ok := bindings[section]
		if !ok {
			return fmt.Errorf("%w: %s:%d: %s data before its header", staging.ErrStructure, f.Name, rec.Line, section)
		}
		scratch.Add(section, b.Row(f.Name, rec.Line, rec.Fields[2:]))
	}
	if !sawHeader {
		return fmt.Errorf("%w: %s: not an activity statement", staging.ErrStructure, f.Name)
	}
	for s := range skipped {
		a.log.Debug().Str("file", f.Name).Str("section", s).Msg("section skipped")
	}

	n := area.Absorb(scratch)
	a.log.Info().Str("file", f.Name).Int("rows", n).Int("duplicates", scratch.Len()-n).Msg("statement staged")
	return nil
}

func isTotal(fields []string) bool {
	for _, f := range fields[1:min(3, len(fields))] {
		if strings.Contains(strings.ToLower(f), "total") {
			return true
		}
	}
	return false
}

// Normalize turns the staged sections into canonical records.
func (a *Adapter) Normalize(ctx context.Context, area *staging.Area) (canonical.Batch, error) {
	var b canonical.Batch
	b.Merge(a.cashMovements(area.Rows(sectionCash)))
	b.Merge(a.otherFees(area.Rows(sectionFees)))
	b.Merge(a.trades(ctx, area.Rows(sectionTrades), area.Rows(sectionTxFees)))
	b.Merge(a.dividends(ctx, area.Rows(sectionDividends), area.Rows(sectionWithholding)))
	if err := ctx.Err(); err != nil {
		return canonical.Batch{}, err
	}
	return b, nil
}

func (a *Adapter) resolve(ctx context.Context, ticker string) string {
	if a.symbols == nil {
		return ticker
	}
	return a.symbols.Resolve(ctx, ticker)
}
