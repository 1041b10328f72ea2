// Package reconcile joins and corrects related statement rows before they
// become canonical records: dividends with their withholding tax, repeated
// correction entries, and trades with separately reported fees.
package reconcile

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
)

// ReversalMarker flags a tax description that reverses an earlier charge.
var ReversalMarker = regexp.MustCompile(`(?i)revers`)

// Key is the match key shared by a dividend and its tax rows.
type Key struct {
	Currency string
	Date     string
	Item     string
	PPU      string
}

// NewKey builds a key; the price is compared at persisted precision.
func NewKey(currency string, date time.Time, item string, ppu decimal.Decimal) Key {
	return Key{
		Currency: currency,
		Date:     canonical.FormatDate(date),
		Item:     item,
		PPU:      canonical.Round(ppu).String(),
	}
}

// Entry is one dividend or tax row.
type Entry struct {
	ID          string
	Key         Key
	Date        time.Time
	PPU         decimal.Decimal
	Amount      decimal.Decimal
	Description string
	File        string
	Line        int
}

// Group is the collapsed form of every entry sharing a key. Its ID is the
// smallest member ID, so the same set of rows always yields the same ID.
type Group struct {
	ID      string
	Key     Key
	Date    time.Time
	PPU     decimal.Decimal
	Amount  decimal.Decimal
	Entries []Entry
}

// GroupEntries buckets entries by key, keeping groups in order of first
// appearance and entries in input order.
func GroupEntries(entries []Entry) []Group {
	index := make(map[Key]int)
	var groups []Group
	for _, e := range entries {
		i, ok := index[e.Key]
		if !ok {
			i = len(groups)
			index[e.Key] = i
			groups = append(groups, Group{ID: e.ID, Key: e.Key, Date: e.Date, PPU: e.PPU})
		}
		g := &groups[i]
		if e.ID < g.ID {
			g.ID = e.ID
		}
		g.Entries = append(g.Entries, e)
	}
	return groups
}

// CollapseDividends nets each dividend group by summation, so offsetting
// corrections cancel out.
func CollapseDividends(entries []Entry) []Group {
	groups := GroupEntries(entries)
	for i := range groups {
		groups[i].Amount = sum(groups[i].Entries)
	}
	return groups
}

// CollapseTaxes resolves each tax group with ResolveTax.
func CollapseTaxes(entries []Entry) []Group {
	groups := GroupEntries(entries)
	for i := range groups {
		groups[i].Amount = ResolveTax(groups[i].Entries)
	}
	return groups
}

// ResolveTax reduces the tax rows of one dividend to a single amount. Only
// an explicit reversal description makes the rows additive; otherwise the
// largest charge is the real one and is returned as a cost.
func ResolveTax(entries []Entry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	for _, e := range entries {
		if ReversalMarker.MatchString(e.Description) {
			return sum(entries)
		}
	}
	largest := entries[0].Amount
	for _, e := range entries[1:] {
		if e.Amount.Abs().GreaterThan(largest.Abs()) {
			largest = e.Amount
		}
	}
	return largest.Abs().Neg()
}

func sum(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return canonical.Round(total)
}

// Pair is a collapsed dividend with the tax resolved for the same key.
type Pair struct {
	Dividend Group
	Tax      decimal.Decimal
	Matched  bool
}

// Units is the holding implied by the gross amount and the per-share rate.
func (p Pair) Units() decimal.Decimal {
	if p.Dividend.PPU.IsZero() {
		return decimal.Zero
	}
	return canonical.Round(p.Dividend.Amount.Div(p.Dividend.PPU))
}

// PairDividends joins collapsed dividends with collapsed taxes on their key.
// A dividend without tax rows pairs with zero tax. Taxes with no dividend
// are dropped.
func PairDividends(dividends, taxes []Group) []Pair {
	byKey := make(map[Key]decimal.Decimal, len(taxes))
	for _, t := range taxes {
		byKey[t.Key] = t.Amount
	}
	out := make([]Pair, 0, len(dividends))
	for _, d := range dividends {
		tax, ok := byKey[d.Key]
		if !ok {
			tax = decimal.Zero
		}
		out = append(out, Pair{Dividend: d, Tax: tax, Matched: ok})
	}
	return out
}
