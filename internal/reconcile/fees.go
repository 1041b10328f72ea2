package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
)

// FeeKey ties a separately reported fee to its trade.
type FeeKey struct {
	Symbol    string
	Timestamp string
	Quantity  string
	Price     string
}

// NewFeeKey normalizes the numeric parts so "10" and "10.0" agree.
func NewFeeKey(symbol, timestamp string, quantity, price decimal.Decimal) FeeKey {
	return FeeKey{
		Symbol:    symbol,
		Timestamp: strings.TrimSpace(timestamp),
		Quantity:  canonical.Round(quantity).String(),
		Price:     canonical.Round(price).String(),
	}
}

// FeeIndex sums fee amounts per trade. K is whatever ties a fee row to its
// trade on a given platform; FeeKey for IBKR.
type FeeIndex[K comparable] map[K]decimal.Decimal

// Add records one fee row in its source sign.
func (ix FeeIndex[K]) Add(k K, amount decimal.Decimal) {
	ix[k] = ix[k].Add(amount)
}

// Cost returns the matched fees as a cost: statements report charges as
// negative amounts, the canonical record carries them positive. No match is
// zero.
func (ix FeeIndex[K]) Cost(k K) decimal.Decimal {
	v, ok := ix[k]
	if !ok {
		return decimal.Zero
	}
	return canonical.Round(v.Neg())
}
