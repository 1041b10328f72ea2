package ibkr

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/staging"
)

// InternalTransfer matches cash movements between the owner's own accounts.
// They do not change net worth and are never recorded.
var InternalTransfer = regexp.MustCompile(`(?i)\binternal transfer\b|\btransfer\b.*\baccount\b`)

func (a *Adapter) cashMovements(rows []staging.Row) canonical.Batch {
	var b canonical.Batch
	for _, r := range rows {
		if InternalTransfer.MatchString(r.Get("Description")) {
			a.log.Debug().Str("file", r.File).Int("line", r.Line).Msg("internal transfer excluded")
			continue
		}
		date, err := canonical.ParseDate(r.Get("Settle Date"))
		if err != nil {
			b.Skip(r.File, r.Line, fmt.Errorf("settle date: %w", err))
			continue
		}
		amount, err := canonical.ParseAmount(r.Get("Amount"))
		if err != nil {
			b.Skip(r.File, r.Line, fmt.Errorf("amount: %w", err))
			continue
		}
		typ := canonical.Deposit
		switch amount.Sign() {
		case -1:
			typ = canonical.Withdrawal
		case 0:
			continue
		}
		b.Deposits = append(b.Deposits, canonical.CashMovement{
			ID:       r.ID,
			Date:     date,
			Type:     typ,
			Currency: r.Get("Currency"),
			Amount:   amount,
			Remarks:  r.Get("Description"),
		})
	}
	return b
}

// otherFees turns account-level charges (market data, activity fees) into
// FEES transactions named after their subtitle.
func (a *Adapter) otherFees(rows []staging.Row) canonical.Batch {
	var b canonical.Batch
	for _, r := range rows {
		date, err := canonical.ParseDate(r.Get("Date"))
		if err != nil {
			b.Skip(r.File, r.Line, fmt.Errorf("date: %w", err))
			continue
		}
		amount, err := canonical.ParseAmount(r.Get("Amount"))
		if err != nil {
			b.Skip(r.File, r.Line, fmt.Errorf("amount: %w", err))
			continue
		}
		b.Transactions = append(b.Transactions, canonical.Transaction{
			ID:              r.ID,
			Date:            date,
			Type:            canonical.Fees,
			Item:            r.Get("Subtitle"),
			Currency:        r.Get("Currency"),
			Units:           decimal.Zero,
			PPU:             decimal.Zero,
			Fees:            amount.Neg(),
			Taxes:           decimal.Zero,
			StockSplitRatio: decimal.NewFromInt(1),
			Remarks:         r.Get("Description"),
		})
	}
	return b
}
