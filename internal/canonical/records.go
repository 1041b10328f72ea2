// Package canonical holds the unified record shapes every statement adapter
// normalizes into, plus the value coercion helpers they share.
package canonical

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the canonical transaction label.
type TransactionType string

const (
	Buy       TransactionType = "BUY"
	Sell      TransactionType = "SELL"
	Dividends TransactionType = "DIVIDENDS"
	Fees      TransactionType = "FEES"
	Split     TransactionType = "SPLIT"
)

// DepositType is the canonical cash movement label.
type DepositType string

const (
	Deposit    DepositType = "DEPOSIT"
	Withdrawal DepositType = "WITHDRAWAL"
)

// Transaction is one row of the transactions table.
//
// Units is never negative; direction lives in Type. Fees and Taxes are
// positive when they cost money and negative for refunds.
type Transaction struct {
	ID              string
	Date            time.Time
	Type            TransactionType
	Item            string
	Currency        string
	Units           decimal.Decimal
	PPU             decimal.Decimal
	Fees            decimal.Decimal
	Taxes           decimal.Decimal
	StockSplitRatio decimal.Decimal
	Remarks         string
}

// CashMovement is one row of the deposits_and_withdrawals table. Amount is
// positive for deposits and negative for withdrawals.
type CashMovement struct {
	ID       string
	Date     time.Time
	Type     DepositType
	Currency string
	Amount   decimal.Decimal
	Remarks  string
}

// Forex is one row of the forex table. CurrencySoldUnits is never negative and
// PPU is the amount of CurrencyBought received per unit sold.
type Forex struct {
	ID                string
	Date              time.Time
	CurrencySold      string
	CurrencyBought    string
	CurrencyPairCode  string
	CurrencySoldUnits decimal.Decimal
	PPU               decimal.Decimal
	Fees              decimal.Decimal
}

// StockSplit records a split event by the total units held after it.
type StockSplit struct {
	ID              string
	Date            time.Time
	Item            string
	Currency        string
	UnitsAfterSplit decimal.Decimal
	Remarks         string
}

// Transaction returns the split as it is persisted: a SPLIT row with no
// units or price whose StockSplitRatio carries the post-split unit count.
func (s StockSplit) Transaction() Transaction {
	return Transaction{
		ID:              s.ID,
		Date:            s.Date,
		Type:            Split,
		Item:            s.Item,
		Currency:        s.Currency,
		Units:           decimal.Zero,
		PPU:             decimal.Zero,
		Fees:            decimal.Zero,
		Taxes:           decimal.Zero,
		StockSplitRatio: Round(s.UnitsAfterSplit),
		Remarks:         s.Remarks,
	}
}

// Issue is a row that was dropped during normalization.
type Issue struct {
	File string
	Line int
	Err  error
}

func (i Issue) Error() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", i.File, i.Line, i.Err)
	}
	return fmt.Sprintf("%s: %v", i.File, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// Batch is everything one adapter produced for an import run.
type Batch struct {
	Transactions []Transaction
	Deposits     []CashMovement
	Forex        []Forex
	Splits       []StockSplit
	Issues       []Issue
}

// Skip records a dropped row.
func (b *Batch) Skip(file string, line int, err error) {
	b.Issues = append(b.Issues, Issue{File: file, Line: line, Err: err})
}

// Merge appends every record of o to b.
func (b *Batch) Merge(o Batch) {
	b.Transactions = append(b.Transactions, o.Transactions...)
	b.Deposits = append(b.Deposits, o.Deposits...)
	b.Forex = append(b.Forex, o.Forex...)
	b.Splits = append(b.Splits, o.Splits...)
	b.Issues = append(b.Issues, o.Issues...)
}

// AllTransactions returns the trade rows followed by the splits in their
// persisted form.
func (b Batch) AllTransactions() []Transaction {
	out := make([]Transaction, 0, len(b.Transactions)+len(b.Splits))
	out = append(out, b.Transactions...)
	for _, s := range b.Splits {
		out = append(out, s.Transaction())
	}
	return out
}
