package ibkr

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/source"
	"github.com/jask/statements/internal/staging"
)

const statement = `Statement,Header,Field Name,Field Value
Statement,Data,BrokerName,Interactive Brokers LLC
Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code
Trades,Data,Order,Stocks,USD,AAPL,"2023-01-03, 10:15:00",10,125.07,125.07,-1250.7,-1,1251.7,0,0,O
Trades,Data,Order,Stocks,USD,MSFT,"2023-02-01, 11:00:00",-5,250,250,1250,-1.05,-1200,48.95,0,C
Trades,Data,ClosedLot,Stocks,USD,MSFT,2022-11-01,5,240,,,,1200,,,
Trades,SubTotal,,Stocks,USD,AAPL,,10,,,-1250.7,-1,1251.7,0,0,
Trades,Total,,Stocks,USD,,,,,,0,-2.05,,48.95,0,
Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,,Proceeds,Comm in USD,,,MTM in USD,Code
Trades,Data,Order,Forex,USD,EUR.USD,"2023-01-02, 09:00:00","1,000",1.07,,-1070,-2,,,0,
Trades,Data,Order,Forex,USD,EUR.USD,"2023-01-05, 09:00:00",-500,1.08,,540,-2,,,0,
Transaction Fees,Header,Asset Category,Currency,Date/Time,Symbol,Description,Quantity,Trade Price,Amount,Code
Transaction Fees,Data,Stocks,USD,"2023-01-03, 10:15:00",AAPL,Regulatory fee,10,125.07,-0.02,
Transaction Fees,Data,Stocks,USD,"2023-01-03, 10:15:00",AAPL,Exchange fee,10,125.07,-0.01,
Transaction Fees,Data,Total,,,,,,,-0.03,
Fees,Header,Subtitle,Currency,Date,Description,Amount
Fees,Data,Other Fees,USD,2023-01-31,Market data fee,-10
Fees,Data,Total,,,,-10
Deposits & Withdrawals,Header,Currency,Settle Date,Description,Amount
Deposits & Withdrawals,Data,USD,2023-01-01,Electronic Fund Transfer,5000
Deposits & Withdrawals,Data,USD,2023-01-20,Disbursement Initiated by Jane Doe,-200
Deposits & Withdrawals,Data,USD,2023-01-21,Internal Transfer from U1234567,300
Deposits & Withdrawals,Data,Total,,,5100
Dividends,Header,Currency,Date,Description,Amount
Dividends,Data,USD,2023-05-18,AAPL(US0378331005) Cash Dividend USD 0.25 per Share (Ordinary Dividend),100
Dividends,Data,USD,2023-06-08,MSFT(US5949181045) Cash Dividend USD 0.68 per Share (Ordinary Dividend),-6.8
Dividends,Data,USD,2023-06-08,MSFT(US5949181045) Cash Dividend USD 0.68 per Share (Ordinary Dividend),6.8
Dividends,Data,USD,2023-06-08,MSFT(US5949181045) Cash Dividend USD 0.68 per Share (Ordinary Dividend),3.4
Dividends,Data,Total,,,103.4
Withholding Tax,Header,Currency,Date,Description,Amount,Code
Withholding Tax,Data,USD,2023-05-18,AAPL(US0378331005) Cash Dividend USD 0.25 per Share - US Tax,-15,
Withholding Tax,Data,USD,2023-05-31,Withholding @ 20% on Credit Interest for May-2023,-1,
Withholding Tax,Data,Total,,,-16,
`

type prefixResolver struct{}

func (prefixResolver) Resolve(_ context.Context, ticker string) string { return "NASDAQ:" + ticker }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func stage(t *testing.T, a *Adapter, area *staging.Area, name, text string) error {
	t.Helper()
	f, err := source.Read(name, strings.NewReader(text))
	require.NoError(t, err)
	return a.Stage(area, f)
}

func normalize(t *testing.T, text string) canonical.Batch {
	t.Helper()
	a := New(prefixResolver{}, zerolog.Nop())
	area := staging.NewArea()
	require.NoError(t, stage(t, a, area, "u1.csv", text))
	b, err := a.Normalize(context.Background(), area)
	require.NoError(t, err)
	return b
}

func byItem(txs []canonical.Transaction, typ canonical.TransactionType, item string) canonical.Transaction {
	for _, tx := range txs {
		if tx.Type == typ && tx.Item == item {
			return tx
		}
	}
	return canonical.Transaction{}
}

func TestNormalizeStatement(t *testing.T) {
	t.Parallel()

	b := normalize(t, statement)
	require.Empty(t, b.Issues)
	require.Len(t, b.Transactions, 5)
	require.Len(t, b.Deposits, 2)
	require.Len(t, b.Forex, 2)
	require.Empty(t, b.Splits)

	buy := byItem(b.Transactions, canonical.Buy, "NASDAQ:AAPL")
	require.NotEmpty(t, buy.ID)
	require.Equal(t, time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), buy.Date)
	require.True(t, dec("10").Equal(buy.Units))
	require.True(t, dec("125.07").Equal(buy.PPU))
	require.True(t, dec("1").Equal(buy.Fees))
	require.True(t, dec("0.03").Equal(buy.Taxes), buy.Taxes.String())
	require.Equal(t, "USD", buy.Currency)

	sell := byItem(b.Transactions, canonical.Sell, "NASDAQ:MSFT")
	require.True(t, dec("5").Equal(sell.Units))
	require.True(t, dec("1.05").Equal(sell.Fees))
	require.True(t, sell.Taxes.IsZero())

	fee := byItem(b.Transactions, canonical.Fees, "Other Fees")
	require.True(t, dec("10").Equal(fee.Fees))
	require.Equal(t, "Market data fee", fee.Remarks)
	require.True(t, fee.Units.IsZero())

	aapl := byItem(b.Transactions, canonical.Dividends, "NASDAQ:AAPL")
	require.True(t, dec("400").Equal(aapl.Units), aapl.Units.String())
	require.True(t, dec("0.25").Equal(aapl.PPU))
	require.True(t, dec("15").Equal(aapl.Taxes))

	msft := byItem(b.Transactions, canonical.Dividends, "NASDAQ:MSFT")
	require.True(t, dec("5").Equal(msft.Units), msft.Units.String())
	require.True(t, msft.Taxes.IsZero())

	for _, d := range b.Deposits {
		require.NotContains(t, d.Remarks, "Internal Transfer")
		if d.Type == canonical.Withdrawal {
			require.True(t, dec("-200").Equal(d.Amount))
		} else {
			require.True(t, dec("5000").Equal(d.Amount))
		}
	}

	for _, fx := range b.Forex {
		require.Equal(t, "EUR.USD", fx.CurrencyPairCode)
		require.True(t, dec("2").Equal(fx.Fees))
		switch fx.CurrencySold {
		case "USD":
			require.Equal(t, "EUR", fx.CurrencyBought)
			require.True(t, dec("1070").Equal(fx.CurrencySoldUnits))
			require.True(t, dec("0.9346").Equal(fx.PPU), fx.PPU.String())
		case "EUR":
			require.Equal(t, "USD", fx.CurrencyBought)
			require.True(t, dec("500").Equal(fx.CurrencySoldUnits))
			require.True(t, dec("1.08").Equal(fx.PPU))
		default:
			t.Fatalf("unexpected sold currency %s", fx.CurrencySold)
		}
	}
}

func TestOverlappingStatementsStageOnce(t *testing.T) {
	t.Parallel()

	a := New(nil, zerolog.Nop())
	area := staging.NewArea()
	require.NoError(t, stage(t, a, area, "2023-h1.csv", statement))
	staged := area.Len()
	require.NoError(t, stage(t, a, area, "2023-full.csv", statement))
	require.Equal(t, staged, area.Len())

	b, err := a.Normalize(context.Background(), area)
	require.NoError(t, err)
	require.Len(t, b.Transactions, 5)
	require.Equal(t, "AAPL", byItem(b.Transactions, canonical.Buy, "AAPL").Item)
}

func TestStructuralErrorRejectsWholeFile(t *testing.T) {
	t.Parallel()

	broken := strings.Replace(statement,
		"Dividends,Header,Currency,Date,Description,Amount",
		"Dividends,Header,Currency,Date,Description,Amount Paid", 1)

	a := New(nil, zerolog.Nop())
	area := staging.NewArea()
	err := stage(t, a, area, "bad.csv", broken)
	require.ErrorIs(t, err, staging.ErrStructure)
	require.Contains(t, err.Error(), "bad.csv")
	require.Contains(t, err.Error(), `"Amount"`)
	require.Zero(t, area.Len())

	err = stage(t, a, area, "notes.csv", "just,some\ntext,here\n")
	require.ErrorIs(t, err, staging.ErrStructure)
}

func TestCommissionColumnInAnyBaseCurrency(t *testing.T) {
	t.Parallel()

	b := normalize(t, `Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code
Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,,Proceeds,Comm in AUD,,,MTM in AUD,Code
Trades,Data,Order,Forex,AUD,USD.AUD,"2023-03-01, 09:00:00",-100,1.5,,150,-3,,,0,
Deposits & Withdrawals,Header,Currency,Settle Date,Description,Amount
Deposits & Withdrawals,Data,AUD,2023-02-01,Electronic Fund Transfer,1000
`)
	require.Empty(t, b.Issues)
	require.Len(t, b.Deposits, 1)
	require.Equal(t, "AUD", b.Deposits[0].Currency)
	require.Len(t, b.Forex, 1)

	fx := b.Forex[0]
	require.Equal(t, "USD.AUD", fx.CurrencyPairCode)
	require.Equal(t, "USD", fx.CurrencySold)
	require.Equal(t, "AUD", fx.CurrencyBought)
	require.True(t, dec("100").Equal(fx.CurrencySoldUnits))
	require.True(t, dec("3").Equal(fx.Fees), fx.Fees.String())
}

func TestDividendAnomaliesAreReported(t *testing.T) {
	t.Parallel()

	b := normalize(t, `Dividends,Header,Currency,Date,Description,Amount
Dividends,Data,USD,2023-05-18,KO(US1912161007) Cash Dividend USD 0.46 per Share (Ordinary Dividend),-4.6
Dividends,Data,USD,2023-05-19,PEP(US7134481081) Cash Dividend USD 1.265 per Share (Ordinary Dividend),12.65
Dividends,Data,USD,2023-05-20,Payment in Lieu of Dividend,3
Withholding Tax,Header,Currency,Date,Description,Amount,Code
Withholding Tax,Data,USD,2023-05-19,PEP(US7134481081) Cash Dividend USD 1.265 per Share - US Tax,-1.9,
Withholding Tax,Data,USD,2023-05-19,PEP(US7134481081) Cash Dividend USD 1.265 per Share - US Tax Reversal,1.9,
Withholding Tax,Data,USD,2023-05-19,PEP(US7134481081) Cash Dividend USD 1.265 per Share - US Tax,1,
`)
	require.Empty(t, b.Transactions)
	require.Len(t, b.Issues, 3)
	for _, is := range b.Issues {
		require.ErrorIs(t, is, canonical.ErrValue)
		require.Equal(t, "u1.csv", is.File)
	}
}

func TestParseDividendDescription(t *testing.T) {
	t.Parallel()

	item, ppu, ok := ParseDividendDescription("VUSA(IE00B3XXRP09) Cash Dividend USD 0.2066 per Share (Mixed Income)")
	require.True(t, ok)
	require.Equal(t, "VUSA", item)
	require.True(t, dec("0.2066").Equal(ppu))

	item, _, ok = ParseDividendDescription("BRK.B (US0846707026) Cash Dividend USD 1.5 per Share - US Tax")
	require.True(t, ok)
	require.Equal(t, "BRK.B", item)

	_, _, ok = ParseDividendDescription("Withholding @ 20% on Credit Interest")
	require.False(t, ok)
}

func TestInternalTransferPattern(t *testing.T) {
	t.Parallel()

	require.True(t, InternalTransfer.MatchString("Internal Transfer from U1234567"))
	require.True(t, InternalTransfer.MatchString("Transfer to account U7654321"))
	require.False(t, InternalTransfer.MatchString("Electronic Fund Transfer"))
	require.False(t, InternalTransfer.MatchString("Disbursement Initiated by Jane Doe"))
}
