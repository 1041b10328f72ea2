package coinbase

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

const report = `"You can use this transaction report to inform your likely tax obligations."
Transactions
User,jane@example.com,abc123

Timestamp,Transaction Type,Asset,Quantity Transacted,Spot Price Currency,Spot Price at Transaction,Subtotal,Total (inclusive of fees and/or spread),Fees and/or Spread,Notes
2021-03-04T12:30:00Z,Buy,BTC,0.01,GBP,"£36,500.00",365.00,370.00,5.00,Bought 0.01 BTC for £370.00 GBP
2021-03-05T08:00:00Z,Rewards Income,XLM,12.5,GBP,0.31,3.875,3.875,,Received 12.5 XLM from Coinbase Rewards
2021-04-01T10:00:00Z,Sell,BTC,0.005,,45000,225,223,2,Sold 0.005 BTC
2021-04-02T10:00:00Z,Send,BTC,0.001,GBP,45100,,,,Sent 0.001 BTC
2021-04-03T10:00:00Z,Convert,ETH,0.1,GBP,1500,,,,Converted 0.1 ETH to 1.2 BTC
Timestamp,Transaction Type,Asset,Quantity Transacted,Spot Price Currency,Spot Price at Transaction,Subtotal,Total (inclusive of fees and/or spread),Fees and/or Spread,Notes
Report generated on 2021-05-01
`

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func normalize(t *testing.T, a *Adapter, files ...string) (canonical.Batch, *staging.Area) {
	t.Helper()
	area := staging.NewArea()
	for i, text := range files {
		f, err := source.Read(strings.Repeat("c", i+1)+".csv", strings.NewReader(text))
		require.NoError(t, err)
		require.NoError(t, a.Stage(area, f))
	}
	b, err := a.Normalize(context.Background(), area)
	require.NoError(t, err)
	return b, area
}

func TestNormalizeReport(t *testing.T) {
	t.Parallel()

	b, area := normalize(t, New("eur", zerolog.Nop()), report)
	require.Equal(t, 5, area.Len())
	require.Empty(t, b.Issues)
	require.Len(t, b.Transactions, 3)

	buy := b.Transactions[0]
	require.Equal(t, canonical.Buy, buy.Type)
	require.Equal(t, "BTC", buy.Item)
	require.Equal(t, "GBP", buy.Currency)
	require.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), buy.Date)
	require.True(t, dec("0.01").Equal(buy.Units))
	require.True(t, dec("36500").Equal(buy.PPU))
	require.True(t, dec("5").Equal(buy.Fees))
	require.Equal(t, "Bought 0.01 BTC for £370.00 GBP", buy.Remarks)

	reward := b.Transactions[1]
	require.Equal(t, canonical.Buy, reward.Type)
	require.True(t, reward.Fees.IsZero())

	sell := b.Transactions[2]
	require.Equal(t, canonical.Sell, sell.Type)
	require.Equal(t, "EUR", sell.Currency)
	require.True(t, dec("2").Equal(sell.Fees))
}

func TestReimportingOverlappingReportsStagesOnce(t *testing.T) {
	t.Parallel()

	b, area := normalize(t, New("", zerolog.Nop()), report, report)
	require.Equal(t, 5, area.Len())
	require.Len(t, b.Transactions, 3)
	require.Equal(t, "GBP", b.Transactions[2].Currency)
}

func TestLegacyHeaderAliases(t *testing.T) {
	t.Parallel()

	legacy := `Timestamp,Transaction Type,Asset,Quantity Transacted,Price Currency,Price at Transaction,Subtotal,Total (inclusive of fees),Fees,Notes
2020-01-02T10:00:00Z,Coinbase Earn,ETH,0.2,GBP,120,,,,Earned ETH
`
	b, _ := normalize(t, New("", zerolog.Nop()), legacy)
	require.Len(t, b.Transactions, 1)
	require.True(t, dec("120").Equal(b.Transactions[0].PPU))
}

func TestReportWithoutHeaderIsStructural(t *testing.T) {
	t.Parallel()

	f, err := source.Read("random.csv", strings.NewReader("Date,Amount\n2021-01-01,5\n"))
	require.NoError(t, err)
	err = New("", zerolog.Nop()).Stage(staging.NewArea(), f)
	require.ErrorIs(t, err, staging.ErrStructure)
}

func TestBadAmountIsAnIssue(t *testing.T) {
	t.Parallel()

	bad := `Timestamp,Transaction Type,Asset,Quantity Transacted,Spot Price Currency,Spot Price at Transaction,Fees,Notes
2021-03-04T12:30:00Z,Buy,BTC,lots,GBP,36500,,
`
	b, _ := normalize(t, New("", zerolog.Nop()), bad)
	require.Empty(t, b.Transactions)
	require.Len(t, b.Issues, 1)
	require.ErrorIs(t, b.Issues[0], canonical.ErrValue)
	require.Equal(t, 2, b.Issues[0].Line)
}
