package coinbasepro

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

const statement = `portfolio,type,time,amount,balance,amount/balance unit,transfer id,trade id,order id
default,deposit,2021-02-01T09:00:00.000Z,1000.0000000000000000,1000.0000000000000000,GBP,7f1a,,
default,match,2021-02-02T10:11:12.345Z,-300.0000000000000000,700.0000000000000000,GBP,,101,o-1
default,match,2021-02-02T10:11:12.345Z,0.2000000000000000,0.2000000000000000,ETH,,101,o-1
default,fee,2021-02-02T10:11:12.345Z,-1.5000000000000000,698.5000000000000000,GBP,,101,o-1
default,match,2021-02-10T16:00:00.000Z,-0.1000000000000000,0.1000000000000000,ETH,,102,o-2
default,match,2021-02-10T16:00:00.000Z,180.0000000000000000,878.5000000000000000,GBP,,102,o-2
default,withdrawal,2021-02-11T09:00:00.000Z,-500.0000000000000000,378.5000000000000000,GBP,8e2b,,
default,withdrawal,2021-02-12T09:00:00.000Z,-0.0500000000000000,0.0500000000000000,ETH,9c3d,,
`

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func normalize(t *testing.T, files ...string) canonical.Batch {
	t.Helper()
	a := New(zerolog.Nop())
	area := staging.NewArea()
	for i, text := range files {
		f, err := source.Read(strings.Repeat("p", i+1)+".csv", strings.NewReader(text))
		require.NoError(t, err)
		require.NoError(t, a.Stage(area, f))
	}
	b, err := a.Normalize(context.Background(), area)
	require.NoError(t, err)
	return b
}

func TestNormalizeStatement(t *testing.T) {
	t.Parallel()

	b := normalize(t, statement)
	require.Empty(t, b.Issues)
	require.Len(t, b.Transactions, 2)
	require.Len(t, b.Deposits, 2)

	buy := b.Transactions[0]
	require.Equal(t, canonical.Buy, buy.Type)
	require.Equal(t, "ETH", buy.Item)
	require.Equal(t, "GBP", buy.Currency)
	require.Equal(t, time.Date(2021, 2, 2, 0, 0, 0, 0, time.UTC), buy.Date)
	require.True(t, dec("0.2").Equal(buy.Units))
	require.True(t, dec("1500").Equal(buy.PPU))
	require.True(t, dec("1.5").Equal(buy.Fees))

	sell := b.Transactions[1]
	require.Equal(t, canonical.Sell, sell.Type)
	require.True(t, dec("0.1").Equal(sell.Units))
	require.True(t, dec("1800").Equal(sell.PPU))
	require.True(t, sell.Fees.IsZero())

	require.Equal(t, canonical.Deposit, b.Deposits[0].Type)
	require.True(t, dec("1000").Equal(b.Deposits[0].Amount))
	require.Equal(t, canonical.Withdrawal, b.Deposits[1].Type)
	require.True(t, dec("-500").Equal(b.Deposits[1].Amount))
}

func TestTradeIDIsCryptoLegID(t *testing.T) {
	t.Parallel()

	f, err := source.Read("p.csv", strings.NewReader(statement))
	require.NoError(t, err)
	area := staging.NewArea()
	require.NoError(t, New(zerolog.Nop()).Stage(area, f))

	var cryptoLeg string
	for _, r := range area.Rows(section) {
		if r.Get("type") == "match" && r.Get("amount/balance unit") == "ETH" && r.Get("trade id") == "101" {
			cryptoLeg = r.ID
		}
	}
	b, err := New(zerolog.Nop()).Normalize(context.Background(), area)
	require.NoError(t, err)
	require.Equal(t, cryptoLeg, b.Transactions[0].ID)
}

func TestBalanceDoesNotChangeIdentity(t *testing.T) {
	t.Parallel()

	rebased := strings.ReplaceAll(statement, "default,", "trading,")
	rebased = strings.ReplaceAll(rebased, ",700.0000000000000000,", ",9700.0000000000000000,")
	b := normalize(t, statement, rebased)
	require.Len(t, b.Transactions, 2)
	require.Len(t, b.Deposits, 2)
}

func TestUnpairedLegIsAnIssue(t *testing.T) {
	t.Parallel()

	b := normalize(t, `portfolio,type,time,amount,balance,amount/balance unit,transfer id,trade id,order id
default,match,2021-02-02T10:11:12.345Z,0.2,0.2,ETH,,101,o-1
`)
	require.Empty(t, b.Transactions)
	require.Len(t, b.Issues, 1)
	require.ErrorIs(t, b.Issues[0], ErrUnpairedMatch)
	require.Equal(t, 2, b.Issues[0].Line)
}

func TestMissingTradeColumnIsStructural(t *testing.T) {
	t.Parallel()

	f, err := source.Read("old.csv", strings.NewReader("portfolio,type,time,amount,balance,amount/balance unit,transfer id,tradeid,order id\n"))
	require.NoError(t, err)
	err = New(zerolog.Nop()).Stage(staging.NewArea(), f)
	require.ErrorIs(t, err, staging.ErrStructure)
	require.Contains(t, err.Error(), `found "tradeid"`)
}
