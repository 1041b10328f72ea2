package staging

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/statements/internal/source"
)

var tradesLayout = Layout{
	Section: "Trades",
	Columns: []Column{
		{Name: "Symbol"},
		{Name: "Quantity"},
		{Name: "T. Price"},
		{Name: "Comm/Fee", Aliases: []string{"Comm in USD"}},
		{Name: "Code", Optional: true},
		{Name: "Basis", Optional: true, Volatile: true},
	},
}

func TestBindMissingColumnSuggestsNearest(t *testing.T) {
	t.Parallel()

	_, err := tradesLayout.Bind("a.csv", []string{"Symbol", "Quantity", "T Price", "Comm/Fee"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrStructure))
	require.Contains(t, err.Error(), `missing column "T. Price"`)
	require.Contains(t, err.Error(), `found "T Price"`)
	require.Contains(t, err.Error(), "a.csv")

	_, err = tradesLayout.Bind("b.csv", []string{"Symbol", "Quantity", "Comm/Fee", "Zzzzzzzzz"})
	require.ErrorIs(t, err, ErrStructure)
	require.NotContains(t, err.Error(), "found")
}

func TestBindAliasesAndOptional(t *testing.T) {
	t.Parallel()

	b, err := tradesLayout.Bind("a.csv", []string{"\ufeffSymbol", "Quantity", "T. Price", "Comm in USD"})
	require.NoError(t, err)
	require.True(t, b.Has("Comm/Fee"))
	require.False(t, b.Has("Code"))

	r := b.Row("a.csv", 7, []string{" AAPL ", "10", "125.5", "-1"})
	require.Equal(t, "AAPL", r.Get("Symbol"))
	require.Equal(t, "-1", r.Get("Comm/Fee"))
	require.Equal(t, "", r.Get("Code"))
	require.Equal(t, 7, r.Line)
}

func TestBindPatternColumn(t *testing.T) {
	t.Parallel()

	l := Layout{
		Section: "Trades",
		Columns: []Column{
			{Name: "Symbol"},
			{Name: "Comm/Fee", Pattern: regexp.MustCompile(`^Comm in [A-Z]{3}$`)},
		},
	}
	for _, header := range []string{"Comm/Fee", "Comm in AUD", "Comm in CHF"} {
		b, err := l.Bind("a.csv", []string{"Symbol", "MTM in AUD", header})
		require.NoError(t, err, header)
		require.Equal(t, "-3", b.Row("a.csv", 2, []string{"USD.AUD", "0", "-3"}).Get("Comm/Fee"), header)
	}

	_, err := l.Bind("a.csv", []string{"Symbol", "Comm in aud"})
	require.ErrorIs(t, err, ErrStructure)
}

func TestRowIdentityIgnoresVolatileAndColumnOrder(t *testing.T) {
	t.Parallel()

	b1, err := tradesLayout.Bind("a.csv", []string{"Symbol", "Quantity", "T. Price", "Comm/Fee", "Basis"})
	require.NoError(t, err)
	b2, err := tradesLayout.Bind("b.csv", []string{"Basis", "Comm/Fee", "T. Price", "Quantity", "Symbol", "Extra"})
	require.NoError(t, err)

	r1 := b1.Row("a.csv", 2, []string{"AAPL", "10", "125.50", "-1", "1000"})
	r2 := b2.Row("b.csv", 9, []string{"999", "-1.0", "125.5", "10", "AAPL", "whatever"})
	require.Equal(t, r1.ID, r2.ID)

	r3 := b1.Row("a.csv", 3, []string{"AAPL", "11", "125.50", "-1", "1000"})
	require.NotEqual(t, r1.ID, r3.ID)
}

func TestAreaDeduplicatesAndAbsorbs(t *testing.T) {
	t.Parallel()

	run := NewArea()
	require.True(t, run.Add("Trades", NewRow("1", "a.csv", 2, nil)))
	require.False(t, run.Add("Trades", NewRow("1", "b.csv", 5, nil)))

	scratch := NewArea()
	scratch.Add("Trades", NewRow("1", "c.csv", 2, nil))
	scratch.Add("Trades", NewRow("2", "c.csv", 3, nil))
	scratch.Add("Dividends", NewRow("3", "c.csv", 9, nil))

	require.Equal(t, 2, run.Absorb(scratch))
	require.Len(t, run.Rows("Trades"), 2)
	require.Equal(t, "a.csv", run.Rows("Trades")[0].File)
	require.Equal(t, []string{"Trades", "Dividends"}, run.Sections())
	require.Equal(t, 3, run.Len())
	require.Nil(t, run.Rows("Fees"))
}

func TestLoadTable(t *testing.T) {
	t.Parallel()

	layout := Layout{Section: "rows", Columns: []Column{{Name: "Timestamp"}, {Name: "Asset"}}}
	f := source.File{Name: "cb.csv", Records: []source.Record{
		{Line: 1, Fields: []string{"Transactions"}},
		{Line: 2, Fields: []string{"Timestamp", "Asset"}},
		{Line: 3, Fields: []string{"2023-01-01T00:00:00Z", "ETH"}},
		{Line: 4, Fields: []string{"Total", ""}},
		{Line: 5, Fields: []string{"2023-01-01T00:00:00Z", "ETH"}},
	}}
	onlyDated := func(b *Binding, rec source.Record) bool {
		return strings.HasPrefix(b.Cell(rec, "Timestamp"), "20")
	}

	area := NewArea()
	n, err := LoadTable(area, layout, f, "Timestamp", onlyDated)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 3, area.Rows("rows")[0].Line)

	_, err = LoadTable(NewArea(), layout, source.File{Name: "x.csv", Records: f.Records[:1]}, "Timestamp", nil)
	require.ErrorIs(t, err, ErrStructure)

	broken := Layout{Section: "rows", Columns: []Column{{Name: "Timestamp"}, {Name: "Quantity"}}}
	area = NewArea()
	_, err = LoadTable(area, broken, f, "Timestamp", onlyDated)
	require.ErrorIs(t, err, ErrStructure)
	require.Zero(t, area.Len())
}
