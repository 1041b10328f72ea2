// Package refdata loads the hand-maintained reference file that fills in what
// statements leave out: ticker renames, exchange listings and dividend rates.
package refdata

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
)

// DividendWindow is how far before the payment date a declared dividend is
// still attributed to it.
const DividendWindow = 40 * 24 * time.Hour

// Directory is a published list of tickers traded on one exchange.
type Directory struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// DefaultDirectories are used when the reference file names none.
var DefaultDirectories = []Directory{
	{Name: "NASDAQ", URL: "https://raw.githubusercontent.com/rreichel3/US-Stock-Symbols/main/nasdaq/nasdaq_tickers.txt"},
	{Name: "NYSE", URL: "https://raw.githubusercontent.com/rreichel3/US-Stock-Symbols/main/nyse/nyse_tickers.txt"},
}

type fileFormat struct {
	Rename []struct {
		From string `toml:"from"`
		To   string `toml:"to"`
	} `toml:"rename"`
	Exchange []struct {
		Ticker   string `toml:"ticker"`
		Exchange string `toml:"exchange"`
	} `toml:"exchange"`
	Directory []Directory `toml:"directory"`
	Dividend  []struct {
		Item     string `toml:"item"`
		Date     string `toml:"date"`
		PerShare string `toml:"per_share"`
	} `toml:"dividend"`
}

type dividend struct {
	date     time.Time
	perShare decimal.Decimal
}

// Data is the decoded reference file.
type Data struct {
	Renames     map[string]string
	Exchanges   map[string]string
	Directories []Directory

	dividends map[string][]dividend
}

// Default returns reference data with only the built-in directories.
func Default() *Data {
	return &Data{
		Renames:     map[string]string{},
		Exchanges:   map[string]string{},
		Directories: append([]Directory(nil), DefaultDirectories...),
		dividends:   map[string][]dividend{},
	}
}

// Load decodes the reference file at path. An empty path or a missing file
// yields Default.
func Load(path string) (*Data, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	var raw fileFormat
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("decode reference data %s: %w", path, err)
	}
	return build(raw)
}

// Parse decodes reference data from TOML text.
func Parse(text string) (*Data, error) {
	var raw fileFormat
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	return build(raw)
}

func build(raw fileFormat) (*Data, error) {
	d := Default()
	for _, r := range raw.Rename {
		if r.From == "" || r.To == "" {
			return nil, fmt.Errorf("rename entry needs from and to")
		}
		d.Renames[r.From] = r.To
	}
	for _, e := range raw.Exchange {
		if e.Ticker == "" || e.Exchange == "" {
			return nil, fmt.Errorf("exchange entry needs ticker and exchange")
		}
		d.Exchanges[e.Ticker] = e.Exchange
	}
	if len(raw.Directory) > 0 {
		d.Directories = raw.Directory
	}
	for i, v := range raw.Dividend {
		date, err := canonical.ParseDate(v.Date)
		if err != nil {
			return nil, fmt.Errorf("dividend %d (%s): %w", i+1, v.Item, err)
		}
		ps, err := canonical.ParseAmount(v.PerShare)
		if err != nil {
			return nil, fmt.Errorf("dividend %d (%s): %w", i+1, v.Item, err)
		}
		if !ps.IsPositive() {
			return nil, fmt.Errorf("dividend %d (%s): per_share must be positive", i+1, v.Item)
		}
		d.dividends[v.Item] = append(d.dividends[v.Item], dividend{date: date, perShare: ps})
	}
	for item := range d.dividends {
		sort.SliceStable(d.dividends[item], func(a, b int) bool {
			return d.dividends[item][a].date.Before(d.dividends[item][b].date)
		})
	}
	return d, nil
}

// DividendPerShare returns the earliest dividend rate recorded for item
// between DividendWindow before paid and the end of the payment day.
func (d *Data) DividendPerShare(item string, paid time.Time) (decimal.Decimal, bool) {
	if d == nil {
		return decimal.Zero, false
	}
	from := canonical.Day(paid).Add(-DividendWindow)
	until := canonical.Day(paid).AddDate(0, 0, 1)
	for _, v := range d.dividends[item] {
		if !v.date.Before(from) && v.date.Before(until) {
			return v.perShare, true
		}
	}
	return decimal.Zero, false
}
