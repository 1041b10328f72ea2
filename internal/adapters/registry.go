// Package adapters maps platform identifiers to their statement adapters.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/adapters/coinbase"
	"github.com/jask/statements/internal/adapters/coinbasepro"
	"github.com/jask/statements/internal/adapters/ibkr"
	"github.com/jask/statements/internal/adapters/revolut"
	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/source"
	"github.com/jask/statements/internal/staging"
)

// ErrUnknownPlatform is returned for a platform identifier with no adapter.
var ErrUnknownPlatform = errors.New("unknown platform")

// Adapter turns one platform's statement files into canonical records. Stage
// is called once per file of a run; Normalize once, after every file is
// staged.
type Adapter interface {
	Platform() string
	Stage(area *staging.Area, f source.File) error
	Normalize(ctx context.Context, area *staging.Area) (canonical.Batch, error)
}

// SymbolResolver qualifies share tickers with their exchange.
type SymbolResolver interface {
	Resolve(ctx context.Context, ticker string) string
}

// DividendRates looks up declared dividends per share.
type DividendRates interface {
	DividendPerShare(item string, paid time.Time) (decimal.Decimal, bool)
}

// Options carries the collaborators adapters may need.
type Options struct {
	Symbols         SymbolResolver
	Rates           DividendRates
	DefaultCurrency string
	Log             zerolog.Logger
}

type constructor func(Options) Adapter

var registry = map[string]constructor{
	ibkr.Platform: func(o Options) Adapter {
		return ibkr.New(o.Symbols, o.Log)
	},
	revolut.Platform: func(o Options) Adapter {
		return revolut.New(o.Symbols, o.Rates, o.Log)
	},
	coinbase.Platform: func(o Options) Adapter {
		return coinbase.New(o.DefaultCurrency, o.Log)
	},
	coinbasepro.Platform: func(o Options) Adapter {
		return coinbasepro.New(o.Log)
	},
}

// Platforms lists the supported platform identifiers in sorted order.
func Platforms() []string {
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// New returns the adapter for platform. Identifiers are case-insensitive and
// accept "-" for "_".
func New(platform string, opts Options) (Adapter, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(platform)), "-", "_")
	c, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownPlatform, platform, strings.Join(Platforms(), ", "))
	}
	return c(opts), nil
}
