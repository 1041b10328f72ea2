// Package symbols rewrites statement tickers into the EXCHANGE:TICKER form the
// spreadsheet expects, following renames and published exchange listings.
package symbols

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jask/statements/internal/refdata"
)

// DefaultTTL is how long a downloaded exchange listing is trusted.
const DefaultTTL = 24 * time.Hour

// Options configures a Resolver.
type Options struct {
	Renames     map[string]string
	Exchanges   map[string]string
	Directories []refdata.Directory
	// Offline disables directory downloads; only renames and explicit
	// exchanges apply.
	Offline bool
	TTL     time.Duration
	Client  *http.Client
	Log     zerolog.Logger
}

// Resolver maps raw tickers to their current, exchange-qualified symbol.
type Resolver struct {
	renames   map[string]string
	exchanges map[string]string
	dirs      []refdata.Directory
	offline   bool
	client    *http.Client
	listings  *cache.Cache
	log       zerolog.Logger
}

// NewResolver builds a resolver. Listings are fetched lazily on first use.
func NewResolver(opts Options) *Resolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Resolver{
		renames:   opts.Renames,
		exchanges: opts.Exchanges,
		dirs:      opts.Directories,
		offline:   opts.Offline,
		client:    client,
		listings:  cache.New(ttl, 2*ttl),
		log:       opts.Log.With().Str("component", "symbols").Logger(),
	}
}

// FromReference builds a resolver over the renames, exchanges and
// directories of d.
func FromReference(d *refdata.Data, offline bool, ttl time.Duration, log zerolog.Logger) *Resolver {
	return NewResolver(Options{
		Renames:     d.Renames,
		Exchanges:   d.Exchanges,
		Directories: d.Directories,
		Offline:     offline,
		TTL:         ttl,
		Log:         log,
	})
}

// Resolve applies the rename table and then prefixes the exchange: an
// explicit override wins, otherwise the last directory listing the ticker
// root (the part before any ".") does. Unknown tickers come back renamed but
// unprefixed. A nil Resolver returns ticker unchanged.
func (r *Resolver) Resolve(ctx context.Context, ticker string) string {
	ticker = strings.TrimSpace(ticker)
	if r == nil || ticker == "" || strings.Contains(ticker, ":") {
		return ticker
	}
	if renamed, ok := r.renames[ticker]; ok {
		ticker = renamed
	}
	if ex, ok := r.exchanges[ticker]; ok {
		return ex + ":" + ticker
	}
	if r.offline {
		return ticker
	}
	root, _, _ := strings.Cut(ticker, ".")
	prefixed := ticker
	// No early exit: a dual listing resolves to the later directory, so NYSE
	// listed after NASDAQ takes precedence.
	for _, d := range r.dirs {
		listed, ok := r.listing(ctx, d)
		if !ok {
			continue
		}
		if _, ok := listed[root]; ok {
			prefixed = d.Name + ":" + ticker
		}
	}
	return prefixed
}

// unavailable marks a directory whose fetch failed. It is cached like a
// listing so the directory is not fetched again until the entry expires.
type unavailable struct{}

func (r *Resolver) listing(ctx context.Context, d refdata.Directory) (map[string]struct{}, bool) {
	if v, ok := r.listings.Get(d.URL); ok {
		listed, ok := v.(map[string]struct{})
		return listed, ok
	}
	listed, err := r.fetch(ctx, d.URL)
	if err != nil {
		r.log.Warn().Err(err).Str("exchange", d.Name).Msg("exchange listing unavailable")
		if ctx.Err() == nil {
			r.listings.Set(d.URL, unavailable{}, cache.DefaultExpiration)
		}
		return nil, false
	}
	r.listings.Set(d.URL, listed, cache.DefaultExpiration)
	r.log.Debug().Str("exchange", d.Name).Int("tickers", len(listed)).Msg("exchange listing loaded")
	return listed, true
}

func (r *Resolver) fetch(ctx context.Context, url string) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	listed := make(map[string]struct{})
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			listed[t] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return listed, nil
}
