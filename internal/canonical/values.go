package canonical

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places kept for every persisted amount.
const Precision = 4

// DateLayout is how dates are stored and compared.
const DateLayout = "2006-01-02"

// ErrValue marks a cell that could not be coerced to its column type.
var ErrValue = errors.New("invalid value")

var (
	currencyCode = regexp.MustCompile(`^[A-Za-z]{3}\s+|\s+[A-Za-z]{3}$`)
	amountNoise  = regexp.MustCompile(`[^0-9.\-+]`)
)

var dateLayouts = []string{
	DateLayout,
	"2006-01-02, 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 UTC",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
}

// Round applies the persisted precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// ParseAmount coerces a statement amount such as "USD -1,234.50", "$12.00"
// or "\"1,000\"" into a rounded decimal.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrValue)
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return Round(d), nil
	}
	s = currencyCode.ReplaceAllString(s, "")
	s = amountNoise.ReplaceAllString(s, "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrValue, raw)
	}
	return Round(d), nil
}

// ParseOptionalAmount is ParseAmount where an empty cell means zero.
func ParseOptionalAmount(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(strings.Trim(raw, `"'`)) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(raw)
}

// ParseDate accepts the date and timestamp shapes found in statements and
// returns the calendar day in UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrValue, raw)
}

// Day drops the time of day, keeping the calendar date as written.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date the way it is stored.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
