package canonical

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// IsFiat reports whether code is an ISO 4217 currency. Crypto assets and
// share tickers are not.
func IsFiat(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return false
	}
	return money.GetCurrency(code) != nil
}
