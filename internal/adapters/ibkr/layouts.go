package ibkr

import (
	"regexp"

	"github.com/jask/statements/internal/staging"
)

// Section names as they appear in the first column of an activity statement.
const (
	sectionTrades      = "Trades"
	sectionTxFees      = "Transaction Fees"
	sectionFees        = "Fees"
	sectionCash        = "Deposits & Withdrawals"
	sectionDividends   = "Dividends"
	sectionWithholding = "Withholding Tax"
)

// sectionAliases folds renamed sections onto the one they replace.
var sectionAliases = map[string]string{
	"Other Fees": sectionFees,
}

// commission is "Comm/Fee" for stocks and "Comm in <base currency>" for forex.
var commission = staging.Column{
	Name:    "Comm/Fee",
	Pattern: regexp.MustCompile(`^Comm in [A-Z]{3}$`),
}

var layouts = map[string]staging.Layout{
	sectionTrades: {
		Section: sectionTrades,
		Columns: []staging.Column{
			{Name: "DataDiscriminator", Optional: true},
			{Name: "Asset Category"},
			{Name: "Currency"},
			{Name: "Symbol"},
			{Name: "Date/Time"},
			{Name: "Quantity"},
			{Name: "T. Price"},
			{Name: "Proceeds", Optional: true},
			commission,
			{Name: "Code", Optional: true},
		},
	},
	sectionTxFees: {
		Section: sectionTxFees,
		Columns: []staging.Column{
			{Name: "Asset Category", Optional: true},
			{Name: "Currency"},
			{Name: "Date/Time"},
			{Name: "Symbol"},
			{Name: "Description", Optional: true},
			{Name: "Quantity"},
			{Name: "Trade Price"},
			{Name: "Amount"},
		},
	},
	sectionFees: {
		Section: sectionFees,
		Columns: []staging.Column{
			{Name: "Subtitle"},
			{Name: "Currency"},
			{Name: "Date"},
			{Name: "Description"},
			{Name: "Amount"},
		},
	},
	sectionCash: {
		Section: sectionCash,
		Columns: []staging.Column{
			{Name: "Currency"},
			{Name: "Settle Date", Aliases: []string{"Date"}},
			{Name: "Description"},
			{Name: "Amount"},
		},
	},
	sectionDividends: {
		Section: sectionDividends,
		Columns: []staging.Column{
			{Name: "Currency"},
			{Name: "Date"},
			{Name: "Description"},
			{Name: "Amount"},
		},
	},
	sectionWithholding: {
		Section: sectionWithholding,
		Columns: []staging.Column{
			{Name: "Currency"},
			{Name: "Date"},
			{Name: "Description"},
			{Name: "Amount"},
			{Name: "Code", Optional: true},
		},
	},
}
