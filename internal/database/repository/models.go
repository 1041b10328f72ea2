package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so a repo can run inside
// or outside a merge transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Suspect is a set of stored dividends sharing date, item and rate. Usually
// the same payment imported from two statements whose rows hashed
// differently.
type Suspect struct {
	Date  time.Time
	Item  string
	PPU   decimal.Decimal
	Count int
	IDs   []string
}

// Import statuses recorded per file.
const (
	ImportOK     = "ok"
	ImportFailed = "failed"
)

// ImportEntry represents an import_log row.
type ImportEntry struct {
	ID         int64
	RunID      string
	Filename   string
	Platform   string
	Status     string
	Error      string
	RowCount   int
	ImportedAt time.Time
}

// UpsertCounts tallies one table of a merge.
type UpsertCounts struct {
	Inserted   int
	Duplicates int
}

// Offered is every record handed to the table.
func (c UpsertCounts) Offered() int { return c.Inserted + c.Duplicates }

func (c *UpsertCounts) add(inserted bool) {
	if inserted {
		c.Inserted++
	} else {
		c.Duplicates++
	}
}

// MergeResult tallies a whole merge per table.
type MergeResult struct {
	Transactions UpsertCounts
	Deposits     UpsertCounts
	Forex        UpsertCounts
}

// Inserted counts new rows across tables.
func (m MergeResult) Inserted() int {
	return m.Transactions.Inserted + m.Deposits.Inserted + m.Forex.Inserted
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const dateLayout = "2006-01-02"

func parseDay(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// toFloat converts a canonical amount for a REAL column.
func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
