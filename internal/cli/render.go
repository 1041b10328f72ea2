package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/database/repository"
	"github.com/jask/statements/internal/export"
	"github.com/jask/statements/internal/service"
)

// newTable builds a bordered table whose columns listed in numeric are right
// aligned.
func newTable(headers []string, rows [][]string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)
}

func renderRun(w io.Writer, res service.RunResult) {
	fmt.Fprintln(w, titleStyle.Render("Import "+res.Platform)+" "+mutedStyle.Render(res.RunID))

	files := make([][]string, 0, len(res.Files))
	for _, f := range res.Files {
		status, detail := repository.ImportOK, ""
		if f.Err != nil {
			status, detail = repository.ImportFailed, f.Err.Error()
		}
		files = append(files, []string{
			filepath.Base(f.Path),
			strconv.Itoa(f.Rows),
			statusStyle(f.Err == nil).Render(status),
			detail,
		})
	}
	fmt.Fprintln(w, newTable([]string{"File", "Rows", "Status", "Error"}, files, 1))

	counts := [][]string{
		countRow(export.TransactionsTable, res.Merge.Transactions),
		countRow(export.DepositsTable, res.Merge.Deposits),
		countRow(export.ForexTable, res.Merge.Forex),
	}
	fmt.Fprintln(w, newTable([]string{"Table", "Offered", "Inserted", "Duplicates"}, counts, 1, 2, 3))

	renderIssues(w, res.Issues)
	renderSuspects(w, res.Suspects)
}

func countRow(name string, c repository.UpsertCounts) []string {
	return []string{name, strconv.Itoa(c.Offered()), strconv.Itoa(c.Inserted), strconv.Itoa(c.Duplicates)}
}

func renderIssues(w io.Writer, issues []canonical.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d rows skipped", len(issues))))
	for _, is := range issues {
		fmt.Fprintf(w, "  %s %s\n", detailStyle.Render(fmt.Sprintf("%s:%d", filepath.Base(is.File), is.Line)), is.Err)
	}
}

func renderSuspects(w io.Writer, suspects []repository.Suspect) {
	if len(suspects) == 0 {
		fmt.Fprintln(w, okStyle.Render("no duplicate dividend suspects"))
		return
	}
	rows := make([][]string, 0, len(suspects))
	for _, s := range suspects {
		rows = append(rows, []string{
			canonical.FormatDate(s.Date),
			s.Item,
			s.PPU.String(),
			strconv.Itoa(s.Count),
			strings.Join(s.IDs, "\n"),
		})
	}
	fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d possible duplicate dividends", len(suspects))))
	fmt.Fprintln(w, newTable([]string{"Date", "Item", "PPU", "Count", "IDs"}, rows, 2, 3))
}

func renderSummary(w io.Writer, path string, sum service.Summary) {
	fmt.Fprintln(w, titleStyle.Render("Store")+" "+mutedStyle.Render(path))
	counts := [][]string{
		{export.TransactionsTable, strconv.Itoa(sum.Transactions)},
		{export.DepositsTable, strconv.Itoa(sum.Deposits)},
		{export.ForexTable, strconv.Itoa(sum.Forex)},
	}
	fmt.Fprintln(w, newTable([]string{"Table", "Rows"}, counts, 1))

	if len(sum.Imports) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no imports yet"))
		return
	}
	rows := make([][]string, 0, len(sum.Imports))
	for _, e := range sum.Imports {
		rows = append(rows, []string{
			e.ImportedAt.Format("2006-01-02 15:04"),
			e.Platform,
			filepath.Base(e.Filename),
			strconv.Itoa(e.RowCount),
			statusStyle(e.Status == repository.ImportOK).Render(e.Status),
			e.Error,
		})
	}
	fmt.Fprintln(w, newTable([]string{"Imported", "Platform", "File", "Rows", "Status", "Error"}, rows, 3))
}

func renderPlatforms(w io.Writer, platforms []string) {
	for _, p := range platforms {
		fmt.Fprintln(w, infoStyle.Render(p))
	}
}
