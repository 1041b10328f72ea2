// Package source reads statement CSV files into records with their line
// numbers, tolerant of ragged rows and stray quotes.
package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record is one CSV line.
type Record struct {
	Line   int
	Fields []string
}

// File is a fully read statement.
type File struct {
	Name    string
	Records []Record
}

// Read parses r as CSV. Sections of multi-table statements have differing
// widths, so the field count is not enforced.
func Read(name string, r io.Reader) (File, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true

	f := File{Name: name}
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return File{}, fmt.Errorf("%s: %w", name, err)
		}
		line, _ := csvr.FieldPos(0)
		if len(f.Records) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		if blank(rec) {
			continue
		}
		f.Records = append(f.Records, Record{Line: line, Fields: rec})
	}
	return f, nil
}

// Open reads the statement at path.
func Open(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Read(filepath.Base(path), fh)
}

// ErrNoStatements is returned when a directory holds no CSV files.
var ErrNoStatements = errors.New("no CSV statements found")

// List returns the CSV files directly inside dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read statements dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoStatements, dir)
	}
	sort.Strings(files)
	return files, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
