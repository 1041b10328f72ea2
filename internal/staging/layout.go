// Package staging keeps the raw statement rows of one import run, grouped by
// section and deduplicated by row identity, until an adapter normalizes them.
package staging

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/statements/internal/identity"
)

// ErrStructure marks a file whose layout does not match what its adapter
// expects. The whole file is rejected.
var ErrStructure = errors.New("unexpected statement structure")

// Column declares one expected header.
type Column struct {
	Name    string
	Aliases []string
	// Pattern matches headers that carry a variable part, such as the
	// account currency in "Comm in AUD". Tried after Name and Aliases.
	Pattern  *regexp.Regexp
	Optional bool
	// Volatile columns change between exports of the same event (balances,
	// exchange rates) and are left out of the row identity.
	Volatile bool
}

// Layout is the expected shape of one section of a statement.
type Layout struct {
	Section string
	Columns []Column
}

// Binding maps a layout onto the header of a concrete file.
type Binding struct {
	layout Layout
	index  map[string]int
}

// Bind locates every declared column in header. A missing required column is
// a structural error naming the closest header actually present.
func (l Layout) Bind(file string, header []string) (*Binding, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	b := &Binding{layout: l, index: make(map[string]int, len(l.Columns))}
	for _, c := range l.Columns {
		idx, ok := lookup(pos, header, c)
		if !ok {
			if c.Optional {
				continue
			}
			return nil, missingColumn(file, l.Section, c.Name, header)
		}
		b.index[c.Name] = idx
	}
	return b, nil
}

func lookup(pos map[string]int, header []string, c Column) (int, bool) {
	if i, ok := pos[c.Name]; ok {
		return i, true
	}
	for _, a := range c.Aliases {
		if i, ok := pos[a]; ok {
			return i, true
		}
	}
	if c.Pattern != nil {
		for i, h := range header {
			if c.Pattern.MatchString(strings.TrimSpace(h)) {
				return i, true
			}
		}
	}
	return 0, false
}

func missingColumn(file, section, name string, header []string) error {
	where := file
	if section != "" {
		where = fmt.Sprintf("%s section %q", file, section)
	}
	if near := closest(name, header); near != "" {
		return fmt.Errorf("%w: %s: missing column %q (found %q)", ErrStructure, where, name, near)
	}
	return fmt.Errorf("%w: %s: missing column %q", ErrStructure, where, name)
}

// closest suggests the header most likely meant to be name, if any is near
// enough to be a rename rather than an unrelated column.
func closest(name string, header []string) string {
	best, bestDist := "", -1
	for _, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(h))
		if bestDist < 0 || d < bestDist {
			best, bestDist = h, d
		}
	}
	if bestDist < 0 || float64(bestDist)/float64(max(len(name), len(best))) >= 0.5 {
		return ""
	}
	return best
}

// Row builds a staged row from one data record. Cells beyond the record's
// length read as empty.
func (b *Binding) Row(file string, line int, rec []string) Row {
	cells := make(map[string]string, len(b.index))
	var idParts []string
	for _, c := range b.layout.Columns {
		v := ""
		if i, ok := b.index[c.Name]; ok && i < len(rec) {
			v = strings.TrimSpace(rec[i])
		}
		cells[c.Name] = v
		if !c.Volatile {
			idParts = append(idParts, v)
		}
	}
	id := identity.Key(append([]string{b.layout.Section}, idParts...)...)
	return Row{ID: id, File: file, Line: line, cells: cells}
}

// Has reports whether column name was found in the bound header. Optional
// columns absent from the header report false.
func (b *Binding) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}
