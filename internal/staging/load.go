package staging

import (
	"fmt"

	"github.com/jask/statements/internal/source"
)

// Accept decides whether a record following the header is a data row.
type Accept func(b *Binding, rec source.Record) bool

// LoadTable stages a single-table statement: the first record holding
// headerCell is the header, and every later record accept approves is a
// row. With an empty headerCell the first record is the header. Rows land in
// area only if the whole file binds.
func LoadTable(area *Area, l Layout, f source.File, headerCell string, accept Accept) (int, error) {
	start := -1
	for i, rec := range f.Records {
		if headerCell == "" || contains(rec.Fields, headerCell) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, fmt.Errorf("%w: %s: no header row", ErrStructure, f.Name)
	}

	b, err := l.Bind(f.Name, f.Records[start].Fields)
	if err != nil {
		return 0, err
	}
	scratch := NewArea()
	for _, rec := range f.Records[start+1:] {
		if accept != nil && !accept(b, rec) {
			continue
		}
		scratch.Add(l.Section, b.Row(f.Name, rec.Line, rec.Fields))
	}
	return area.Absorb(scratch), nil
}

// Cell reads a declared column straight from a record.
func (b *Binding) Cell(rec source.Record, column string) string {
	i, ok := b.index[column]
	if !ok || i >= len(rec.Fields) {
		return ""
	}
	return rec.Fields[i]
}

func contains(fields []string, v string) bool {
	for _, f := range fields {
		if f == v {
			return true
		}
	}
	return false
}
