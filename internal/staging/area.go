package staging

// Row is one staged data line.
type Row struct {
	ID   string
	File string
	Line int

	cells map[string]string
}

// Get returns the trimmed cell for a declared column, or "".
func (r Row) Get(column string) string {
	return r.cells[column]
}

// NewRow builds a row from already keyed cells, bypassing any layout. The
// caller supplies the identity.
func NewRow(id, file string, line int, cells map[string]string) Row {
	return Row{ID: id, File: file, Line: line, cells: cells}
}

type table struct {
	rows []Row
	seen map[string]struct{}
}

// Area holds the staged rows of one run, per section, in arrival order.
type Area struct {
	tables map[string]*table
	order  []string
}

// NewArea returns an empty staging area.
func NewArea() *Area {
	return &Area{tables: make(map[string]*table)}
}

// Add stages r under section. It returns false when a row with the same
// identity was already staged, which happens whenever exports overlap.
func (a *Area) Add(section string, r Row) bool {
	t, ok := a.tables[section]
	if !ok {
		t = &table{seen: make(map[string]struct{})}
		a.tables[section] = t
		a.order = append(a.order, section)
	}
	if _, dup := t.seen[r.ID]; dup {
		return false
	}
	t.seen[r.ID] = struct{}{}
	t.rows = append(t.rows, r)
	return true
}

// Rows returns the staged rows of section.
func (a *Area) Rows(section string) []Row {
	if t, ok := a.tables[section]; ok {
		return t.rows
	}
	return nil
}

// Sections lists the sections holding rows, in first-seen order.
func (a *Area) Sections() []string {
	return a.order
}

// Len counts staged rows across sections.
func (a *Area) Len() int {
	n := 0
	for _, t := range a.tables {
		n += len(t.rows)
	}
	return n
}

// Absorb moves every row of other into a, dropping duplicates, and returns
// how many were new. Adapters stage a file into a scratch area first so a
// structural failure halfway through leaves the run untouched.
func (a *Area) Absorb(other *Area) int {
	n := 0
	for _, section := range other.order {
		for _, r := range other.tables[section].rows {
			if a.Add(section, r) {
				n++
			}
		}
	}
	return n
}
