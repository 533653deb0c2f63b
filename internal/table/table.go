// Package table is the single in-memory tabular representation shared by the
// loaders and the per-source transformers: an ordered sequence of rows whose
// fields are addressed by header name.
package table

import "strings"

// Table holds a header and its data rows in file order.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// New builds a Table. Header names are trimmed; when a name repeats, the first
// column with that name wins lookups.
func New(header []string, rows [][]string) *Table {
	t := &Table{
		header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
		rows:   rows,
	}
	for i, h := range header {
		name := strings.TrimSpace(h)
		t.header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

// Header returns the trimmed column names.
func (t *Table) Header() []string { return t.header }

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns the i-th data row.
func (t *Table) Row(i int) Row {
	return Row{table: t, cells: t.rows[i]}
}

// Row is a view of one data row.
type Row struct {
	table *Table
	cells []string
}

// Lookup returns the trimmed cell for column name. ok is false when the
// column does not exist or the row is too short to carry it.
func (r Row) Lookup(name string) (string, bool) {
	i, ok := r.table.index[name]
	if !ok || i >= len(r.cells) {
		return "", false
	}
	return strings.TrimSpace(r.cells[i]), true
}

// Value returns the trimmed cell for column name, or "" when absent.
func (r Row) Value(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// FirstValue returns the value of the first column in names that exists in
// the table, mirroring sources that renamed a header between releases.
func (r Row) FirstValue(names ...string) string {
	for _, n := range names {
		if v, ok := r.Lookup(n); ok {
			return v
		}
	}
	return ""
}
