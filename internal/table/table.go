// Package table accumulates normalized rows for one provider across all of
// its views. Views may request different dimension subsets, so the column
// set is a growable ordered index: merging takes the union of columns in
// first-seen order and back-fills rows with nil where a column was absent.
package table

import "cloudreport/internal/model"

// Table is one provider's merged report rows. The category column is always
// first; a column, once seen, is never dropped.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty table with the category column pre-seeded so it stays
// first no matter which view lands rows first.
func New() *Table {
	return &Table{
		columns: []string{model.ColumnCategory},
		index:   map[string]int{model.ColumnCategory: 0},
	}
}

// AddColumns widens the table with any columns not yet present, keeping the
// given order for the new ones. Existing rows are unchanged; their missing
// cells read back as nil.
func (t *Table) AddColumns(columns []string) {
	for _, column := range columns {
		if _, ok := t.index[column]; ok {
			continue
		}
		t.index[column] = len(t.columns)
		t.columns = append(t.columns, column)
	}
}

// Append widens the table with the row's columns and appends the row. Cells
// for columns the row does not carry are nil.
func (t *Table) Append(columns []string, row model.Row) {
	t.AddColumns(columns)
	cells := make([]any, len(t.columns))
	for column, value := range row {
		if i, ok := t.index[column]; ok {
			cells[i] = value
		}
	}
	t.rows = append(t.rows, cells)
}

// Columns returns the current column order, category first.
func (t *Table) Columns() []string {
	columns := make([]string, len(t.columns))
	copy(columns, t.columns)
	return columns
}

// Len returns the number of accumulated rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns row i padded to the current column count. Rows appended before
// a later view widened the table read back with nil in the newer columns.
func (t *Table) Row(i int) []any {
	cells := make([]any, len(t.columns))
	copy(cells, t.rows[i])
	return cells
}

// Rows returns all rows padded to the current column count.
func (t *Table) Rows() [][]any {
	rows := make([][]any, len(t.rows))
	for i := range t.rows {
		rows[i] = t.Row(i)
	}
	return rows
}
