package models

// Missing is the cell value written for an absent field in tabular output.
const Missing = ""

// Table is an in-memory tabular dataset. Every row has len(Columns) cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewTable creates an empty table with the given header.
func NewTable(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of col, or -1.
func (t *Table) ColumnIndex(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	out := make([]string, len(t.Columns))
	copy(out, row)
	t.Rows = append(t.Rows, out)
}

// Value returns the cell at (row, col) and whether the column exists.
func (t *Table) Value(row int, col string) (string, bool) {
	idx := t.ColumnIndex(col)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Missing, false
	}
	return t.Rows[row][idx], true
}
