package export

import "fmt"

// Column is one output column. Weight sizes the column relative to its
// siblings in paged formats and defaults to 1.
type Column struct {
	Header string
	Weight float64
}

// Table is a titled grid of string cells. Every row must have one cell per
// column.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

// Headers returns the column headers in order.
func (t Table) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Header
	}
	return out
}

// AddRow appends cells, padding or truncating to the column count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export table %q has no columns", t.Title)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("export table %q row %d has %d cells, want %d", t.Title, i, len(row), len(t.Columns))
		}
	}
	return nil
}

func (t Table) widths(total float64) []float64 {
	sum := 0.0
	for _, c := range t.Columns {
		sum += weight(c)
	}
	out := make([]float64, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = total * weight(c) / sum
	}
	return out
}

func weight(c Column) float64 {
	if c.Weight <= 0 {
		return 1
	}
	return c.Weight
}
