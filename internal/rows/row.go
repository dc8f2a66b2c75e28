package rows

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sheetq/internal/ir"
)

// RawRows is a result set as returned by a data source.
type RawRows struct {
	// Table is the worksheet the rows were read from.
	Table string

	// Columns are the result column names in result order.
	Columns []string

	// Values holds one slice of driver values per row, aligned with Columns.
	Values [][]any
}

// Len returns the number of rows.
func (r *RawRows) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

// columnIndex locates columns by name. Names compare after NFC
// normalization; an exact match wins over a case-insensitive one.
type columnIndex struct {
	names  []string
	exact  map[string]int
	folded map[string]int
}

func newColumnIndex(columns []string) *columnIndex {
	idx := &columnIndex{
		names:  columns,
		exact:  make(map[string]int, len(columns)),
		folded: make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		n := norm.NFC.String(c)
		if _, dup := idx.exact[n]; !dup {
			idx.exact[n] = i
		}
		f := strings.ToLower(n)
		if _, dup := idx.folded[f]; !dup {
			idx.folded[f] = i
		}
	}
	return idx
}

func (idx *columnIndex) lookup(name string) (int, bool) {
	n := norm.NFC.String(name)
	if i, ok := idx.exact[n]; ok {
		return i, true
	}
	i, ok := idx.folded[strings.ToLower(n)]
	return i, ok
}

// Row is a generic result row with by-name and by-index cell access.
type Row struct {
	index  *columnIndex
	values []any
}

// NewRow builds a standalone Row.
func NewRow(columns []string, values []any) Row {
	return Row{index: newColumnIndex(columns), values: values}
}

// Len returns the number of cells.
func (r Row) Len() int { return len(r.values) }

// Columns returns the column names in result order.
func (r Row) Columns() []string {
	if r.index == nil {
		return nil
	}
	return r.index.names
}

// At returns the cell at position i. It panics if i is out of range.
func (r Row) At(i int) Cell {
	return NewCell(r.index.names[i], r.values[i])
}

// Cell returns the cell of a column.
func (r Row) Cell(column string) (Cell, bool) {
	if r.index == nil {
		return Cell{}, false
	}
	i, ok := r.index.lookup(column)
	if !ok {
		return Cell{}, false
	}
	return NewCell(r.index.names[i], r.values[i]), true
}

// Get returns the uncoerced value of a column, or ir.Null if it is absent.
func (r Row) Get(column string) ir.Value {
	c, ok := r.Cell(column)
	if !ok {
		return ir.Null{}
	}
	return c.Value()
}

// MarshalJSON encodes the row as an object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range r.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.index.names[i])
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.At(i).Value())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
