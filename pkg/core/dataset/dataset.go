// Package dataset provides the in-memory tabular model the analysis
// pipeline operates on: typed cells, immutable-by-copy transformations
// and delimited-text rendering for prompt payloads.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindNumber
	kindText
)

// Value is a single cell: a number, a text value, or null.
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// Number builds a numeric cell.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

// Text builds a textual cell.
func Text(s string) Value { return Value{kind: kindText, str: s} }

// Null builds an empty cell.
func Null() Value { return Value{kind: kindNull} }

// IsNull reports whether the cell is empty.
func (v Value) IsNull() bool { return v.kind == kindNull }

// Float returns the numeric value. For text cells a parse is attempted,
// so numeric-looking strings still count as numbers.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindText:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// String renders the cell for delimited output. Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindText:
		return v.str
	default:
		return ""
	}
}

// Dataset is a table of rows under named columns. Transformations return
// a new Dataset; an input table is never mutated in place.
type Dataset struct {
	Columns []string
	Rows    [][]Value
}

// New creates an empty dataset with the given column header.
func New(columns []string) *Dataset {
	return &Dataset{Columns: append([]string(nil), columns...)}
}

// NumRows returns the number of data rows.
func (d *Dataset) NumRows() int { return len(d.Rows) }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.Columns) }

// ColumnIndex resolves a column name to its position.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	for i, c := range d.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.ColumnIndex(name)
	return ok
}

// Value returns the cell at (row, column name). Missing columns and
// out-of-range rows yield null.
func (d *Dataset) Value(row int, column string) Value {
	idx, ok := d.ColumnIndex(column)
	if !ok || row < 0 || row >= len(d.Rows) || idx >= len(d.Rows[row]) {
		return Null()
	}
	return d.Rows[row][idx]
}

// Clone deep-copies the dataset.
func (d *Dataset) Clone() *Dataset {
	out := New(d.Columns)
	out.Rows = make([][]Value, len(d.Rows))
	for i, row := range d.Rows {
		out.Rows[i] = append([]Value(nil), row...)
	}
	return out
}

// WithColumn returns a copy of the dataset with the named column set to
// the given values. An existing column of the same name is replaced,
// otherwise the column is appended. values must have one entry per row.
func (d *Dataset) WithColumn(name string, values []Value) *Dataset {
	out := d.Clone()
	if idx, ok := out.ColumnIndex(name); ok {
		for i := range out.Rows {
			out.Rows[i][idx] = values[i]
		}
		return out
	}
	out.Columns = append(out.Columns, name)
	for i := range out.Rows {
		out.Rows[i] = append(out.Rows[i], values[i])
	}
	return out
}

// Select returns a copy containing only the given row indices, in order.
func (d *Dataset) Select(rows []int) *Dataset {
	out := New(d.Columns)
	for _, r := range rows {
		if r < 0 || r >= len(d.Rows) {
			continue
		}
		out.Rows = append(out.Rows, append([]Value(nil), d.Rows[r]...))
	}
	return out
}

// coerceCell turns a raw text token into a typed cell. Empty tokens
// become null, numeric-looking tokens become numbers.
func coerceCell(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Number(f)
	}
	return Text(trimmed)
}

// ParseCSV reads a delimited file with a header row into a dataset.
// Short rows are padded with nulls so every row matches the header width.
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	d := New(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(d.Rows)+2, err)
		}
		row := make([]Value, len(header))
		for i := range header {
			if i < len(record) {
				row[i] = coerceCell(record[i])
			} else {
				row[i] = Null()
			}
		}
		d.Rows = append(d.Rows, row)
	}
	return d, nil
}

// ToCSV renders the dataset as delimited text with a header row.
func (d *Dataset) ToCSV() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(d.Columns)
	record := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		for i := range d.Columns {
			if i < len(row) {
				record[i] = row[i].String()
			} else {
				record[i] = ""
			}
		}
		w.Write(record)
	}
	w.Flush()
	return sb.String()
}
